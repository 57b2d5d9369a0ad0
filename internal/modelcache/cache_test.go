package modelcache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrLoadCachesInstance(t *testing.T) {
	r := New()
	var calls int32

	loader := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "model", nil
	}

	first, err := r.GetOrLoad("backbone", loader)
	require.NoError(t, err)
	second, err := r.GetOrLoad("backbone", loader)
	require.NoError(t, err)

	require.Equal(t, "model", first)
	require.Equal(t, first, second)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrLoadSingleLoaderUnderConcurrency(t *testing.T) {
	r := New()
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.GetOrLoad("shared", func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return 42, nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, 1, r.Len())
}

func TestLoaderErrorNotCached(t *testing.T) {
	r := New()
	var calls int32

	failing := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, fmt.Errorf("load failed")
	}

	_, err := r.GetOrLoad("flaky", failing)
	require.Error(t, err)
	require.Equal(t, 0, r.Len())

	// The key is not poisoned; a later loader can succeed.
	v, err := r.GetOrLoad("flaky", func() (interface{}, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
}

func TestInvalidateForcesReload(t *testing.T) {
	r := New()
	var calls int32
	loader := func() (interface{}, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	v, err := r.GetOrLoad("index", loader)
	require.NoError(t, err)
	require.Equal(t, int32(1), v)

	r.Invalidate("index")

	v, err = r.GetOrLoad("index", loader)
	require.NoError(t, err)
	require.Equal(t, int32(2), v)
}
