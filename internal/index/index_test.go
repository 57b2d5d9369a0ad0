package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"product-vision/pkg/colorutil"
)

func vec(dim int, fill float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestAddAndSearch(t *testing.T) {
	ix := New(4, nil)
	require.NoError(t, ix.Add(1, vec(4, 1), colorutil.Red))
	require.NoError(t, ix.Add(2, vec(4, 5), colorutil.Red))

	got, err := ix.Search(vec(4, 0), []colorutil.Category{colorutil.Red}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].ProductID)
	require.InDelta(t, 2.0, got[0].Distance, 1e-6)
	require.Equal(t, int64(2), got[1].ProductID)
}

func TestSearchScopedToPartitions(t *testing.T) {
	ix := New(4, nil)
	require.NoError(t, ix.Add(1, vec(4, 1), colorutil.Red))
	require.NoError(t, ix.Add(2, vec(4, 1), colorutil.Blue))

	got, err := ix.Search(vec(4, 1), []colorutil.Category{colorutil.Blue}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].ProductID)
}

func TestSearchDedupKeepsLowestDistance(t *testing.T) {
	ix := New(4, nil)
	// Same product in two partitions with different embeddings, as a
	// rebuild race can produce.
	require.NoError(t, ix.Add(7, vec(4, 2), colorutil.Red))
	require.NoError(t, ix.Add(7, vec(4, 1), colorutil.Blue))

	got, err := ix.Search(vec(4, 0), []colorutil.Category{colorutil.Red, colorutil.Blue}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(7), got[0].ProductID)
	require.InDelta(t, 2.0, got[0].Distance, 1e-6)
}

func TestAddInvalidColorLandsInUnknown(t *testing.T) {
	ix := New(4, nil)
	require.NoError(t, ix.Add(3, vec(4, 1), colorutil.Category("chartreuse")))

	got, err := ix.Search(vec(4, 1), []colorutil.Category{colorutil.Unknown}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(3), got[0].ProductID)
}

func TestSearchWrongDimension(t *testing.T) {
	ix := New(4, nil)
	_, err := ix.Search(vec(3, 0), colorutil.Categories, 5)
	require.Error(t, err)

	require.Error(t, ix.Add(1, vec(3, 0), colorutil.Red))
}

func TestSearchTruncatesToK(t *testing.T) {
	ix := New(2, nil)
	for i := 0; i < 10; i++ {
		require.NoError(t, ix.Add(int64(i), vec(2, float32(i)), colorutil.Gray))
	}

	got, err := ix.SearchAll(vec(2, 0), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(0), got[0].ProductID)
}

type stubSource struct {
	snaps []Snapshot
	err   error
}

func (s stubSource) Snapshots() ([]Snapshot, error) { return s.snaps, s.err }

func TestRebuildReplacesPartitions(t *testing.T) {
	ix := New(2, nil)
	require.NoError(t, ix.Add(1, vec(2, 1), colorutil.Red))

	src := stubSource{snaps: []Snapshot{
		{ProductID: 2, Embedding: vec(2, 2), Color: colorutil.Blue},
		{ProductID: 3, Embedding: vec(2, 3), Color: colorutil.Category("bogus")},
		{ProductID: 4, Embedding: vec(3, 4)}, // wrong length, skipped
	}}
	require.NoError(t, ix.Rebuild(src))

	require.Equal(t, 2, ix.Size())
	sizes := ix.PartitionSizes()
	require.Equal(t, 1, sizes[colorutil.Blue])
	require.Equal(t, 1, sizes[colorutil.Unknown])
	require.Zero(t, sizes[colorutil.Red])
}

func TestRebuildErrorKeepsOldIndex(t *testing.T) {
	ix := New(2, nil)
	require.NoError(t, ix.Add(1, vec(2, 1), colorutil.Red))

	err := ix.Rebuild(stubSource{err: fmt.Errorf("catalog down")})
	require.Error(t, err)
	require.Equal(t, 1, ix.Size())
}
