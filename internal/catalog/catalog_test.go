package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"product-vision/pkg/colorutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertStartsPending(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Insert("Çubuk Krema", "Ülker", "200 g")
	require.NoError(t, err)
	require.Positive(t, id)

	p, err := store.Get(id)
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
	require.Equal(t, "Çubuk Krema", p.Name)
	require.Equal(t, colorutil.Unknown, p.Color)
	require.Empty(t, p.Embedding)
}

func TestMarkProcessedStoresEmbedding(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Insert("Gofret", "Eti", "40 g")
	require.NoError(t, err)

	vec := []float32{1.5, -2.25, 0, 3.75}
	require.NoError(t, store.MarkProcessed(id, vec, colorutil.Red))

	p, err := store.Get(id)
	require.NoError(t, err)
	require.Equal(t, StatusProcessed, p.Status)
	require.Equal(t, colorutil.Red, p.Color)
	require.Equal(t, vec, p.Embedding)
}

func TestSnapshotsOnlyProcessed(t *testing.T) {
	store := openTestStore(t)

	done, err := store.Insert("Süt", "Pınar", "1 l")
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessed(done, []float32{1, 2}, colorutil.White))

	_, err = store.Insert("Ayran", "Sütaş", "300 ml")
	require.NoError(t, err)

	failed, err := store.Insert("Peynir", "İçim", "500 g")
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(failed))

	snaps, err := store.Snapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, done, snaps[0].ProductID)
	require.Equal(t, []float32{1, 2}, snaps[0].Embedding)
	require.Equal(t, colorutil.White, snaps[0].Color)

	counts, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 1, counts[StatusProcessed])
	require.Equal(t, 1, counts[StatusPending])
	require.Equal(t, 1, counts[StatusFailed])
}

func TestGetMissingProduct(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(12345)
	require.Error(t, err)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1, 2048.125}
	require.Equal(t, vec, decodeEmbedding(encodeEmbedding(vec)))
	require.Nil(t, decodeEmbedding(nil))
}
