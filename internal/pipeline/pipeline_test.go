package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"product-vision/internal/catalog"
	"product-vision/internal/config"
	"product-vision/internal/feature"
	"product-vision/internal/index"
	"product-vision/internal/modelcache"
	"product-vision/internal/segment"
)

func newTestPipeline(t *testing.T) (*Pipeline, *catalog.Store, *index.Index) {
	t.Helper()
	cfg := config.Default()

	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	idx := index.New(cfg.Feature.EmbeddingLength, nil)
	engine := segment.NewEngine(cfg.Segment, nil, nil)
	extractor := feature.NewExtractor(cfg.Feature, modelcache.New(), func() (feature.Backbone, error) {
		return nil, fmt.Errorf("no backbone in tests")
	}, nil)

	return New(&cfg, engine, extractor, store, idx, nil), store, idx
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIngestRejectsFlatImage(t *testing.T) {
	p, store, idx := newTestPipeline(t)

	id, err := store.Insert("Süt", "Pınar", "1 l")
	require.NoError(t, err)

	flat := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			flat.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	err = p.Ingest(id, encodePNG(t, flat))
	require.ErrorIs(t, err, ErrBadQuality)

	product, err := store.Get(id)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusFailed, product.Status)
	require.Zero(t, idx.Size())
}

func TestIngestUndecodableBytes(t *testing.T) {
	p, store, idx := newTestPipeline(t)

	id, err := store.Insert("Ayran", "Sütaş", "300 ml")
	require.NoError(t, err)

	require.Error(t, p.Ingest(id, []byte("garbage")))

	product, err := store.Get(id)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusFailed, product.Status)
	require.Zero(t, idx.Size())
}

func TestRebuildIndexFromCatalog(t *testing.T) {
	p, store, idx := newTestPipeline(t)

	id, err := store.Insert("Gofret", "Eti", "40 g")
	require.NoError(t, err)
	vec := make([]float32, config.Default().Feature.EmbeddingLength)
	vec[0] = 1
	require.NoError(t, store.MarkProcessed(id, vec, "red"))

	require.NoError(t, p.RebuildIndex())
	require.Equal(t, 1, idx.Size())
}
