package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"product-vision/internal/modelcache"
)

// EncoderKey identifies the sentence encoder in the model cache.
const EncoderKey = "sentence-encoder"

// SentenceEncoder maps a text string to a fixed-length embedding.
type SentenceEncoder interface {
	Encode(text string) ([]float32, error)
}

// EncoderLoader constructs the sentence encoder on first use.
type EncoderLoader func() (SentenceEncoder, error)

// LoadEncoder fetches the cached sentence encoder, loading it if needed.
func LoadEncoder(registry *modelcache.Registry, load EncoderLoader) (SentenceEncoder, error) {
	model, err := registry.GetOrLoad(EncoderKey, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		return nil, fmt.Errorf("feature: encoder load: %w", err)
	}
	enc, ok := model.(SentenceEncoder)
	if !ok {
		return nil, fmt.Errorf("feature: cached model has wrong type %T", model)
	}
	return enc, nil
}

// CosineSimilarity returns the cosine of the angle between a and b,
// or 0 when either vector is zero or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	fa := make([]float64, len(a))
	fb := make([]float64, len(b))
	for i := range a {
		fa[i] = float64(a[i])
		fb[i] = float64(b[i])
	}
	na := floats.Norm(fa, 2)
	nb := floats.Norm(fb, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := floats.Dot(fa, fb) / (na * nb)
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}
