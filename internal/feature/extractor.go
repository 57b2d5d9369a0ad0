// Package feature maps standardized product images to fixed-length
// embeddings through a pretrained backbone, and sentences to text
// embeddings through a sentence encoder. Both models are loaded once per
// process via the model cache.
package feature

import (
	"fmt"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"product-vision/internal/config"
	"product-vision/internal/modelcache"
)

// ImageNet channel statistics used by the preprocessing transform.
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// BackboneKey identifies the image backbone in the model cache.
const BackboneKey = "feature-backbone"

// Backbone is a pretrained image-classification network with its final
// classification layer removed. Input is a normalized CHW float tensor;
// output is the flattened embedding.
type Backbone interface {
	Forward(input []float32, height, width int) ([]float32, error)
}

// BackboneLoader constructs the backbone on first use.
type BackboneLoader func() (Backbone, error)

// Extractor produces embeddings from standardized images.
type Extractor struct {
	cfg      config.Feature
	registry *modelcache.Registry
	load     BackboneLoader
	log      *zap.Logger
}

// NewExtractor creates an extractor backed by the given model registry.
func NewExtractor(cfg config.Feature, registry *modelcache.Registry, load BackboneLoader, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{cfg: cfg, registry: registry, load: load, log: log}
}

// Extract returns the embedding for a standardized image. On any failure it
// returns a zero vector of the configured length: callers must treat an
// all-zero vector as "extraction failed", never as a valid near-origin
// embedding.
func (e *Extractor) Extract(img gocv.Mat) []float32 {
	vec, err := e.extract(img)
	if err != nil {
		e.log.Warn("feature extraction failed, returning zero vector", zap.Error(err))
		return make([]float32, e.cfg.EmbeddingLength)
	}
	if len(vec) != e.cfg.EmbeddingLength {
		e.log.Warn("backbone returned unexpected embedding length",
			zap.Int("got", len(vec)), zap.Int("want", e.cfg.EmbeddingLength))
		return make([]float32, e.cfg.EmbeddingLength)
	}
	return vec
}

func (e *Extractor) extract(img gocv.Mat) (result []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("feature: preprocessing panicked: %v", r)
		}
	}()

	if img.Empty() {
		return nil, fmt.Errorf("feature: empty image")
	}

	model, err := e.registry.GetOrLoad(BackboneKey, func() (interface{}, error) {
		return e.load()
	})
	if err != nil {
		return nil, fmt.Errorf("feature: backbone load: %w", err)
	}
	backbone, ok := model.(Backbone)
	if !ok {
		return nil, fmt.Errorf("feature: cached model has wrong type %T", model)
	}

	tensor := e.preprocess(img)
	vec, err := backbone.Forward(tensor, e.cfg.CropTo, e.cfg.CropTo)
	if err != nil {
		return nil, fmt.Errorf("feature: forward pass: %w", err)
	}
	return vec, nil
}

// preprocess applies the published transform: shortest side to ResizeTo,
// center crop to CropTo, then per-channel normalization into a CHW tensor
// in RGB order.
func (e *Extractor) preprocess(img gocv.Mat) []float32 {
	w, h := img.Cols(), img.Rows()
	var newW, newH int
	if w < h {
		newW = e.cfg.ResizeTo
		newH = h * e.cfg.ResizeTo / w
	} else {
		newH = e.cfg.ResizeTo
		newW = w * e.cfg.ResizeTo / h
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)

	crop := e.cfg.CropTo
	x0 := (newW - crop) / 2
	y0 := (newH - crop) / 2
	region := resized.Region(image.Rect(x0, y0, x0+crop, y0+crop))
	defer region.Close()

	tensor := make([]float32, 3*crop*crop)
	plane := crop * crop
	for y := 0; y < crop; y++ {
		for x := 0; x < crop; x++ {
			b := float32(region.GetUCharAt(y, x*3+0)) / 255.0
			g := float32(region.GetUCharAt(y, x*3+1)) / 255.0
			r := float32(region.GetUCharAt(y, x*3+2)) / 255.0
			idx := y*crop + x
			tensor[0*plane+idx] = (r - normMean[0]) / normStd[0]
			tensor[1*plane+idx] = (g - normMean[1]) / normStd[1]
			tensor[2*plane+idx] = (b - normMean[2]) / normStd[2]
		}
	}
	return tensor
}

// IsZero reports whether vec is the failure sentinel (all zeros).
func IsZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
