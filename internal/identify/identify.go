// Package identify decides which catalog product, if any, an image shows.
// It chains segmentation, feature extraction, and index search, then turns
// the best neighbor's distance into a similarity score and applies the
// acceptance threshold.
package identify

import (
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"product-vision/internal/config"
	"product-vision/internal/feature"
	"product-vision/internal/index"
	"product-vision/internal/segment"
)

// Match is an accepted identification. Similarity is in [0,1].
type Match struct {
	ProductID  int64
	Similarity float64
	Distance   float64
}

// Identifier orchestrates the identification pipeline.
type Identifier struct {
	cfg       config.Identify
	engine    *segment.Engine
	extractor *feature.Extractor
	idx       *index.Index
	log       *zap.Logger
}

// New assembles an identifier over the given stages.
func New(cfg config.Identify, engine *segment.Engine, extractor *feature.Extractor, idx *index.Index, log *zap.Logger) *Identifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Identifier{cfg: cfg, engine: engine, extractor: extractor, idx: idx, log: log}
}

// Identify returns the best catalog match for the image, or nil when no
// candidate reaches the similarity threshold. An empty index short-circuits
// to nil before any search runs. A nil result is "no match", never an error.
func (id *Identifier) Identify(img gocv.Mat) (*Match, error) {
	if id.idx.Size() == 0 {
		id.log.Debug("identify on empty index")
		return nil, nil
	}

	seg, err := id.engine.ProcessMat(img)
	if err != nil {
		return nil, err
	}
	defer seg.Close()

	vec := id.extractor.Extract(seg.Standardized)
	if feature.IsZero(vec) {
		id.log.Warn("identify: extraction produced zero vector, no match possible")
		return nil, nil
	}

	// Color detection confidence can be low, so the search is broad across
	// every partition rather than scoped to the detected category.
	neighbors, err := id.idx.SearchAll(vec, id.cfg.SearchK)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	return id.decide(neighbors), nil
}

// IdentifyBytes decodes raw image bytes and identifies them. Undecodable
// input is a pipeline failure, distinct from "no match".
func (id *Identifier) IdentifyBytes(data []byte) (*Match, error) {
	if id.idx.Size() == 0 {
		return nil, nil
	}

	seg, err := id.engine.Process(data)
	if err != nil {
		return nil, err
	}
	defer seg.Close()

	vec := id.extractor.Extract(seg.Standardized)
	if feature.IsZero(vec) {
		return nil, nil
	}
	neighbors, err := id.idx.SearchAll(vec, id.cfg.SearchK)
	if err != nil {
		return nil, err
	}
	return id.decide(neighbors), nil
}

// decide applies the acceptance threshold to the best neighbor. A candidate
// at exactly the threshold is accepted.
func (id *Identifier) decide(neighbors []index.Neighbor) *Match {
	if len(neighbors) == 0 {
		return nil
	}
	best := neighbors[0]
	sim := id.Similarity(best.Distance)
	if sim < id.cfg.SimilarityThreshold {
		id.log.Debug("best candidate below threshold",
			zap.Int64("product_id", best.ProductID),
			zap.Float64("similarity", sim))
		return nil
	}
	return &Match{ProductID: best.ProductID, Similarity: sim, Distance: best.Distance}
}

// Similarity converts an L2 distance to a score in [0,1]. DistanceMax is
// backbone-specific; distances at or beyond it score zero.
func (id *Identifier) Similarity(distance float64) float64 {
	s := 1 - distance/id.cfg.DistanceMax
	if s < 0 {
		return 0
	}
	return s
}
