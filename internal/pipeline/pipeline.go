// Package pipeline runs the full processing chain for a catalog product
// image: quality gate, segmentation, color categorization, feature
// extraction, catalog persistence, and incremental index insert. The
// catalog record's status tracks where in the chain the image is or where
// it stopped.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"product-vision/internal/catalog"
	"product-vision/internal/colorcat"
	"product-vision/internal/config"
	"product-vision/internal/feature"
	"product-vision/internal/imaging"
	"product-vision/internal/index"
	"product-vision/internal/quality"
	"product-vision/internal/segment"
	"product-vision/pkg/colorutil"
)

// ErrBadQuality marks images rejected by the quality gate.
var ErrBadQuality = fmt.Errorf("pipeline: image rejected by quality gate")

// Pipeline processes product images into indexed catalog records.
type Pipeline struct {
	gate        *quality.Gate
	engine      *segment.Engine
	categorizer *colorcat.Categorizer
	extractor   *feature.Extractor
	store       *catalog.Store
	idx         *index.Index
	log         *zap.Logger
}

// New assembles the pipeline over its stages.
func New(cfg *config.Config, engine *segment.Engine, extractor *feature.Extractor, store *catalog.Store, idx *index.Index, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		gate:        quality.NewGate(cfg.Quality),
		engine:      engine,
		categorizer: colorcat.New(cfg.Color),
		extractor:   extractor,
		store:       store,
		idx:         idx,
		log:         log,
	}
}

// Ingest processes one image for an existing pending product. On success
// the product is marked processed and its embedding enters the index
// immediately; a later rebuild is not required to make it findable.
func (p *Pipeline) Ingest(productID int64, data []byte) error {
	img, err := imaging.Decode(data)
	if err != nil {
		p.fail(productID)
		return fmt.Errorf("pipeline: product %d: %w", productID, err)
	}
	defer img.Close()

	report, err := p.gate.Assess(img)
	if err != nil {
		p.fail(productID)
		return fmt.Errorf("pipeline: product %d: %w", productID, err)
	}
	if report.Verdict == quality.BadReject {
		p.fail(productID)
		p.log.Info("image rejected",
			zap.Int64("product_id", productID),
			zap.Float64("blur", report.Scores.Blur),
			zap.Float64("contrast", report.Scores.Contrast))
		return ErrBadQuality
	}
	if report.Verdict == quality.PoorRecoverable {
		p.log.Warn("image quality poor, continuing",
			zap.Int64("product_id", productID),
			zap.Float64("brightness", report.Scores.Brightness))
	}

	seg, err := p.engine.ProcessMat(img)
	if err != nil {
		p.fail(productID)
		return fmt.Errorf("pipeline: product %d: %w", productID, err)
	}
	defer seg.Close()

	profile, err := p.categorizer.Categorize(seg.Standardized)
	if err != nil {
		p.log.Warn("color categorization failed", zap.Int64("product_id", productID), zap.Error(err))
		profile.Primary = colorutil.Unknown
	}

	vec := p.extractor.Extract(seg.Standardized)
	if feature.IsZero(vec) {
		p.fail(productID)
		return fmt.Errorf("pipeline: product %d: feature extraction failed", productID)
	}

	if err := p.store.MarkProcessed(productID, vec, profile.Primary); err != nil {
		return err
	}
	if err := p.idx.Add(productID, vec, profile.Primary); err != nil {
		return fmt.Errorf("pipeline: product %d: %w", productID, err)
	}

	p.log.Info("product processed",
		zap.Int64("product_id", productID),
		zap.String("color", string(profile.Primary)),
		zap.String("mask_provenance", string(seg.Provenance)))
	return nil
}

// RebuildIndex reconstructs the similarity index from the catalog.
func (p *Pipeline) RebuildIndex() error {
	return p.idx.Rebuild(p.store)
}

func (p *Pipeline) fail(productID int64) {
	if err := p.store.MarkFailed(productID); err != nil {
		p.log.Error("failed to mark product failed", zap.Int64("product_id", productID), zap.Error(err))
	}
}
