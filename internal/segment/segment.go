// Package segment implements the "trust, but verify" product segmentation
// engine: an AI background-removal path whose refinement is accepted only
// when it demonstrably agrees with the raw mask, backed by a classical CV
// failsafe path, followed by color correction and standardization.
package segment

import (
	"errors"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"product-vision/internal/config"
	"product-vision/internal/imaging"
)

// Provenance records which segmentation path produced the mask.
type Provenance string

const (
	// ProvenanceAIRefined marks an AI mask improved by the energy
	// minimization solver and verified against the raw mask.
	ProvenanceAIRefined Provenance = "ai_refined"
	// ProvenanceAIRaw marks an AI mask kept as-is because the refinement
	// failed verification.
	ProvenanceAIRaw Provenance = "ai_raw"
	// ProvenanceCVFailsafe marks a mask from the classical threshold and
	// contour path, used when the AI path is unavailable or invalid.
	ProvenanceCVFailsafe Provenance = "cv_failsafe"
	// ProvenanceDegraded marks a result carrying the original image
	// untouched because every processing path failed.
	ProvenanceDegraded Provenance = "degraded"
)

// ErrNoContours is the one fatal segmentation error: the failsafe path
// found nothing to segment, so there is no defined fallback left.
var ErrNoContours = errors.New("segment: failsafe found no contours")

// BackgroundRemover is the external AI background-removal model. It returns
// an 8-bit single-channel alpha mask the same size as the input, where
// nonzero marks foreground.
type BackgroundRemover interface {
	AlphaMask(img gocv.Mat) (gocv.Mat, error)
}

// Result is the output of segmentation and standardization. The
// standardized image is square, white-bordered, and is the sole input
// consumed by the color categorizer and feature extractor.
type Result struct {
	Mask         gocv.Mat // 0/255 single channel; empty on degraded results
	Provenance   Provenance
	Standardized gocv.Mat // BGR product image on a white canvas
	Degraded     bool
}

// Close releases the result's Mats.
func (r *Result) Close() {
	if !r.Mask.Empty() {
		r.Mask.Close()
	}
	if !r.Standardized.Empty() {
		r.Standardized.Close()
	}
}

// clone deep-copies the result so cached entries stay isolated from callers.
func (r *Result) clone() *Result {
	out := &Result{Provenance: r.Provenance, Degraded: r.Degraded}
	if !r.Mask.Empty() {
		out.Mask = r.Mask.Clone()
	} else {
		out.Mask = gocv.NewMat()
	}
	if !r.Standardized.Empty() {
		out.Standardized = r.Standardized.Clone()
	} else {
		out.Standardized = gocv.NewMat()
	}
	return out
}

// Engine runs the segmentation pipeline. Safe for concurrent use.
type Engine struct {
	cfg     config.Segment
	remover BackgroundRemover // nil forces the failsafe path
	log     *zap.Logger
	cache   *resultCache
}

// NewEngine creates an engine. remover may be nil, in which case every
// request takes the CV failsafe path.
func NewEngine(cfg config.Segment, remover BackgroundRemover, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		remover: remover,
		log:     log,
		cache:   newResultCache(cfg.ResultCacheSize),
	}
}

// Process decodes raw image bytes and segments them. Identical input bytes
// produce identical output; results are cached by content hash. The only
// errors returned are imaging.ErrDecode and ErrNoContours; every other
// internal failure degrades to the original image.
func (e *Engine) Process(data []byte) (*Result, error) {
	key := imaging.ContentHash(data)
	if cached, ok := e.cache.get(key); ok {
		return cached, nil
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	result, err := e.ProcessMat(img)
	if err != nil {
		return nil, err
	}
	e.cache.put(key, result)
	return result, nil
}

// ProcessMat segments a decoded image. Never panics past this boundary: an
// unexpected failure in any stage yields a degraded result carrying the
// original image.
func (e *Engine) ProcessMat(img gocv.Mat) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("segmentation panicked, returning degraded result",
				zap.Any("cause", r))
			result = e.degraded(img)
			err = nil
		}
	}()

	if img.Empty() {
		return e.degraded(img), nil
	}

	// All masking operates on an edge-preserving denoised copy.
	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.BilateralFilter(img, &denoised, e.cfg.BilateralDiameter,
		e.cfg.BilateralSigma, e.cfg.BilateralSigma)

	mask, provenance, err := e.selectMask(denoised)
	if err != nil {
		if errors.Is(err, ErrNoContours) {
			return nil, err
		}
		e.log.Warn("segmentation failed, returning degraded result", zap.Error(err))
		return e.degraded(img), nil
	}
	defer mask.Close()

	standardized, err := e.standardize(denoised, mask)
	if err != nil {
		e.log.Warn("standardization failed, returning degraded result", zap.Error(err))
		return e.degraded(img), nil
	}

	return &Result{
		Mask:         mask.Clone(),
		Provenance:   provenance,
		Standardized: standardized,
	}, nil
}

// selectMask runs the two-path strategy: AI mask with verified refinement
// first, classical failsafe second.
func (e *Engine) selectMask(denoised gocv.Mat) (gocv.Mat, Provenance, error) {
	if e.remover != nil {
		mask, provenance, ok := e.aiPath(denoised)
		if ok {
			return mask, provenance, nil
		}
	}
	return e.failsafePath(denoised)
}

// aiPath obtains the AI alpha mask, validates it, and attempts a verified
// GrabCut refinement. Returns ok=false when the AI path cannot produce a
// usable mask and the failsafe should run instead.
func (e *Engine) aiPath(denoised gocv.Mat) (gocv.Mat, Provenance, bool) {
	alpha, err := e.remover.AlphaMask(denoised)
	if err != nil {
		e.log.Warn("background removal model failed, falling back to CV path",
			zap.Error(err))
		return gocv.NewMat(), "", false
	}
	defer alpha.Close()

	raw := gocv.NewMat()
	gocv.Threshold(alpha, &raw, 0, 255, gocv.ThresholdBinary)

	if !IsMaskValid(raw, e.cfg.MinForegroundRatio) {
		e.log.Debug("AI mask below foreground ratio, falling back to CV path")
		raw.Close()
		return gocv.NewMat(), "", false
	}

	refined, err := refineWithGrabCut(denoised, raw, e.cfg.RefineIterations)
	if err != nil {
		e.log.Debug("mask refinement failed, keeping raw AI mask", zap.Error(err))
		return raw, ProvenanceAIRaw, true
	}

	mask, provenance, iou := verifyRefinement(raw, refined, e.cfg.RefineIoUMin)
	if provenance == ProvenanceAIRaw {
		e.log.Debug("refined mask rejected by IoU gate", zap.Float64("iou", iou))
	}
	return mask, provenance, true
}

// failsafePath builds a mask without any model: Otsu threshold, largest
// external contour, then GrabCut seeded with the contour's bounding
// rectangle. No contours means the image has nothing segmentable and the
// whole pipeline fails for this request.
func (e *Engine) failsafePath(denoised gocv.Mat) (gocv.Mat, Provenance, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(denoised, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(blurred, &binary, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)

	seed, err := contourSeed(binary)
	if err != nil {
		return gocv.NewMat(), "", err
	}

	// Keep the seed strictly inside the image; GrabCut treats everything
	// outside the rectangle as definite background.
	seed = seed.ClampTo(denoised.Cols(), denoised.Rows())

	mask, err := grabCutWithRect(denoised, seed.ToImageRect(), e.cfg.RefineIterations)
	if err != nil {
		return gocv.NewMat(), "", err
	}
	return mask, ProvenanceCVFailsafe, nil
}

// degraded wraps the untouched original image so a preprocessing defect
// never hard-fails a recognition request.
func (e *Engine) degraded(img gocv.Mat) *Result {
	out := &Result{
		Mask:       gocv.NewMat(),
		Provenance: ProvenanceDegraded,
		Degraded:   true,
	}
	if !img.Empty() {
		out.Standardized = img.Clone()
	} else {
		out.Standardized = gocv.NewMat()
	}
	return out
}
