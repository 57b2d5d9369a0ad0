// Package quality implements the cheap statistical checks that reject
// unusable photos before the expensive pipeline stages run.
package quality

import (
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"product-vision/internal/config"
)

// Verdict classifies a photo for downstream processing.
type Verdict int

const (
	// Good photos proceed through the full pipeline.
	Good Verdict = iota
	// PoorRecoverable photos continue; downstream correction is expected
	// to partially compensate for the exposure problem.
	PoorRecoverable
	// BadReject photos abort the pipeline; the caller gets the original
	// image back as a degraded result.
	BadReject
)

func (v Verdict) String() string {
	switch v {
	case Good:
		return "good"
	case PoorRecoverable:
		return "poor_recoverable"
	case BadReject:
		return "bad_reject"
	default:
		return "unknown"
	}
}

// Scores records the measurements behind a verdict.
type Scores struct {
	Blur       float64 // variance of the grayscale Laplacian
	Brightness float64 // mean grayscale value
	Contrast   float64 // grayscale standard deviation
}

// Report is the immutable result of a quality assessment.
type Report struct {
	Verdict Verdict
	Scores  Scores
}

// Gate evaluates photos against configured thresholds.
type Gate struct {
	cfg config.Quality
}

// NewGate creates a gate with the given thresholds.
func NewGate(cfg config.Quality) *Gate {
	return &Gate{cfg: cfg}
}

// Assess computes blur, brightness, and contrast scores and applies the
// decision policy in order: blur/contrast rejection first, then exposure.
func (g *Gate) Assess(img gocv.Mat) (Report, error) {
	if img.Empty() {
		return Report{}, fmt.Errorf("quality: empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() == 1 {
		img.CopyTo(&gray)
	} else {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	}

	scores := Scores{
		Blur: laplacianVariance(gray),
	}
	scores.Brightness, scores.Contrast = brightnessStats(gray)

	report := Report{Scores: scores}
	switch {
	case scores.Blur < g.cfg.BlurMin || scores.Contrast < g.cfg.ContrastMin:
		report.Verdict = BadReject
	case scores.Brightness < g.cfg.BrightnessMin || scores.Brightness > g.cfg.BrightnessMax:
		report.Verdict = PoorRecoverable
	default:
		report.Verdict = Good
	}
	return report, nil
}

// laplacianVariance measures focus: a sharp image has strong second-order
// intensity transitions, so the Laplacian response varies widely.
func laplacianVariance(gray gocv.Mat) float64 {
	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	rows, cols := lap.Rows(), lap.Cols()
	values := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			values = append(values, lap.GetDoubleAt(y, x))
		}
	}
	if len(values) < 2 {
		return 0
	}
	return stat.Variance(values, nil)
}

// brightnessStats returns the mean and standard deviation of grayscale
// values. The stddev doubles as the contrast proxy: a flat (all-white,
// all-black) image has zero contrast.
func brightnessStats(gray gocv.Mat) (mean, stddev float64) {
	rows, cols := gray.Rows(), gray.Cols()
	values := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			values = append(values, float64(gray.GetUCharAt(y, x)))
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	stddev = stat.StdDev(values, nil)
	return mean, stddev
}
