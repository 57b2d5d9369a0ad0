// Package ocr reads packaging text from product images with Tesseract.
// Packaging prints text both dark-on-light and light-on-dark, often within
// the same label, so recognition runs over several enhancement variants and
// keeps the most productive one.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Engine wraps a Tesseract client configured for packaging text.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates an OCR engine with Turkish and English models loaded.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("tur", "eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr: set language: %w", err)
	}
	return &Engine{client: client}, nil
}

// Close releases Tesseract resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// ReadLabel recognizes text on a product image. Each enhancement variant is
// OCRed separately and the variant yielding the most word characters wins.
func (e *Engine) ReadLabel(img gocv.Mat) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("ocr: empty image")
	}

	variants := enhanceVariants(img)
	defer func() {
		for _, v := range variants {
			v.Close()
		}
	}()

	best := ""
	bestScore := -1
	for _, v := range variants {
		text, err := e.recognize(v)
		if err != nil {
			continue
		}
		if s := wordChars(text); s > bestScore {
			best, bestScore = text, s
		}
	}
	if bestScore < 0 {
		return "", fmt.Errorf("ocr: recognition failed on all variants")
	}
	return best, nil
}

func (e *Engine) recognize(img gocv.Mat) (string, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return "", fmt.Errorf("ocr: encode: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return "", fmt.Errorf("ocr: set psm: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognize: %w", err)
	}
	return cleanText(text), nil
}

// enhanceVariants produces the recognition candidates: a contrast-boosted
// binarization and its inverse. Callers own the returned Mats.
func enhanceVariants(img gocv.Mat) []gocv.Mat {
	scaled := upscale(img)
	defer scaled.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(gray, &enhanced)

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	inverted := gocv.NewMat()
	gocv.BitwiseNot(binary, &inverted)

	return []gocv.Mat{binary, inverted}
}

// upscale enlarges small crops; Tesseract degrades sharply below roughly
// 150px of text height.
func upscale(img gocv.Mat) gocv.Mat {
	minDim := min(img.Rows(), img.Cols())
	if minDim >= 150 {
		return img.Clone()
	}
	scale := 150.0 / float64(minDim)
	scaled := gocv.NewMat()
	gocv.Resize(img, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	return scaled
}

func cleanText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// wordChars counts letters and digits, the signal used to rank variants.
func wordChars(text string) int {
	n := 0
	for _, r := range text {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 127 {
			n++
		}
	}
	return n
}
