package segment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"product-vision/pkg/geometry"
)

// GrabCut pixel classes (OpenCV convention).
const (
	gcBackground         = 0
	gcForeground         = 1
	gcProbableBackground = 2
	gcProbableForeground = 3
)

// IsMaskValid reports whether the mask covers enough of the frame to
// plausibly be a product. All-zero masks and slivers fail.
func IsMaskValid(mask gocv.Mat, minForegroundRatio float64) bool {
	if mask.Empty() {
		return false
	}
	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return false
	}
	foreground := gocv.CountNonZero(mask)
	return float64(foreground)/float64(total) > minForegroundRatio
}

// CalculateIoU returns the Intersection-over-Union of two binary masks.
// Identical non-empty masks score 1.0; disjoint masks score 0.0.
func CalculateIoU(a, b gocv.Mat) float64 {
	if a.Empty() || b.Empty() || a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return 0
	}

	intersection := gocv.NewMat()
	defer intersection.Close()
	gocv.BitwiseAnd(a, b, &intersection)

	union := gocv.NewMat()
	defer union.Close()
	gocv.BitwiseOr(a, b, &union)

	unionCount := gocv.CountNonZero(union)
	if unionCount == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(intersection)) / float64(unionCount)
}

// verifyRefinement decides between a raw AI mask and its refinement: a
// refinement that disagrees too much with the mask it started from is more
// likely to have destroyed it than to have improved it, so it is kept only
// when its IoU with the raw mask clears minIoU. The losing mask is closed.
func verifyRefinement(raw, refined gocv.Mat, minIoU float64) (gocv.Mat, Provenance, float64) {
	iou := CalculateIoU(raw, refined)
	if iou > minIoU {
		raw.Close()
		return refined, ProvenanceAIRefined, iou
	}
	refined.Close()
	return raw, ProvenanceAIRaw, iou
}

// contourSeed finds the bounding rectangle of the largest external contour
// in a binary mask. An image with no contours has nothing segmentable.
func contourSeed(binary gocv.Mat) (geometry.RectInt, error) {
	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	seed, found := largestContourRect(contours)
	if !found {
		return geometry.RectInt{}, ErrNoContours
	}
	return seed, nil
}

// refineWithGrabCut seeds the energy minimization solver with the raw mask
// as a prior: definite background where the mask is empty, probable
// foreground where it is set. Returns the refined 0/255 mask.
func refineWithGrabCut(img gocv.Mat, raw gocv.Mat, iterations int) (result gocv.Mat, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("segment: grabcut refinement: %v", r)
		}
	}()

	rows, cols := raw.Rows(), raw.Cols()
	gcMask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	defer gcMask.Close()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if raw.GetUCharAt(y, x) == 0 {
				gcMask.SetUCharAt(y, x, gcBackground)
			} else {
				gcMask.SetUCharAt(y, x, gcProbableForeground)
			}
		}
	}

	bgModel := gocv.NewMat()
	defer bgModel.Close()
	fgModel := gocv.NewMat()
	defer fgModel.Close()

	gocv.GrabCut(img, &gcMask, image.Rect(0, 0, 0, 0), &bgModel, &fgModel,
		iterations, gocv.GCInitWithMask)

	return binaryFromGrabCut(gcMask), nil
}

// grabCutWithRect runs the solver in rectangle-init mode with no mask
// prior: everything outside seed is definite background.
func grabCutWithRect(img gocv.Mat, seed image.Rectangle, iterations int) (result gocv.Mat, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("segment: grabcut rect init: %v", r)
		}
	}()

	gcMask := gocv.NewMatWithSize(img.Rows(), img.Cols(), gocv.MatTypeCV8U)
	defer gcMask.Close()

	bgModel := gocv.NewMat()
	defer bgModel.Close()
	fgModel := gocv.NewMat()
	defer fgModel.Close()

	gocv.GrabCut(img, &gcMask, seed, &bgModel, &fgModel,
		iterations, gocv.GCInitWithRect)

	return binaryFromGrabCut(gcMask), nil
}

// binaryFromGrabCut collapses the four GrabCut classes into a 0/255 mask:
// definite and probable foreground become foreground.
func binaryFromGrabCut(gcMask gocv.Mat) gocv.Mat {
	rows, cols := gcMask.Rows(), gcMask.Cols()
	out := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			switch gcMask.GetUCharAt(y, x) {
			case gcForeground, gcProbableForeground:
				out.SetUCharAt(y, x, 255)
			default:
				out.SetUCharAt(y, x, 0)
			}
		}
	}
	return out
}

// largestContourRect returns the bounding rectangle of the largest contour
// by area, or found=false when there are no contours.
func largestContourRect(contours gocv.PointsVector) (geometry.RectInt, bool) {
	if contours.Size() == 0 {
		return geometry.RectInt{}, false
	}

	bestArea := -1.0
	var bestRect image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area > bestArea {
			bestArea = area
			bestRect = gocv.BoundingRect(c)
		}
	}
	return geometry.FromImageRect(bestRect), true
}

// maskBoundingBox returns the tight bounding box of nonzero mask pixels,
// or found=false for an all-zero mask.
func maskBoundingBox(mask gocv.Mat) (geometry.RectInt, bool) {
	rows, cols := mask.Rows(), mask.Cols()
	minX, minY := cols, rows
	maxX, maxY := -1, -1
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return geometry.RectInt{}, false
	}
	return geometry.RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}, true
}
