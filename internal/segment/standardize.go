package segment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// standardize isolates the masked foreground, color-corrects it, and
// composites it onto a square white canvas sized to the mask bounding box
// plus the configured border, downscaled to the configured max dimension.
func (e *Engine) standardize(denoised, mask gocv.Mat) (gocv.Mat, error) {
	bbox, found := maskBoundingBox(mask)
	if !found {
		return gocv.NewMat(), fmt.Errorf("segment: mask has no foreground")
	}

	// Foreground isolated, background zeroed.
	isolated := gocv.NewMatWithSize(denoised.Rows(), denoised.Cols(), gocv.MatTypeCV8UC3)
	defer isolated.Close()
	denoised.CopyToWithMask(&isolated, mask)

	balanced := grayWorldBalance(isolated, mask)
	defer balanced.Close()

	corrected := equalizeLuminance(balanced)
	defer corrected.Close()

	// Square white canvas: product centered, at least BorderPx of border.
	side := bbox.Width
	if bbox.Height > side {
		side = bbox.Height
	}
	side += 2 * e.cfg.BorderPx

	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0),
		side, side, gocv.MatTypeCV8UC3)

	ox := (side - bbox.Width) / 2
	oy := (side - bbox.Height) / 2

	srcRegion := corrected.Region(bbox.ToImageRect())
	maskRegion := mask.Region(bbox.ToImageRect())
	dstRegion := canvas.Region(image.Rect(ox, oy, ox+bbox.Width, oy+bbox.Height))
	srcRegion.CopyToWithMask(&dstRegion, maskRegion)
	dstRegion.Close()
	maskRegion.Close()
	srcRegion.Close()

	if side > e.cfg.MaxDimension {
		resized := gocv.NewMat()
		gocv.Resize(canvas, &resized, image.Pt(e.cfg.MaxDimension, e.cfg.MaxDimension),
			0, 0, gocv.InterpolationArea)
		canvas.Close()
		return resized, nil
	}
	return canvas, nil
}

// grayWorldBalance applies gray-world automatic white balance using only
// foreground pixels for the channel statistics, so the zeroed background
// cannot skew the correction.
func grayWorldBalance(img, mask gocv.Mat) gocv.Mat {
	rows, cols := img.Rows(), img.Cols()

	var sumB, sumG, sumR float64
	var count int
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			sumB += float64(img.GetUCharAt(y, x*3+0))
			sumG += float64(img.GetUCharAt(y, x*3+1))
			sumR += float64(img.GetUCharAt(y, x*3+2))
			count++
		}
	}

	out := img.Clone()
	if count == 0 {
		return out
	}

	meanB := sumB / float64(count)
	meanG := sumG / float64(count)
	meanR := sumR / float64(count)
	grayMean := (meanB + meanG + meanR) / 3.0
	if meanB == 0 || meanG == 0 || meanR == 0 {
		return out
	}

	scaleB := grayMean / meanB
	scaleG := grayMean / meanG
	scaleR := grayMean / meanR

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			out.SetUCharAt(y, x*3+0, scaleByte(img.GetUCharAt(y, x*3+0), scaleB))
			out.SetUCharAt(y, x*3+1, scaleByte(img.GetUCharAt(y, x*3+1), scaleG))
			out.SetUCharAt(y, x*3+2, scaleByte(img.GetUCharAt(y, x*3+2), scaleR))
		}
	}
	return out
}

func scaleByte(v uint8, scale float64) uint8 {
	scaled := float64(v) * scale
	if scaled > 255 {
		return 255
	}
	return uint8(scaled + 0.5)
}

// equalizeLuminance applies contrast-limited adaptive histogram equalization
// to the L channel in Lab space, leaving chromaticity untouched.
func equalizeLuminance(img gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(channels[0], &equalized)
	equalized.CopyTo(&channels[0])

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorLabToBGR)
	return out
}
