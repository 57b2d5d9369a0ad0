// Package imaging provides image decoding, Mat conversion, and content hashing.
package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/tiff"
)

// ErrDecode is returned when input bytes are not a decodable image.
var ErrDecode = fmt.Errorf("imaging: undecodable image data")

// Decode converts raw image bytes into a BGR color Mat. Formats the OpenCV
// build lacks (notably TIFF) fall back to the registered Go decoders.
func Decode(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if err == nil {
		mat.Close()
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.NewMat(), ErrDecode
	}
	converted, err := ToMat(img)
	if err != nil {
		return gocv.NewMat(), ErrDecode
	}
	return converted, nil
}

// LoadFile reads and decodes an image file into a BGR color Mat.
func LoadFile(path string) (gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("imaging: read %s: %w", path, err)
	}
	return Decode(data)
}

// ContentHash returns the hex SHA-256 of raw image bytes. Used to key the
// segmentation result cache so repeated uploads of the same photo skip the
// expensive pipeline.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ToMat converts a Go image.Image to a BGR Mat.
func ToMat(srcImg image.Image) (gocv.Mat, error) {
	bounds := srcImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("imaging: empty image bounds")
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := srcImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}

// MeanChannelAt returns the mean of the three BGR channels for the pixel at
// (x, y) in a CV8UC3 Mat.
func MeanChannelAt(mat gocv.Mat, x, y int) float64 {
	b := float64(mat.GetUCharAt(y, x*3+0))
	g := float64(mat.GetUCharAt(y, x*3+1))
	r := float64(mat.GetUCharAt(y, x*3+2))
	return (b + g + r) / 3.0
}
