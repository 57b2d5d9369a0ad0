// Package geometry provides the integer rectangle type used by the
// segmentation engine.
package geometry

import "image"

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromImageRect converts an image.Rectangle to a RectInt.
func FromImageRect(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ToImageRect converts to the standard library rectangle type.
func (r RectInt) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Pad grows the rectangle by margin on every side, clamped to [0,0)-(maxW,maxH).
func (r RectInt) Pad(margin, maxW, maxH int) RectInt {
	x1 := Clamp(r.X-margin, 0, maxW)
	y1 := Clamp(r.Y-margin, 0, maxH)
	x2 := Clamp(r.X+r.Width+margin, 0, maxW)
	y2 := Clamp(r.Y+r.Height+margin, 0, maxH)
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// ClampTo restricts the rectangle to [0,0)-(maxW,maxH).
func (r RectInt) ClampTo(maxW, maxH int) RectInt {
	return r.Pad(0, maxW, maxH)
}

// Clamp restricts v to the range [minVal, maxVal].
func Clamp(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
