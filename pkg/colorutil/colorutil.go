// Package colorutil provides shared color utilities for the product vision pipeline.
package colorutil

import (
	"math"
)

// Category is one entry of the closed product color vocabulary.
type Category string

// The fixed color vocabulary. Catalog entries and index partitions only ever
// use these values; anything the categorizer cannot place lands in Unknown.
const (
	Red     Category = "red"
	Orange  Category = "orange"
	Yellow  Category = "yellow"
	Green   Category = "green"
	Blue    Category = "blue"
	Purple  Category = "purple"
	Pink    Category = "pink"
	Brown   Category = "brown"
	Black   Category = "black"
	White   Category = "white"
	Gray    Category = "gray"
	Unknown Category = "unknown"
)

// Categories lists the full vocabulary, Unknown last.
var Categories = []Category{
	Red, Orange, Yellow, Green, Blue, Purple, Pink, Brown,
	Black, White, Gray, Unknown,
}

// Valid reports whether c belongs to the vocabulary.
func Valid(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RGBToHSV converts RGB (0-255) to HSV with H in degrees 0-360,
// S and V in 0-255.
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}

// bucketRule maps an HSV predicate to a category. Rules are evaluated in
// order; the first match wins, which makes the precedence between the
// value-based black/white checks and the hue ranges explicit.
type bucketRule struct {
	match    func(h, s, v float64) bool
	category Category
}

// hueIn reports whether h (degrees) falls in [lo, hi), wrapping at 360.
func hueIn(h, lo, hi float64) bool {
	if lo <= hi {
		return h >= lo && h < hi
	}
	return h >= lo || h < hi
}

// bucketRules is ordered: achromatic checks first, then contiguous hue
// ranges covering the full circle. Brown is the dark low-value slice of the
// orange hue range and must precede it.
var bucketRules = []bucketRule{
	{func(h, s, v float64) bool { return v < 50 }, Black},
	{func(h, s, v float64) bool { return s < 30 && v > 200 }, White},
	{func(h, s, v float64) bool { return s < 40 }, Gray},
	{func(h, s, v float64) bool { return hueIn(h, 345, 15) }, Red},
	{func(h, s, v float64) bool { return hueIn(h, 15, 45) && v < 150 }, Brown},
	{func(h, s, v float64) bool { return hueIn(h, 15, 45) }, Orange},
	{func(h, s, v float64) bool { return hueIn(h, 45, 70) }, Yellow},
	{func(h, s, v float64) bool { return hueIn(h, 70, 165) }, Green},
	{func(h, s, v float64) bool { return hueIn(h, 165, 255) }, Blue},
	{func(h, s, v float64) bool { return hueIn(h, 255, 290) }, Purple},
	{func(h, s, v float64) bool { return hueIn(h, 290, 345) }, Pink},
}

// BucketRGB maps an RGB triple (0-255) to its vocabulary category.
func BucketRGB(r, g, b float64) Category {
	h, s, v := RGBToHSV(r, g, b)
	for _, rule := range bucketRules {
		if rule.match(h, s, v) {
			return rule.category
		}
	}
	return Unknown
}
