package colorutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketRGBPrimaries(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b float64
		want    Category
	}{
		{"pure red", 220, 20, 20, Red},
		{"pure green", 20, 200, 30, Green},
		{"pure blue", 30, 40, 210, Blue},
		{"yellow", 230, 220, 30, Yellow},
		{"orange", 240, 130, 20, Orange},
		{"near black", 20, 20, 20, Black},
		{"near white", 250, 250, 250, White},
		{"mid gray", 128, 128, 128, Gray},
		{"brown", 120, 70, 30, Brown},
		{"pink", 240, 100, 200, Pink},
		{"purple", 140, 40, 200, Purple},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, BucketRGB(tc.r, tc.g, tc.b))
		})
	}
}

func TestHueWrapsAroundRed(t *testing.T) {
	// Reds sit on both sides of the 0/360 hue seam.
	require.Equal(t, Red, BucketRGB(200, 30, 40))
	require.Equal(t, Red, BucketRGB(200, 40, 30))
}

func TestRGBToHSVRanges(t *testing.T) {
	h, s, v := RGBToHSV(255, 0, 0)
	require.InDelta(t, 0.0, h, 0.5)
	require.InDelta(t, 255.0, s, 0.5)
	require.InDelta(t, 255.0, v, 0.5)

	h, _, _ = RGBToHSV(0, 255, 0)
	require.InDelta(t, 120.0, h, 0.5)

	h, _, _ = RGBToHSV(0, 0, 255)
	require.InDelta(t, 240.0, h, 0.5)
}

func TestValid(t *testing.T) {
	for _, c := range Categories {
		require.True(t, Valid(c))
	}
	require.False(t, Valid(Category("magenta")))
	require.False(t, Valid(Category("")))
}
