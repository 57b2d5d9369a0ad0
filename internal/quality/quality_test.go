package quality

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"product-vision/internal/config"
)

func flatImage(value float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, value, value, 0), 100, 100, gocv.MatTypeCV8UC3)
}

// checkerboard has maximal contrast and strong Laplacian response.
func checkerboard(block int) gocv.Mat {
	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if (x/block+y/block)%2 == 0 {
				for c := 0; c < 3; c++ {
					img.SetUCharAt(y, x*3+c, 255)
				}
			}
		}
	}
	return img
}

func TestAllWhiteRejected(t *testing.T) {
	img := flatImage(255)
	defer img.Close()

	report, err := NewGate(config.Default().Quality).Assess(img)
	require.NoError(t, err)
	require.Equal(t, BadReject, report.Verdict)
	require.InDelta(t, 0.0, report.Scores.Contrast, 1e-9)
	require.InDelta(t, 0.0, report.Scores.Blur, 1e-9)
}

func TestAllBlackRejected(t *testing.T) {
	img := flatImage(0)
	defer img.Close()

	report, err := NewGate(config.Default().Quality).Assess(img)
	require.NoError(t, err)
	require.Equal(t, BadReject, report.Verdict)
}

func TestSharpHighContrastAccepted(t *testing.T) {
	img := checkerboard(10)
	defer img.Close()

	report, err := NewGate(config.Default().Quality).Assess(img)
	require.NoError(t, err)
	require.Equal(t, Good, report.Verdict)
	require.Greater(t, report.Scores.Blur, 45.0)
	require.Greater(t, report.Scores.Contrast, 22.0)
}

func TestDarkImagePoorRecoverable(t *testing.T) {
	// Sharp enough to pass the blur check but underexposed.
	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(0)
			if (x/5+y/5)%2 == 0 {
				v = 70
			}
			for c := 0; c < 3; c++ {
				img.SetUCharAt(y, x*3+c, v)
			}
		}
	}

	report, err := NewGate(config.Default().Quality).Assess(img)
	require.NoError(t, err)
	require.Equal(t, PoorRecoverable, report.Verdict)
	require.Less(t, report.Scores.Brightness, 40.0)
}

func TestEmptyImageErrors(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	_, err := NewGate(config.Default().Quality).Assess(img)
	require.Error(t, err)
}
