package segment

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// halfMask covers the left half of a 100x100 frame.
func halfMask() gocv.Mat {
	mask := gocv.Zeros(100, 100, gocv.MatTypeCV8U)
	for y := 0; y < 100; y++ {
		for x := 0; x < 50; x++ {
			mask.SetUCharAt(y, x, 255)
		}
	}
	return mask
}

func TestIsMaskValid(t *testing.T) {
	zero := gocv.Zeros(100, 100, gocv.MatTypeCV8U)
	defer zero.Close()
	require.False(t, IsMaskValid(zero, 0.03))

	half := halfMask()
	defer half.Close()
	require.True(t, IsMaskValid(half, 0.03))
}

func TestIoUSelfIsOne(t *testing.T) {
	mask := halfMask()
	defer mask.Close()
	require.InDelta(t, 1.0, CalculateIoU(mask, mask), 1e-9)
}

func TestIoUComplementIsZero(t *testing.T) {
	mask := halfMask()
	defer mask.Close()

	complement := gocv.NewMat()
	defer complement.Close()
	gocv.BitwiseNot(mask, &complement)

	require.InDelta(t, 0.0, CalculateIoU(mask, complement), 1e-9)
}

func TestVerifyRefinementAcceptsAgreement(t *testing.T) {
	raw := halfMask()
	refined := raw.Clone()

	mask, provenance, iou := verifyRefinement(raw, refined, 0.80)
	defer mask.Close()

	require.Equal(t, ProvenanceAIRefined, provenance)
	require.InDelta(t, 1.0, iou, 1e-9)
}

func TestVerifyRefinementRejectsDisagreement(t *testing.T) {
	raw := halfMask()
	refined := gocv.NewMat()
	gocv.BitwiseNot(raw, &refined)

	// Disjoint refinement: the gate keeps the raw mask.
	mask, provenance, iou := verifyRefinement(raw, refined, 0.80)
	defer mask.Close()

	require.Equal(t, ProvenanceAIRaw, provenance)
	require.InDelta(t, 0.0, iou, 1e-9)
	require.Equal(t, 100*100/2, gocv.CountNonZero(mask))
}

func TestContourSeedLargestRect(t *testing.T) {
	binary := gocv.Zeros(100, 100, gocv.MatTypeCV8U)
	defer binary.Close()
	for y := 20; y < 40; y++ {
		for x := 30; x < 70; x++ {
			binary.SetUCharAt(y, x, 255)
		}
	}

	seed, err := contourSeed(binary)
	require.NoError(t, err)
	require.Equal(t, 30, seed.X)
	require.Equal(t, 20, seed.Y)
	require.Equal(t, 40, seed.Width)
	require.Equal(t, 20, seed.Height)
}

func TestContourSeedBlankMask(t *testing.T) {
	binary := gocv.Zeros(50, 50, gocv.MatTypeCV8U)
	defer binary.Close()

	_, err := contourSeed(binary)
	require.ErrorIs(t, err, ErrNoContours)
}

func TestMaskBoundingBox(t *testing.T) {
	mask := gocv.Zeros(100, 100, gocv.MatTypeCV8U)
	defer mask.Close()
	for y := 20; y < 40; y++ {
		for x := 30; x < 70; x++ {
			mask.SetUCharAt(y, x, 255)
		}
	}

	box, ok := maskBoundingBox(mask)
	require.True(t, ok)
	require.Equal(t, 30, box.X)
	require.Equal(t, 20, box.Y)
	require.Equal(t, 40, box.Width)
	require.Equal(t, 20, box.Height)

	empty := gocv.Zeros(10, 10, gocv.MatTypeCV8U)
	defer empty.Close()
	_, ok = maskBoundingBox(empty)
	require.False(t, ok)
}
