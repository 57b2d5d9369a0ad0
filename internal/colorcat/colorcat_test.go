package colorcat

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"product-vision/internal/config"
	"product-vision/pkg/colorutil"
)

func solid(b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), 200, 200, gocv.MatTypeCV8UC3)
}

func TestCategorizeSolidRed(t *testing.T) {
	img := solid(30, 30, 220)
	defer img.Close()

	profile, err := New(config.Default().Color).Categorize(img)
	require.NoError(t, err)
	require.Equal(t, colorutil.Red, profile.Primary)
	require.GreaterOrEqual(t, profile.Confidence, 0.3)
	require.NotEmpty(t, profile.Dominant)
}

func TestCategorizeDeterministic(t *testing.T) {
	// Two-tone image so clustering actually has work to do.
	img := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if x < 100 {
				img.SetUCharAt(y, x*3+2, 210) // red half
				img.SetUCharAt(y, x*3+1, 40)
				img.SetUCharAt(y, x*3+0, 40)
			} else {
				img.SetUCharAt(y, x*3+2, 40) // blue half
				img.SetUCharAt(y, x*3+1, 50)
				img.SetUCharAt(y, x*3+0, 200)
			}
		}
	}

	cat := New(config.Default().Color)
	first, err := cat.Categorize(img)
	require.NoError(t, err)
	second, err := cat.Categorize(img)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestCategorizeEmptyImageErrors(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	_, err := New(config.Default().Color).Categorize(img)
	require.Error(t, err)
}

func TestKmeansDeterministicForSeed(t *testing.T) {
	pixels := make([][3]float64, 0, 300)
	for i := 0; i < 100; i++ {
		pixels = append(pixels, [3]float64{200, 10, 10})
		pixels = append(pixels, [3]float64{10, 200, 10})
		pixels = append(pixels, [3]float64{10, 10, 200})
	}

	a := kmeans(pixels, 3, 42)
	b := kmeans(pixels, 3, 42)
	require.Equal(t, a, b)
	require.Len(t, a, 3)
}

func TestKmeansFewerPixelsThanK(t *testing.T) {
	pixels := [][3]float64{{1, 2, 3}, {4, 5, 6}}
	clusters := kmeans(pixels, 5, 42)
	require.Len(t, clusters, 2)
}

func TestVoteSingleCluster(t *testing.T) {
	cat := New(config.Default().Color)

	profile := cat.vote([]cluster{{center: [3]float64{220, 20, 20}, size: 100}})
	require.Equal(t, colorutil.Red, profile.Primary)
	require.InDelta(t, 1.0, profile.Confidence, 1e-9)
	require.Equal(t, colorutil.Category(""), profile.Secondary)
}

func TestVoteSecondary(t *testing.T) {
	cat := New(config.Default().Color)

	profile := cat.vote([]cluster{
		{center: [3]float64{220, 20, 20}, size: 100}, // red
		{center: [3]float64{20, 200, 20}, size: 60},  // green
	})
	require.Equal(t, colorutil.Red, profile.Primary)
	require.Equal(t, colorutil.Green, profile.Secondary)
}
