// Package colorcat categorizes a standardized product image into the fixed
// color vocabulary by clustering its pixels and voting over the dominant
// clusters.
package colorcat

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"product-vision/internal/config"
	"product-vision/internal/imaging"
	"product-vision/pkg/colorutil"
)

// Profile is the color analysis of one product image.
type Profile struct {
	Primary    colorutil.Category
	Secondary  colorutil.Category // empty when no second category got votes
	Confidence float64            // normalized vote share of the primary, in [0,1]
	Dominant   [][3]uint8         // RGB triples ordered by cluster weight
}

// Categorizer clusters product pixels into dominant colors. Deterministic:
// the k-means seed is fixed by configuration.
type Categorizer struct {
	cfg config.Color
}

// New creates a categorizer.
func New(cfg config.Color) *Categorizer {
	return &Categorizer{cfg: cfg}
}

// Categorize analyzes a standardized BGR image.
func (c *Categorizer) Categorize(img gocv.Mat) (Profile, error) {
	if img.Empty() {
		return Profile{}, fmt.Errorf("colorcat: empty image")
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(img, &small, image.Pt(c.cfg.SampleSize, c.cfg.SampleSize),
		0, 0, gocv.InterpolationArea)

	pixels := c.samplePixels(small)
	if len(pixels) == 0 {
		return Profile{Primary: colorutil.Unknown}, nil
	}

	k := c.cfg.Clusters
	if len(pixels) < k {
		k = len(pixels)
	}

	clusters := kmeans(pixels, k, c.cfg.Seed)
	return c.vote(clusters), nil
}

// samplePixels collects RGB pixels, dropping near-black and near-white ones
// so the padded background does not bias the clustering. If too few pixels
// survive the filter, the unfiltered set is used instead.
func (c *Categorizer) samplePixels(small gocv.Mat) [][3]float64 {
	rows, cols := small.Rows(), small.Cols()
	all := make([][3]float64, 0, rows*cols)
	filtered := make([][3]float64, 0, rows*cols)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			b := float64(small.GetUCharAt(y, x*3+0))
			g := float64(small.GetUCharAt(y, x*3+1))
			r := float64(small.GetUCharAt(y, x*3+2))
			px := [3]float64{r, g, b}
			all = append(all, px)

			mean := imaging.MeanChannelAt(small, x, y)
			if mean >= c.cfg.FilterLow && mean <= c.cfg.FilterHigh {
				filtered = append(filtered, px)
			}
		}
	}

	if len(filtered) < c.cfg.Clusters {
		return all
	}
	return filtered
}

// vote buckets each dominant color and accumulates rank-weighted votes:
// the cluster at rank i contributes 1/(i+1). The primary's normalized vote
// share is the confidence; below the floor the profile degrades to unknown.
func (c *Categorizer) vote(clusters []cluster) Profile {
	profile := Profile{Primary: colorutil.Unknown}
	if len(clusters) == 0 {
		return profile
	}

	votes := make(map[colorutil.Category]float64)
	var totalWeight float64
	for rank, cl := range clusters {
		weight := 1.0 / float64(rank+1)
		category := colorutil.BucketRGB(cl.center[0], cl.center[1], cl.center[2])
		votes[category] += weight
		totalWeight += weight

		profile.Dominant = append(profile.Dominant, [3]uint8{
			clampChannel(cl.center[0]),
			clampChannel(cl.center[1]),
			clampChannel(cl.center[2]),
		})
	}

	var primary, secondary colorutil.Category
	var best, second float64
	for _, category := range colorutil.Categories {
		v, ok := votes[category]
		if !ok {
			continue
		}
		if v > best {
			secondary, second = primary, best
			primary, best = category, v
		} else if v > second {
			secondary, second = category, v
		}
	}

	profile.Confidence = best / totalWeight
	if profile.Confidence < c.cfg.ConfidenceFloor {
		profile.Primary = colorutil.Unknown
		profile.Secondary = ""
		return profile
	}

	profile.Primary = primary
	if second > 0 {
		profile.Secondary = secondary
	}
	return profile
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
