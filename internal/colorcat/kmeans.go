package colorcat

import (
	"math/rand"
	"sort"
)

// cluster is one k-means cluster: its RGB centroid and member count.
type cluster struct {
	center [3]float64
	size   int
}

const kmeansMaxIterations = 20

// kmeans runs seeded Lloyd iterations over RGB pixels and returns clusters
// ordered by size, largest first. A fixed seed makes the result
// reproducible for identical input.
func kmeans(pixels [][3]float64, k int, seed int64) []cluster {
	if k <= 0 || len(pixels) == 0 {
		return nil
	}
	if k > len(pixels) {
		k = len(pixels)
	}

	rng := rand.New(rand.NewSource(seed))

	// Initialize centers on k distinct pixels.
	centers := make([][3]float64, k)
	for i, idx := range rng.Perm(len(pixels))[:k] {
		centers[i] = pixels[idx]
	}

	assignments := make([]int, len(pixels))
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, px := range pixels {
			best := nearestCenter(px, centers)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		// Recompute centroids; an emptied cluster is reseeded on a
		// random pixel so k is preserved.
		sums := make([][3]float64, k)
		counts := make([]int, k)
		for i, px := range pixels {
			c := assignments[i]
			sums[c][0] += px[0]
			sums[c][1] += px[1]
			sums[c][2] += px[2]
			counts[c]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				centers[c] = pixels[rng.Intn(len(pixels))]
				changed = true
				continue
			}
			n := float64(counts[c])
			centers[c] = [3]float64{sums[c][0] / n, sums[c][1] / n, sums[c][2] / n}
		}

		if !changed && iter > 0 {
			break
		}
	}

	counts := make([]int, k)
	for _, c := range assignments {
		counts[c]++
	}

	clusters := make([]cluster, 0, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		clusters = append(clusters, cluster{center: centers[c], size: counts[c]})
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].size > clusters[j].size
	})
	return clusters
}

func nearestCenter(px [3]float64, centers [][3]float64) int {
	best := 0
	bestDist := sqDist(px, centers[0])
	for i := 1; i < len(centers); i++ {
		if d := sqDist(px, centers[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func sqDist(a, b [3]float64) float64 {
	d0 := a[0] - b[0]
	d1 := a[1] - b[1]
	d2 := a[2] - b[2]
	return d0*d0 + d1*d1 + d2*d2
}
