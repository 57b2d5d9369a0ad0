// Package index implements an exact-search similarity index partitioned by
// color category. Each partition holds the embeddings of one color bucket;
// queries scan only the partitions named by the caller, which keeps the
// candidate set small without approximate structures.
package index

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"product-vision/pkg/colorutil"
)

// Neighbor is one search hit: a catalog product and its L2 distance to the
// query embedding.
type Neighbor struct {
	ProductID int64
	Distance  float64
}

// Snapshot is one indexable record from the catalog.
type Snapshot struct {
	ProductID int64
	Embedding []float32
	Color     colorutil.Category
}

// SnapshotSource streams the full set of indexable products, used by
// Rebuild to reconstruct all partitions from persistent storage.
type SnapshotSource interface {
	Snapshots() ([]Snapshot, error)
}

type entry struct {
	productID int64
	embedding []float64
}

type partition struct {
	entries []entry
}

// Index is the color-partitioned flat index. All methods are safe for
// concurrent use; Rebuild swaps the partition map atomically so searches
// never observe a half-built index.
type Index struct {
	mu         sync.RWMutex
	partitions map[colorutil.Category]*partition
	dim        int
	log        *zap.Logger
}

// New creates an empty index for embeddings of the given length.
func New(dim int, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{
		partitions: make(map[colorutil.Category]*partition),
		dim:        dim,
		log:        log,
	}
}

// Add inserts one embedding into the partition for its color. Invalid or
// unrecognized colors land in the Unknown partition so the product stays
// findable by broad searches.
func (ix *Index) Add(productID int64, embedding []float32, color colorutil.Category) error {
	if len(embedding) != ix.dim {
		return fmt.Errorf("index: embedding length %d, want %d", len(embedding), ix.dim)
	}
	if !colorutil.Valid(color) {
		ix.log.Debug("indexing under unknown color", zap.Int64("product_id", productID), zap.String("color", string(color)))
		color = colorutil.Unknown
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	p := ix.partitions[color]
	if p == nil {
		p = &partition{}
		ix.partitions[color] = p
	}
	p.entries = append(p.entries, entry{productID: productID, embedding: toFloat64(embedding)})
	return nil
}

// Search returns up to k nearest neighbors of query across the named
// partitions, sorted by ascending distance. A product present in several
// partitions is reported once with its lowest distance. Empty or missing
// partitions contribute nothing; an entirely empty selection yields an
// empty slice, not an error.
func (ix *Index) Search(query []float32, categories []colorutil.Category, k int) ([]Neighbor, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("index: query length %d, want %d", len(query), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	q := toFloat64(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	best := make(map[int64]float64)
	for _, cat := range categories {
		p := ix.partitions[cat]
		if p == nil {
			continue
		}
		for _, e := range p.entries {
			d := floats.Distance(q, e.embedding, 2)
			if prev, ok := best[e.productID]; !ok || d < prev {
				best[e.productID] = d
			}
		}
	}

	neighbors := make([]Neighbor, 0, len(best))
	for id, d := range best {
		neighbors = append(neighbors, Neighbor{ProductID: id, Distance: d})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].ProductID < neighbors[j].ProductID
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// SearchAll searches every partition, including Unknown.
func (ix *Index) SearchAll(query []float32, k int) ([]Neighbor, error) {
	return ix.Search(query, colorutil.Categories, k)
}

// Rebuild reconstructs all partitions from src and swaps them in atomically.
// On source error the existing partitions are left untouched.
func (ix *Index) Rebuild(src SnapshotSource) error {
	snaps, err := src.Snapshots()
	if err != nil {
		return fmt.Errorf("index: rebuild: %w", err)
	}

	fresh := make(map[colorutil.Category]*partition)
	skipped := 0
	for _, s := range snaps {
		if len(s.Embedding) != ix.dim {
			skipped++
			continue
		}
		color := s.Color
		if !colorutil.Valid(color) {
			color = colorutil.Unknown
		}
		p := fresh[color]
		if p == nil {
			p = &partition{}
			fresh[color] = p
		}
		p.entries = append(p.entries, entry{productID: s.ProductID, embedding: toFloat64(s.Embedding)})
	}

	ix.mu.Lock()
	ix.partitions = fresh
	ix.mu.Unlock()

	if skipped > 0 {
		ix.log.Warn("rebuild skipped records with wrong embedding length", zap.Int("skipped", skipped))
	}
	ix.log.Info("index rebuilt", zap.Int("records", len(snaps)-skipped), zap.Int("partitions", len(fresh)))
	return nil
}

// Size returns the total number of indexed embeddings.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, p := range ix.partitions {
		n += len(p.entries)
	}
	return n
}

// PartitionSizes reports the entry count per color partition.
func (ix *Index) PartitionSizes() map[colorutil.Category]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	sizes := make(map[colorutil.Category]int, len(ix.partitions))
	for cat, p := range ix.partitions {
		sizes[cat] = len(p.entries)
	}
	return sizes
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
