package identify

import (
	"sort"

	"product-vision/internal/feature"
	"product-vision/internal/index"
)

// Candidate is a neighbor augmented with its catalog name and scores.
type Candidate struct {
	ProductID int64
	Name      string
	Visual    float64
	Text      float64
	Combined  float64
}

// RerankWithText re-scores search neighbors by blending visual similarity
// with the cosine between the query label text and each product name.
// When the encoder fails on the query, or the query text is empty, the
// visual ordering is kept with Combined = Visual.
func (id *Identifier) RerankWithText(neighbors []index.Neighbor, queryText string, enc feature.SentenceEncoder, nameOf func(productID int64) string) []Candidate {
	candidates := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		candidates = append(candidates, Candidate{
			ProductID: n.ProductID,
			Name:      nameOf(n.ProductID),
			Visual:    id.Similarity(n.Distance),
		})
	}

	var queryVec []float32
	if queryText != "" && enc != nil {
		if vec, err := enc.Encode(queryText); err == nil {
			queryVec = vec
		}
	}

	for i := range candidates {
		c := &candidates[i]
		if queryVec != nil && c.Name != "" {
			if nameVec, err := enc.Encode(c.Name); err == nil {
				c.Text = feature.CosineSimilarity(queryVec, nameVec)
			}
		}
		if queryVec == nil {
			c.Combined = c.Visual
		} else {
			c.Combined = id.cfg.VisualWeight*c.Visual + id.cfg.TextWeight*c.Text
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Combined > candidates[j].Combined
	})
	return candidates
}
