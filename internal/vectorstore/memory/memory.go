package memory

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"journal/internal/domain"
)

// Index is a request-scoped in-memory vector index using brute-force cosine
// similarity. It is owned by a single request and is not safe for concurrent
// writes.
type Index struct {
	dimension int
	vectors   [][]float64
	norms     []float64
	docs      []domain.RetrievalDocument
}

func NewIndex() *Index { return &Index{} }

// Upsert appends documents with their vectors. All vectors must share the
// dimension of the first vector ever added.
func (s *Index) Upsert(docs []domain.RetrievalDocument, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return errors.New("documents and vectors length mismatch")
	}
	dim := s.dimension
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("empty vector for document %d", i)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), dim)
		}
	}
	s.dimension = dim
	for i := range vectors {
		s.docs = append(s.docs, docs[i])
		s.vectors = append(s.vectors, vectors[i])
		s.norms = append(s.norms, norm(vectors[i]))
	}
	return nil
}

// Search returns up to topK documents ordered by cosine similarity, highest
// first. Equal scores keep insertion order.
func (s *Index) Search(vector []float64, topK int) ([]domain.ScoredDocument, error) {
	if topK <= 0 {
		topK = 5
	}
	if len(s.vectors) == 0 {
		return []domain.ScoredDocument{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(vector), s.dimension)
	}

	qn := norm(vector)
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], s.norms[i], vector, qn)
	}

	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.ScoredDocument, 0, topK)
	for rank := 0; rank < topK; rank++ {
		j := idxs[rank]
		results = append(results, domain.ScoredDocument{Document: s.docs[j], Score: scores[j], Rank: rank})
	}
	return results, nil
}

// Len returns the number of indexed documents.
func (s *Index) Len() int { return len(s.docs) }

func cosine(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	return dot(a, b) / (an * bn)
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return vals[idxs[i]] > vals[idxs[j]] })
	return idxs
}
