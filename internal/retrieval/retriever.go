package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"journal/internal/domain"
	"journal/internal/vectorstore/memory"
)

const (
	DefaultTopK        = 5
	DefaultConcurrency = 4
)

// Options tunes index construction and retrieval.
type Options struct {
	TopK        int
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Retriever answers nearest-neighbour queries over one request's documents.
type Retriever struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	topK     int
}

// Build embeds every document and returns a Retriever over a fresh in-memory
// index. Documents are embedded concurrently, bounded by opts.Concurrency;
// the first failure cancels the remaining calls. A StatefulEmbedder is
// replaced by a fresh copy owned by the returned Retriever.
func Build(ctx context.Context, embedder domain.Embedder, docs []domain.RetrievalDocument, opts Options) (*Retriever, error) {
	opts = opts.withDefaults()
	if se, ok := embedder.(domain.StatefulEmbedder); ok {
		embedder = se.Fresh()
	}
	r := &Retriever{embedder: embedder, index: memory.NewIndex(), topK: opts.TopK}
	if len(docs) == 0 {
		return r, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	if err := embedder.Prepare(ctx, texts); err != nil {
		return nil, domain.NewServiceError(embedder.Name(), "prepare", err)
	}

	vectors := make([][]float64, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range texts {
		g.Go(func() error {
			v, err := embedder.Embed(gctx, texts[i])
			if err != nil {
				return domain.NewServiceError(embedder.Name(), fmt.Sprintf("embed document %d", i), err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := r.index.Upsert(docs, vectors); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return r, nil
}

// Len returns the number of indexed documents.
func (r *Retriever) Len() int { return r.index.Len() }

// Retrieve returns the k documents most similar to query. A non-positive k
// uses the retriever's default.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		k = r.topK
	}
	if r.index.Len() == 0 {
		return []domain.ScoredDocument{}, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewServiceError(r.embedder.Name(), "embed query", err)
	}
	res, err := r.index.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return res, nil
}
