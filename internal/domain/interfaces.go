package domain

import "context"

// ModelTier selects the capability class of a language model without naming a model.
type ModelTier int

const (
	// TierFast is the cheap, low-latency tier used for extraction and repair.
	TierFast ModelTier = iota
	// TierCapable is the larger tier used for answer synthesis.
	TierCapable
)

func (t ModelTier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierCapable:
		return "capable"
	default:
		return "unknown"
	}
}

// CompletionRequest is a single prompt sent to a language model.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	Tier        ModelTier
}

// Completer turns a prompt into raw model text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f(ctx, req).
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus and
// must allow concurrent Embed calls once prepared.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Embed(ctx context.Context, text string) ([]float64, error)
}

// StatefulEmbedder is an Embedder whose Prepare fits per-corpus state.
// Fresh returns an unprepared copy so each request fits its own state.
type StatefulEmbedder interface {
	Embedder
	Fresh() Embedder
}

// VectorIndex holds document vectors and supports similarity search.
type VectorIndex interface {
	Upsert(docs []RetrievalDocument, vectors [][]float64) error
	Search(vector []float64, topK int) ([]ScoredDocument, error)
	Len() int
}

// Analyzer extracts a SentimentRecord from entry content.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (SentimentRecord, error)
}

// Answerer answers questions over a collection of entries. It never fails.
type Answerer interface {
	Ask(ctx context.Context, question string, entries []JournalEntry) AnswerRecord
}
