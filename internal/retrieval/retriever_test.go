package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal/internal/domain"
)

// keywordEmbedder counts occurrences of a fixed vocabulary.
type keywordEmbedder struct {
	vocab    []string
	prepared atomic.Int32
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	failOn   string
}

func (e *keywordEmbedder) Name() string { return "keyword" }

func (e *keywordEmbedder) Prepare(_ context.Context, _ []string) error {
	e.prepared.Add(1)
	return nil
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		m := e.maxSeen.Load()
		if n <= m || e.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("boom")
	}
	lower := strings.ToLower(text)
	v := make([]float64, len(e.vocab))
	for i, w := range e.vocab {
		v[i] = float64(strings.Count(lower, w))
	}
	return v, nil
}

func docs(texts ...string) []domain.RetrievalDocument {
	out := make([]domain.RetrievalDocument, len(texts))
	for i, t := range texts {
		out[i] = domain.RetrievalDocument{Text: t, Metadata: domain.DocumentMetadata{SourceEntryID: fmt.Sprint(i)}}
	}
	return out
}

func TestRetrieve_topFiveOfTen(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{vocab: []string{"park", "work", "rain"}}
	input := docs(
		"park park park",
		"work",
		"park rain",
		"rain rain",
		"work work park",
		"park",
		"rain work",
		"park park",
		"work rain rain",
		"park work rain",
	)

	r, err := Build(context.Background(), emb, input, Options{})
	require.NoError(t, err)
	assert.Equal(t, 10, r.Len())
	assert.EqualValues(t, 1, emb.prepared.Load())

	res, err := r.Retrieve(context.Background(), "the park", 5)
	require.NoError(t, err)
	require.Len(t, res, 5)

	inputIDs := map[string]bool{}
	for _, d := range input {
		inputIDs[d.Metadata.SourceEntryID] = true
	}
	for i, sd := range res {
		assert.True(t, inputIDs[sd.Document.Metadata.SourceEntryID])
		assert.Equal(t, i, sd.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, res[i-1].Score, sd.Score)
		}
	}
	// pure "park" documents score 1 and keep input order among themselves.
	assert.Equal(t, "0", res[0].Document.Metadata.SourceEntryID)
	assert.Equal(t, "5", res[1].Document.Metadata.SourceEntryID)
	assert.Equal(t, "7", res[2].Document.Metadata.SourceEntryID)
}

func TestRetrieve_defaultK(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{vocab: []string{"a", "b"}}
	input := docs("a", "b", "a b", "a a", "b b", "a b b", "b a a")
	r, err := Build(context.Background(), emb, input, Options{})
	require.NoError(t, err)

	res, err := r.Retrieve(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Len(t, res, DefaultTopK)
}

func TestBuild_emptyDocumentsNeverEmbeds(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{vocab: []string{"a"}}
	r, err := Build(context.Background(), emb, nil, Options{})
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	res, err := r.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Zero(t, emb.calls.Load())
	assert.Zero(t, emb.prepared.Load())
}

func TestBuild_boundedConcurrency(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{vocab: []string{"x"}, delay: 10 * time.Millisecond}
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = "x"
	}
	_, err := Build(context.Background(), emb, docs(texts...), Options{Concurrency: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 12, emb.calls.Load())
	assert.LessOrEqual(t, emb.maxSeen.Load(), int32(3))
}

func TestBuild_embedFailureIsServiceError(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{vocab: []string{"x"}, failOn: "bad"}
	_, err := Build(context.Background(), emb, docs("x", "bad entry", "x"), Options{Concurrency: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestBuild_cancelled(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{vocab: []string{"x"}, delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Build(ctx, emb, docs("x", "x", "x"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

type failingPrepare struct{ keywordEmbedder }

func (f *failingPrepare) Prepare(context.Context, []string) error { return errors.New("no tokens") }

func TestBuild_prepareFailure(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), &failingPrepare{}, docs("x"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

// statefulEmbedder hands out fresh copies and records how many were made.
type statefulEmbedder struct {
	keywordEmbedder
	fresh *atomic.Int32
}

func (e *statefulEmbedder) Fresh() domain.Embedder {
	e.fresh.Add(1)
	return &keywordEmbedder{vocab: e.vocab}
}

func TestBuild_usesFreshStatefulEmbedder(t *testing.T) {
	t.Parallel()

	var fresh atomic.Int32
	emb := &statefulEmbedder{keywordEmbedder: keywordEmbedder{vocab: []string{"park"}}, fresh: &fresh}
	r, err := Build(context.Background(), emb, docs("park", "rain"), Options{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fresh.Load())
	assert.Zero(t, emb.prepared.Load(), "shared embedder is never prepared")
	assert.Zero(t, emb.calls.Load())

	res, err := r.Retrieve(context.Background(), "park", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Zero(t, emb.calls.Load(), "queries go to the fresh copy")
}
