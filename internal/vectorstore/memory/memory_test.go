package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal/internal/domain"
)

func doc(id string) domain.RetrievalDocument {
	return domain.RetrievalDocument{Text: id, Metadata: domain.DocumentMetadata{SourceEntryID: id}}
}

func TestIndex_searchRanksByCosine(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	err := idx.Upsert(
		[]domain.RetrievalDocument{doc("x"), doc("y"), doc("xy")},
		[][]float64{{1, 0}, {0, 1}, {1, 1}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	res, err := idx.Search([]float64{2, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "x", res[0].Document.Metadata.SourceEntryID)
	assert.Equal(t, "xy", res[1].Document.Metadata.SourceEntryID)
	assert.Equal(t, "y", res[2].Document.Metadata.SourceEntryID)
	for i, r := range res {
		assert.Equal(t, i, r.Rank)
	}
	assert.True(t, res[0].Score > res[1].Score && res[1].Score > res[2].Score)
}

func TestIndex_magnitudeDoesNotMatter(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	require.NoError(t, idx.Upsert(
		[]domain.RetrievalDocument{doc("long"), doc("aligned")},
		[][]float64{{100, 60}, {0.1, 0.1}},
	))
	res, err := idx.Search([]float64{1, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "aligned", res[0].Document.Metadata.SourceEntryID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestIndex_tiesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	docs := make([]domain.RetrievalDocument, 8)
	vecs := make([][]float64, 8)
	for i := range docs {
		docs[i] = doc(fmt.Sprintf("d%d", i))
		vecs[i] = []float64{1, 1}
	}
	require.NoError(t, idx.Upsert(docs, vecs))

	res, err := idx.Search([]float64{3, 3}, 5)
	require.NoError(t, err)
	require.Len(t, res, 5)
	for i, r := range res {
		assert.Equal(t, fmt.Sprintf("d%d", i), r.Document.Metadata.SourceEntryID)
	}
}

func TestIndex_zeroVectorsScoreZero(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	require.NoError(t, idx.Upsert([]domain.RetrievalDocument{doc("a"), doc("b")}, [][]float64{{0, 0}, {1, 0}}))

	res, err := idx.Search([]float64{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].Document.Metadata.SourceEntryID)
	assert.Zero(t, res[0].Score)
	assert.Zero(t, res[1].Score)
}

func TestIndex_topKClampedAndDefault(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	res, err := idx.Search([]float64{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	docs := make([]domain.RetrievalDocument, 7)
	vecs := make([][]float64, 7)
	for i := range docs {
		docs[i] = doc(fmt.Sprint(i))
		vecs[i] = []float64{float64(i + 1), 1}
	}
	require.NoError(t, idx.Upsert(docs, vecs))

	res, err = idx.Search([]float64{1, 0}, 0)
	require.NoError(t, err)
	assert.Len(t, res, 5)

	res, err = idx.Search([]float64{1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, res, 7)
}

func TestIndex_validation(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	assert.Error(t, idx.Upsert([]domain.RetrievalDocument{doc("a")}, nil))
	assert.Error(t, idx.Upsert([]domain.RetrievalDocument{doc("a")}, [][]float64{{}}))
	assert.Error(t, idx.Upsert(
		[]domain.RetrievalDocument{doc("a"), doc("b")},
		[][]float64{{1, 2}, {1, 2, 3}},
	))
	assert.Zero(t, idx.Len(), "a failed upsert adds nothing")

	require.NoError(t, idx.Upsert([]domain.RetrievalDocument{doc("a")}, [][]float64{{1, 2}}))
	_, err := idx.Search([]float64{1, 2, 3}, 1)
	assert.Error(t, err)
}
