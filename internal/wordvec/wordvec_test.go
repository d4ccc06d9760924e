package wordvec_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/wordvec"
)

const text = "You say goodbye and I say hello."

func TestCoMatrix(t *testing.T) {
	corpus, vocab := dataset.Preprocess(text)
	C := wordvec.CoMatrix(corpus, vocab.Len(), 1)

	assert.Equal(t, []float64{0, 1, 0, 0, 0, 0, 0}, C.Row(0))
	assert.Equal(t, []float64{1, 0, 1, 0, 1, 1, 0}, C.Row(1))
	assert.Equal(t, 14.0, C.Sum())
	assert.True(t, C.Equal(tensor.Transpose(C)), "co-occurrence is symmetric")
}

func TestPPMI(t *testing.T) {
	corpus, vocab := dataset.Preprocess(text)
	M := wordvec.PPMI(wordvec.CoMatrix(corpus, vocab.Len(), 1))

	assert.InDelta(t, math.Log2(3.5), M.At(0, 1), 1e-6)
	for _, v := range M.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
	}

	// A word that never co-occurs keeps a zero row.
	P := wordvec.PPMI(tensor.New([]float64{0, 0, 0, 2}, 2, 2))
	assert.Equal(t, []float64{0, 0}, P.Row(0))
}

func TestSVDColumnsAreOrthonormal(t *testing.T) {
	corpus, vocab := dataset.Preprocess(text)
	W, err := wordvec.SVD(wordvec.PPMI(wordvec.CoMatrix(corpus, vocab.Len(), 1)), 2)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{7, 2}, W.Shape())

	gram := tensor.MatMulTransA(W, W)
	assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, gram.Data(), 1e-9)

	_, err = wordvec.SVD(W, 3)
	assert.Error(t, err)
}

func TestCosSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, wordvec.CosSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, wordvec.CosSimilarity([]float64{1, 0}, []float64{0, 3}), 1e-12)
	assert.InDelta(t, -1.0, wordvec.CosSimilarity([]float64{1, 1}, []float64{-1, -1}), 1e-6)
	assert.Equal(t, 0.0, wordvec.CosSimilarity([]float64{0, 0}, []float64{1, 1}))
}

func TestNormalize(t *testing.T) {
	m := wordvec.Normalize(tensor.New([]float64{3, 4, 0, 0}, 2, 2))
	assert.InDeltaSlice(t, []float64{0.6, 0.8, 0, 0}, m.Data(), 1e-12)

	v := wordvec.Normalize(tensor.New([]float64{0, 2}, 2))
	assert.Equal(t, []float64{0, 1}, v.Data())
}

func toyVectors() (*dataset.Vocab, *tensor.Tensor) {
	vocab := dataset.VocabFromWords([]string{"man", "king", "woman", "queen", "apple"})
	W := tensor.FromRows([][]float64{
		{1, 0, 0},
		{1, 1, 0},
		{0, 0, 1},
		{0, 1, 1},
		{-1, 0, 0},
	})
	return vocab, W
}

func TestMostSimilar(t *testing.T) {
	vocab, W := toyVectors()

	got, err := wordvec.MostSimilar("man", vocab, W, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "king", got[0].Word)
	assert.InDelta(t, 1/math.Sqrt2, got[0].Similarity, 1e-6)
	for _, n := range got {
		assert.NotEqual(t, "man", n.Word)
	}

	all, err := wordvec.MostSimilar("man", vocab, W, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "apple", all[3].Word)

	_, err = wordvec.MostSimilar("pear", vocab, W, 3)
	assert.ErrorIs(t, err, wordvec.ErrUnknownWord)
}

func TestAnalogy(t *testing.T) {
	vocab, W := toyVectors()

	got, err := wordvec.Analogy("man", "king", "woman", vocab, W, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "queen", got[0].Word)
	assert.Equal(t, "apple", got[1].Word)

	_, err = wordvec.Analogy("man", "king", "girl", vocab, W, 5)
	assert.ErrorIs(t, err, wordvec.ErrUnknownWord)
}
