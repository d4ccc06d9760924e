package dataset_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/tokenizer"
)

func TestPreprocess(t *testing.T) {
	corpus, vocab := dataset.Preprocess("You say goodbye and I say hello.")

	assert.Equal(t, []int{0, 1, 2, 3, 4, 1, 5, 6}, corpus)
	assert.Equal(t, 7, vocab.Len())
	assert.Equal(t, "hello", vocab.Word(5))
	id, ok := vocab.ID("say")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, "", vocab.Word(99))
}

func TestBuildCorpusWithTokenizer(t *testing.T) {
	corpus, vocab, err := dataset.BuildCorpus("a b\nb c", tokenizer.Lines{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 1, 3}, corpus)
	assert.Equal(t, []string{"a", "b", "<eos>", "c"}, vocab.Words())
}

func TestLoadPTB(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.PTBTrain), []byte(" the cat sat\n the dog sat\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.PTBValid), []byte(" the cat\n"), 0o600))

	ptb, err := dataset.LoadPTB(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 0, 4, 2, 3}, ptb.Train)
	assert.Equal(t, []int{0, 1, 3}, ptb.Valid)
	assert.Nil(t, ptb.Test)

	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.PTBTest), []byte("a bird\n"), 0o600))
	_, err = dataset.LoadPTB(dir)
	assert.ErrorIs(t, err, dataset.ErrUnknownWord)
}

func TestCreateContextsTarget(t *testing.T) {
	corpus := []int{0, 1, 2, 3, 4, 1, 5, 6}

	contexts, target, err := dataset.CreateContextsTarget(corpus, 1)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{6, 2}, contexts.Shape())
	assert.Equal(t, []int{0, 2, 1, 3, 2, 4, 3, 1, 4, 5, 1, 6}, contexts.Ints())
	assert.Equal(t, []int{1, 2, 3, 4, 1, 5}, target.Ints())

	contexts, target, err = dataset.CreateContextsTarget(corpus, 2)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 4}, contexts.Shape())
	assert.Equal(t, []int{0, 1, 3, 4}, contexts.Ints()[:4])
	assert.Equal(t, 2, target.Ints()[0])

	_, _, err = dataset.CreateContextsTarget([]int{1, 2}, 1)
	assert.Error(t, err)
}

func TestConvertOneHot(t *testing.T) {
	oh := dataset.ConvertOneHot(tensor.FromInts([]int{2, 0}), 3)
	assert.Equal(t, tensor.Shape{2, 3}, oh.Shape())
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0}, oh.Data())

	oh = dataset.ConvertOneHot(tensor.FromInts([]int{0, 1, 1, 0}, 2, 2), 2)
	assert.Equal(t, tensor.Shape{2, 2, 2}, oh.Shape())
	assert.Equal(t, []float64{1, 0, 0, 1, 0, 1, 1, 0}, oh.Data())
}

func TestSpiral(t *testing.T) {
	x, tt := dataset.Spiral(tensor.NewRNG(dataset.SpiralSeed), 100, 3)
	require.Equal(t, tensor.Shape{300, 2}, x.Shape())
	require.Equal(t, tensor.Shape{300, 3}, tt.Shape())

	for i := range 300 {
		r := math.Hypot(x.At(i, 0), x.At(i, 1))
		assert.InDelta(t, float64(i%100)/100, r, 1e-12, "radius of point %d", i)
		assert.Equal(t, 1.0, tt.At(i, i/100))
	}
	assert.Equal(t, 300.0, tt.Sum())
}

func TestLoadSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addition.txt")
	var lines string
	for i := range 20 {
		lines += formatAddition(i, 2*i)
	}
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o600))

	seq, err := dataset.LoadSequence(path, tensor.NewRNG(1984))
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{18, 5}, seq.TrainX.Shape())
	assert.Equal(t, tensor.Shape{18, 3}, seq.TrainT.Shape())
	assert.Equal(t, tensor.Shape{2, 5}, seq.TestX.Shape())

	start, ok := seq.Vocab.ID(dataset.AnswerMarker)
	require.True(t, ok)
	for i := range 18 {
		assert.Equal(t, float64(start), seq.TrainT.At(i, 0), "answers start with the marker")
	}

	q := seq.Decode(seq.TrainX.Ints()[:5])
	a := seq.Decode(seq.TrainT.Ints()[:3])
	var x, y, sum int
	_, err = fmtSscanf(q, a, &x, &y, &sum)
	require.NoError(t, err)
	assert.Equal(t, x+y, sum)
}

func TestLoadSequenceRejectsRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("1+1_2\n10+1_11\n"), 0o600))
	_, err := dataset.LoadSequence(path, tensor.NewRNG(1))
	assert.Error(t, err)
}

func TestReverseRows(t *testing.T) {
	x := tensor.FromInts([]int{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, []int{3, 2, 1, 6, 5, 4}, dataset.ReverseRows(x).Ints())
}
