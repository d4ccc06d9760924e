package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/optim"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/train"
	"github.com/born-ml/deepzero/internal/wordvec"
)

func TestTwoLayerNetGradients(t *testing.T) {
	rng := tensor.NewRNG(1)
	m := models.NewTwoLayerNet(rng, 2, 4, 3)
	// Larger weights than the default init so the check is not dominated by zeros.
	for _, p := range m.Params() {
		p.CopyFrom(tensor.Randn(rng, p.Shape()...))
	}
	x := tensor.Randn(rng, 5, 2)
	target := tensor.FromInts([]int{0, 2, 1, 1, 0})

	checkModelGrads(t, m, func() float64 { return m.Forward(x, target) })
}

func TestTwoLayerNetLearnsSpiral(t *testing.T) {
	x, target := dataset.Spiral(tensor.NewRNG(dataset.SpiralSeed), 100, 3)
	m := models.NewTwoLayerNet(tensor.NewRNG(dataset.SpiralSeed), 2, 10, 3)

	tr := train.NewTrainer(m, optim.NewSGD(optim.SGDConfig{LR: 1}), train.WithRNG(tensor.NewRNG(7)))
	require.NoError(t, tr.Fit(x, target, train.FitConfig{MaxEpoch: 300, BatchSize: 30, EvalInterval: 10}))

	losses := tr.History().Losses
	require.Len(t, losses, 300)
	assert.Less(t, losses[len(losses)-1], losses[0]/2)
	assert.Less(t, losses[len(losses)-1], 0.3)
	assert.Greater(t, m.Accuracy(x, target), 0.7)
}

func TestSimpleWord2VecGradients(t *testing.T) {
	corpus, vocab := dataset.Preprocess("You say goodbye and I say hello.")
	contexts, target, err := dataset.CreateContextsTarget(corpus, 1)
	require.NoError(t, err)
	V := vocab.Len()
	ctx := dataset.ConvertOneHot(contexts, V)
	tgt := dataset.ConvertOneHot(target, V)

	t.Run("cbow", func(t *testing.T) {
		rng := tensor.NewRNG(2)
		m := models.NewSimpleCBOW(rng, V, 3)
		// Small weights keep the softmax away from the 1e-7 floor of the loss.
		for _, p := range m.Params() {
			p.CopyFrom(tensor.Scale(tensor.Randn(rng, p.Shape()...), 0.1))
		}
		require.Len(t, m.Params(), 3)
		assert.Same(t, m.Params()[0], m.Params()[1], "both context layers share W_in")
		checkModelGrads(t, m, func() float64 { return m.Forward(ctx, tgt) })
	})

	t.Run("skip-gram", func(t *testing.T) {
		rng := tensor.NewRNG(3)
		m := models.NewSimpleSkipGram(rng, V, 3)
		// Small weights keep the softmax away from the 1e-7 floor of the loss.
		for _, p := range m.Params() {
			p.CopyFrom(tensor.Scale(tensor.Randn(rng, p.Shape()...), 0.1))
		}
		checkModelGrads(t, m, func() float64 { return m.Forward(ctx, tgt) })
	})
}

func TestSimpleCBOWLearnsNeighbours(t *testing.T) {
	corpus, vocab := dataset.Preprocess("You say goodbye and I say hello.")
	contexts, target, err := dataset.CreateContextsTarget(corpus, 1)
	require.NoError(t, err)
	V := vocab.Len()

	m := models.NewSimpleCBOW(tensor.NewRNG(4), V, 5)
	tr := train.NewTrainer(m, optim.NewAdam(optim.AdamConfig{}), train.WithRNG(tensor.NewRNG(5)))
	require.NoError(t, tr.Fit(dataset.ConvertOneHot(contexts, V), dataset.ConvertOneHot(target, V),
		train.FitConfig{MaxEpoch: 1000, BatchSize: 3, EvalInterval: 1}))

	losses := tr.History().Losses
	assert.Less(t, losses[len(losses)-1], losses[0])
	require.Equal(t, tensor.Shape{V, 5}, m.WordVecs().Shape())

	// goodbye and hello share the context "say ..." and must rank each other
	// above the words they only border.
	for query, partner := range map[string]string{"goodbye": "hello", "hello": "goodbye"} {
		neighbors, err := wordvec.MostSimilar(query, vocab, m.WordVecs(), 0)
		require.NoError(t, err)
		rank := map[string]int{}
		for i, n := range neighbors {
			rank[n.Word] = i
		}
		require.Contains(t, rank, partner)
		for _, other := range []string{"say", "and", "."} {
			assert.Less(t, rank[partner], rank[other], "%s: %s should outrank %s", query, partner, other)
		}
	}
}

func TestNegativeSamplingModelsTrain(t *testing.T) {
	corpus, vocab := dataset.Preprocess("You say goodbye and I say hello. You say hello and I say goodbye.")
	contexts, target, err := dataset.CreateContextsTarget(corpus, 1)
	require.NoError(t, err)
	cfg := models.Word2VecConfig{VocabSize: vocab.Len(), HiddenSize: 5, SampleSize: 2}

	for _, m := range []models.Model{
		models.NewCBOW(tensor.NewRNG(6), cfg, corpus),
		models.NewSkipGram(tensor.NewRNG(6), cfg, corpus),
	} {
		t.Run(m.Name(), func(t *testing.T) {
			tr := train.NewTrainer(m, optim.NewAdam(optim.AdamConfig{}), train.WithRNG(tensor.NewRNG(8)))
			require.NoError(t, tr.Fit(contexts, target, train.FitConfig{MaxEpoch: 500, BatchSize: 4, EvalInterval: 1}))

			losses := tr.History().Losses
			first := mean(losses[:20])
			last := mean(losses[len(losses)-20:])
			assert.Less(t, last, first)

			wv, ok := m.(models.WordVectors)
			require.True(t, ok)
			assert.Equal(t, tensor.Shape{vocab.Len(), 5}, wv.WordVecs().Shape())
		})
	}
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
