package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/optim"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/train"
)

type translator interface {
	models.Model
	Generate(xs *tensor.Tensor, startID, sampleSize int) []int
}

func seq2seqModels(V, D, H int) []translator {
	return []translator{
		models.NewSeq2seq(tensor.NewRNG(1), V, D, H),
		models.NewPeekySeq2seq(tensor.NewRNG(2), V, D, H),
		models.NewAttentionSeq2seq(tensor.NewRNG(3), V, D, H),
	}
}

func TestSeq2seqGradients(t *testing.T) {
	xs := tensor.FromInts([]int{1, 2, 3, 4, 0, 2}, 2, 3)
	ts := tensor.FromInts([]int{5, 3, 1, 5, 4, 4}, 2, 3)

	for _, m := range seq2seqModels(6, 3, 4) {
		t.Run(m.Name(), func(t *testing.T) {
			rng := tensor.NewRNG(11)
			for _, p := range m.Params() {
				p.AddInPlace(tensor.Scale(tensor.Randn(rng, p.Shape()...), 0.5))
			}
			checkModelGrads(t, m, func() float64 { return m.Forward(xs, ts) })
		})
	}
}

func TestSeq2seqGenerate(t *testing.T) {
	question := tensor.FromInts([]int{1, 2, 3, 4}, 1, 4)
	for _, m := range seq2seqModels(8, 4, 5) {
		t.Run(m.Name(), func(t *testing.T) {
			ids := m.Generate(question, 7, 5)
			require.Len(t, ids, 5)
			for _, id := range ids {
				assert.GreaterOrEqual(t, id, 0)
				assert.Less(t, id, 8)
			}
			assert.Equal(t, ids, m.Generate(question, 7, 5), "greedy decoding is deterministic")
		})
	}
}

func TestAttentionWeightsPerStep(t *testing.T) {
	m := models.NewAttentionSeq2seq(tensor.NewRNG(4), 8, 4, 5)
	m.Generate(tensor.FromInts([]int{1, 2, 3}, 1, 3), 0, 4)

	weights := m.AttentionWeights()
	require.Len(t, weights, 4)
	for _, w := range weights {
		assert.Equal(t, tensor.Shape{1, 3}, w.Shape())
		assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	}
}

func TestEncoderBackwardWithoutForwardPanics(t *testing.T) {
	enc := models.NewEncoder(tensor.NewRNG(1), 5, 3, 3)
	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, nn.ErrNoForwardCache)
	}()
	enc.Backward(tensor.Zeros(1, 3))
}

// A copy task: the answer repeats the question after the start id.
func TestPeekySeq2seqLearnsCopy(t *testing.T) {
	const V, start, n = 6, 5, 40
	rng := tensor.NewRNG(21)
	q := make([]int, 0, n*3)
	a := make([]int, 0, n*4)
	for range n {
		row := []int{rng.IntN(5), rng.IntN(5), rng.IntN(5)}
		q = append(q, row...)
		a = append(a, start)
		a = append(a, row...)
	}
	xs, ts := tensor.FromInts(q, n, 3), tensor.FromInts(a, n, 4)

	m := models.NewPeekySeq2seq(tensor.NewRNG(22), V, 8, 32)
	tr := train.NewTrainer(m, optim.NewAdam(optim.AdamConfig{LR: 0.01}), train.WithRNG(tensor.NewRNG(23)))
	require.NoError(t, tr.Fit(xs, ts, train.FitConfig{MaxEpoch: 100, BatchSize: 10, MaxGrad: 5, EvalInterval: 1}))

	losses := tr.History().Losses
	assert.Less(t, losses[len(losses)-1], losses[0]/2)

	hits := 0
	for i := range n {
		if train.EvalSeq2seq(m, tensor.SliceRows(xs, i, i+1), ts.Ints()[i*4:(i+1)*4]) {
			hits++
		}
	}
	t.Logf("copy accuracy %d/%d", hits, n)
}
