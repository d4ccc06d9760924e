package train_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/optim"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/train"
)

func TestDeduplicateSharedAndTransposed(t *testing.T) {
	rng := tensor.NewRNG(1)
	A := tensor.Randn(rng, 2, 3)
	B := tensor.Randn(rng, 3, 4)
	Bt := tensor.Transpose(B)

	gA1, gB, gA2, gBt := tensor.Randn(rng, 2, 3), tensor.Randn(rng, 3, 4), tensor.Randn(rng, 2, 3), tensor.Randn(rng, 4, 3)
	gA1Orig := gA1.Clone()

	r := train.Deduplicate(
		[]*tensor.Tensor{A, B, A, Bt},
		[]*tensor.Tensor{gA1, gB, gA2, gBt},
	)

	require.Len(t, r.Params, 2)
	require.Len(t, r.Grads, 2)
	assert.Same(t, A, r.Params[0])
	assert.Same(t, B, r.Params[1])
	assert.True(t, r.Grads[0].AllClose(tensor.Add(gA1, gA2), 1e-12))
	assert.True(t, r.Grads[1].AllClose(tensor.Add(gB, tensor.Transpose(gBt)), 1e-12))
	assert.True(t, gA1.Equal(gA1Orig), "layer buffers untouched")
}

func TestDeduplicateIsAFixedPoint(t *testing.T) {
	W := tensor.Ones(2, 2)
	params := []*tensor.Tensor{W, W, W, W}
	grads := []*tensor.Tensor{tensor.Ones(2, 2), tensor.Ones(2, 2), tensor.Ones(2, 2), tensor.Ones(2, 2)}

	r := train.Deduplicate(params, grads)
	require.Len(t, r.Params, 1)
	assert.Equal(t, 16.0, r.Grads[0].Sum())
	assert.Len(t, params, 4, "input slice not modified")
}

func TestReducedSyncKeepsTransposedTie(t *testing.T) {
	rng := tensor.NewRNG(2)
	B := tensor.Randn(rng, 3, 2)
	Bt := tensor.Transpose(B)

	r := train.Deduplicate([]*tensor.Tensor{B, Bt}, []*tensor.Tensor{tensor.Ones(3, 2), tensor.Ones(2, 3)})
	require.Len(t, r.Params, 1)

	optim.NewSGD(optim.SGDConfig{LR: 0.5}).Update(r.Params, r.Grads)
	assert.False(t, tensor.Transpose(B).Equal(Bt))

	r.Sync()
	assert.True(t, tensor.Transpose(B).Equal(Bt))
}

func TestClipGrads(t *testing.T) {
	t.Run("above threshold", func(t *testing.T) {
		grads := []*tensor.Tensor{tensor.New([]float64{3, 0}, 2), tensor.New([]float64{0, 4}, 2)}
		norm := train.ClipGrads(grads, 1)
		assert.InDelta(t, 5.0, norm, 1e-12)

		var total float64
		for _, g := range grads {
			total += g.SumSquares()
		}
		assert.InDelta(t, 1.0, math.Sqrt(total), 1e-6)
	})

	t.Run("below threshold", func(t *testing.T) {
		grads := []*tensor.Tensor{tensor.New([]float64{0.3, 0.4}, 2)}
		train.ClipGrads(grads, 1)
		assert.Equal(t, []float64{0.3, 0.4}, grads[0].Data())
	})
}

func TestGetBatchUsesJumpOffsets(t *testing.T) {
	xs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	ts := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 0}
	tr := train.NewRnnlmTrainer(&constModel{}, optim.NewSGD(optim.SGDConfig{}))

	x, tt := tr.GetBatch(xs, ts, 2, 3)
	assert.Equal(t, []float64{0, 1, 2, 5, 6, 7}, x.Data())
	assert.Equal(t, []float64{1, 2, 3, 6, 7, 8}, tt.Data())

	x, _ = tr.GetBatch(xs, ts, 2, 3)
	assert.Equal(t, []float64{3, 4, 5, 8, 9, 0}, x.Data(), "wraps around the corpus")
}

func TestRnnlmTrainerRejectsShortCorpus(t *testing.T) {
	tr := train.NewRnnlmTrainer(&constModel{}, optim.NewSGD(optim.SGDConfig{}))
	err := tr.Fit([]int{1, 2}, []int{2, 3}, train.RnnlmFitConfig{MaxEpoch: 1, BatchSize: 2, TimeSize: 5})
	assert.True(t, errors.Is(err, train.ErrInvalidConfig))
}

func TestRnnlmTrainerRecordsPerplexity(t *testing.T) {
	m := &constModel{loss: math.Log(7)}
	tr := train.NewRnnlmTrainer(m, optim.NewSGD(optim.SGDConfig{}))
	corpus := make([]int, 41)
	err := tr.Fit(corpus[:40], corpus[1:], train.RnnlmFitConfig{MaxEpoch: 2, BatchSize: 2, TimeSize: 5, EvalInterval: 2})
	require.NoError(t, err)

	assert.Equal(t, 8, m.calls)
	assert.Equal(t, 2, tr.Epoch())
	require.Len(t, tr.History().Perplexities, 4)
	assert.InDelta(t, 7.0, tr.History().Perplexities[0], 1e-9)
}

func TestEvalPerplexity(t *testing.T) {
	m := &constModel{loss: math.Log(3)}
	corpus := make([]int, 21)
	ppl, err := train.EvalPerplexity(m, corpus, 2, 5)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, ppl, 1e-9)
	assert.Equal(t, 2, m.calls)

	_, err = train.EvalPerplexity(m, corpus[:3], 2, 5)
	assert.ErrorIs(t, err, train.ErrInvalidConfig)
}

func TestTrainerFitValidates(t *testing.T) {
	tr := train.NewTrainer(&constModel{}, optim.NewSGD(optim.SGDConfig{}))
	err := tr.Fit(tensor.Zeros(4, 2), tensor.Zeros(3), train.FitConfig{MaxEpoch: 1, BatchSize: 2})
	assert.ErrorIs(t, err, train.ErrInvalidConfig)

	err = tr.Fit(tensor.Zeros(4, 2), tensor.Zeros(4), train.FitConfig{MaxEpoch: 1, BatchSize: 0})
	assert.ErrorIs(t, err, train.ErrInvalidConfig)
}

func TestTrainerStepClipsAndUpdates(t *testing.T) {
	m := &constModel{grad: 10}
	tr := train.NewTrainer(m, optim.NewSGD(optim.SGDConfig{LR: 1}))
	require.NoError(t, tr.Fit(tensor.Zeros(4, 1), tensor.Zeros(4), train.FitConfig{MaxEpoch: 1, BatchSize: 4, MaxGrad: 1}))

	// One step of -lr·clipped grad, where the clipped grad has norm 1.
	assert.InDelta(t, -1.0, m.w.Data()[0], 1e-5)
}

func TestBestKeeper(t *testing.T) {
	saves := 0
	sgd := optim.NewSGD(optim.SGDConfig{LR: 20})
	k := &train.BestKeeper{Save: func() error { saves++; return nil }, Optimizer: sgd}

	assert.True(t, math.IsInf(k.Best(), 1))
	improved, err := k.Observe(100)
	require.NoError(t, err)
	assert.True(t, improved)

	improved, _ = k.Observe(120)
	assert.False(t, improved)
	assert.Equal(t, 5.0, sgd.GetLR())

	improved, _ = k.Observe(90)
	assert.True(t, improved)
	assert.Equal(t, 2, saves)
	assert.Equal(t, 90.0, k.Best())
}

func TestHistoryWriteJSON(t *testing.T) {
	h := train.History{EvalInterval: 10, Losses: []float64{1.5, 0.5}}
	var buf bytes.Buffer
	require.NoError(t, h.WriteJSON(&buf))

	var got train.History
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, h, got)
}

// constModel returns a fixed loss and exposes one parameter with a fixed gradient.
type constModel struct {
	loss  float64
	grad  float64
	calls int
	w, g  *tensor.Tensor
}

func (m *constModel) Forward(x, t *tensor.Tensor) float64 {
	m.calls++
	if m.w == nil {
		m.w = tensor.Zeros(1)
		m.g = tensor.Zeros(1)
	}
	return m.loss
}

func (m *constModel) Backward(dout float64) {
	m.g.Fill(m.grad * dout)
}

func (m *constModel) Params() []*tensor.Tensor { return []*tensor.Tensor{m.w} }
func (m *constModel) Grads() []*tensor.Tensor  { return []*tensor.Tensor{m.g} }
