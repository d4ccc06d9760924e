package models

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

// SimpleRnnlm is TimeEmbedding → TimeRNN → TimeAffine with a per-step softmax loss.
//
// Initialisation:
//   - embedding: N(0, 1)/100
//   - RNN Wx, Wh and affine W: Xavier, N(0, 1)/sqrt(fan-in)
//   - biases: zero
type SimpleRnnlm struct {
	paramList
	embed  *nn.TimeEmbedding
	rnn    *nn.TimeRNN
	affine *nn.TimeAffine
	layers []nn.Layer
	loss   *nn.TimeSoftmaxWithLoss
	vocab  int
}

// NewSimpleRnnlm creates the model. The RNN is stateful.
func NewSimpleRnnlm(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *SimpleRnnlm {
	V, D, H := vocabSize, wordvecSize, hiddenSize
	m := &SimpleRnnlm{
		embed:  nn.NewTimeEmbedding(nn.Normal(rng, 0.01, V, D)),
		rnn:    nn.NewTimeRNN(nn.Xavier(rng, D, D, H), nn.Xavier(rng, H, H, H), nn.Zeros(H), true),
		affine: nn.NewTimeAffine(nn.Xavier(rng, H, H, V), nn.Zeros(V)),
		loss:   nn.NewTimeSoftmaxWithLoss(),
		vocab:  V,
	}
	m.layers = []nn.Layer{m.embed, m.rnn, m.affine}
	m.paramList = collect(m.embed, m.rnn, m.affine)
	return m
}

// Name returns "SimpleRnnlm".
func (m *SimpleRnnlm) Name() string { return "SimpleRnnlm" }

// VocabSize returns V.
func (m *SimpleRnnlm) VocabSize() int { return m.vocab }

// Predict returns the scores (N, T, V) for ids (N, T).
func (m *SimpleRnnlm) Predict(xs *tensor.Tensor) *tensor.Tensor {
	return forwardAll(xs, m.layers)
}

// Forward returns the mean per-step loss.
func (m *SimpleRnnlm) Forward(xs, ts *tensor.Tensor) float64 {
	return m.loss.Forward(m.Predict(xs), ts)
}

// Backward fills the gradients of the last Forward.
func (m *SimpleRnnlm) Backward(dout float64) {
	backwardAll(m.loss.Backward(dout), m.layers)
}

// ResetState clears the hidden state.
func (m *SimpleRnnlm) ResetState() { m.rnn.ResetState() }

// State returns a copy of the hidden state.
func (m *SimpleRnnlm) State() ([]State, error) {
	h := m.rnn.State()
	if h == nil {
		return nil, fmt.Errorf("%s.State: %w", m.Name(), ErrNoState)
	}
	return []State{{H: h.Clone()}}, nil
}

// SetState injects the hidden state for the next Forward.
func (m *SimpleRnnlm) SetState(states []State) error {
	if err := checkStates(m.Name(), states, 1); err != nil {
		return err
	}
	m.rnn.SetState(states[0].H.Clone())
	return nil
}

// Rnnlm is TimeEmbedding → TimeLSTM → TimeAffine with a per-step softmax loss.
//
// Example:
//
//	model := models.NewRnnlm(rng, vocabSize, 100, 100)
//	trainer := train.NewRnnlmTrainer(model, optim.NewSGD(optim.SGDConfig{LR: 20}))
type Rnnlm struct {
	paramList
	embed  *nn.TimeEmbedding
	lstm   *nn.TimeLSTM
	affine *nn.TimeAffine
	layers []nn.Layer
	loss   *nn.TimeSoftmaxWithLoss
	vocab  int
}

// NewRnnlm creates the model. The LSTM is stateful.
func NewRnnlm(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *Rnnlm {
	V, D, H := vocabSize, wordvecSize, hiddenSize
	m := &Rnnlm{
		embed:  nn.NewTimeEmbedding(nn.Normal(rng, 0.01, V, D)),
		lstm:   nn.NewTimeLSTM(nn.Xavier(rng, D, D, 4*H), nn.Xavier(rng, H, H, 4*H), nn.Zeros(4*H), true),
		affine: nn.NewTimeAffine(nn.Xavier(rng, H, H, V), nn.Zeros(V)),
		loss:   nn.NewTimeSoftmaxWithLoss(),
		vocab:  V,
	}
	m.layers = []nn.Layer{m.embed, m.lstm, m.affine}
	m.paramList = collect(m.embed, m.lstm, m.affine)
	return m
}

// Name returns "Rnnlm".
func (m *Rnnlm) Name() string { return "Rnnlm" }

// VocabSize returns V.
func (m *Rnnlm) VocabSize() int { return m.vocab }

// Predict returns the scores (N, T, V) for ids (N, T).
func (m *Rnnlm) Predict(xs *tensor.Tensor) *tensor.Tensor {
	return forwardAll(xs, m.layers)
}

// Forward returns the mean per-step loss.
func (m *Rnnlm) Forward(xs, ts *tensor.Tensor) float64 {
	return m.loss.Forward(m.Predict(xs), ts)
}

// Backward fills the gradients of the last Forward.
func (m *Rnnlm) Backward(dout float64) {
	backwardAll(m.loss.Backward(dout), m.layers)
}

// ResetState clears (h, c).
func (m *Rnnlm) ResetState() { m.lstm.ResetState() }

// State returns a copy of (h, c).
func (m *Rnnlm) State() ([]State, error) {
	s, err := lstmState(m.lstm)
	if err != nil {
		return nil, fmt.Errorf("%s.State: %w", m.Name(), err)
	}
	return []State{s}, nil
}

// SetState injects (h, c) for the next Forward.
func (m *Rnnlm) SetState(states []State) error {
	if err := checkStates(m.Name(), states, 1); err != nil {
		return err
	}
	m.lstm.SetState(states[0].H.Clone(), cloneOrNil(states[0].C))
	return nil
}

// BetterRnnlm stacks two LSTMs with dropout and ties the output projection to
// the embedding.
//
// Layers: TimeEmbedding(W) → Dropout → LSTM → Dropout → LSTM → Dropout →
// TimeAffine(Wᵀ, b). Wᵀ is held as a separate tensor equal to the transpose of
// W; train.Deduplicate merges its gradient into W and Reduced.Sync refreshes
// it after every update. Tying requires wordvecSize == hiddenSize.
//
// Dropout is active until SetTrain(false).
type BetterRnnlm struct {
	paramList
	embed    *nn.TimeEmbedding
	lstms    [2]*nn.TimeLSTM
	dropouts [3]*nn.TimeDropout
	affine   *nn.TimeAffine
	layers   []nn.Layer
	loss     *nn.TimeSoftmaxWithLoss
	vocab    int
}

// NewBetterRnnlm creates the model. Panics with a tensor.ShapeError if
// wordvecSize != hiddenSize.
func NewBetterRnnlm(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int, dropoutRatio float64) *BetterRnnlm {
	V, D, H := vocabSize, wordvecSize, hiddenSize
	if D != H {
		panic(&tensor.ShapeError{Op: "models.NewBetterRnnlm", Got: tensor.Shape{D}, Want: tensor.Shape{H}})
	}
	embedW := nn.Normal(rng, 0.01, V, D)

	m := &BetterRnnlm{
		embed: nn.NewTimeEmbedding(embedW),
		lstms: [2]*nn.TimeLSTM{
			nn.NewTimeLSTM(nn.Xavier(rng, D, D, 4*H), nn.Xavier(rng, H, H, 4*H), nn.Zeros(4*H), true),
			nn.NewTimeLSTM(nn.Xavier(rng, H, H, 4*H), nn.Xavier(rng, H, H, 4*H), nn.Zeros(4*H), true),
		},
		affine: nn.NewTimeAffine(tensor.Transpose(embedW), nn.Zeros(V)),
		loss:   nn.NewTimeSoftmaxWithLoss(),
		vocab:  V,
	}
	for i := range m.dropouts {
		m.dropouts[i] = nn.NewTimeDropout(rng, dropoutRatio)
	}
	m.layers = []nn.Layer{
		m.embed, m.dropouts[0],
		m.lstms[0], m.dropouts[1],
		m.lstms[1], m.dropouts[2],
		m.affine,
	}
	m.paramList = collect(m.embed, m.lstms[0], m.lstms[1], m.affine)
	return m
}

// Name returns "BetterRnnlm".
func (m *BetterRnnlm) Name() string { return "BetterRnnlm" }

// VocabSize returns V.
func (m *BetterRnnlm) VocabSize() int { return m.vocab }

// SetTrain switches dropout between training and inference.
func (m *BetterRnnlm) SetTrain(train bool) {
	for _, d := range m.dropouts {
		d.SetTrain(train)
	}
}

// Predict returns the scores (N, T, V) for ids (N, T).
func (m *BetterRnnlm) Predict(xs *tensor.Tensor) *tensor.Tensor {
	return forwardAll(xs, m.layers)
}

// Forward returns the mean per-step loss.
func (m *BetterRnnlm) Forward(xs, ts *tensor.Tensor) float64 {
	return m.loss.Forward(m.Predict(xs), ts)
}

// Backward fills the gradients of the last Forward.
func (m *BetterRnnlm) Backward(dout float64) {
	backwardAll(m.loss.Backward(dout), m.layers)
}

// ResetState clears both LSTMs.
func (m *BetterRnnlm) ResetState() {
	for _, l := range m.lstms {
		l.ResetState()
	}
}

// State returns copies of the (h, c) pairs of both LSTMs.
func (m *BetterRnnlm) State() ([]State, error) {
	states := make([]State, 0, len(m.lstms))
	for i, l := range m.lstms {
		s, err := lstmState(l)
		if err != nil {
			return nil, fmt.Errorf("%s.State: lstm %d: %w", m.Name(), i, err)
		}
		states = append(states, s)
	}
	return states, nil
}

// SetState injects the (h, c) pairs of both LSTMs.
func (m *BetterRnnlm) SetState(states []State) error {
	if err := checkStates(m.Name(), states, len(m.lstms)); err != nil {
		return err
	}
	for i, l := range m.lstms {
		l.SetState(states[i].H.Clone(), cloneOrNil(states[i].C))
	}
	return nil
}

func lstmState(l *nn.TimeLSTM) (State, error) {
	h, c := l.State()
	if h == nil {
		return State{}, ErrNoState
	}
	return State{H: h.Clone(), C: cloneOrNil(c)}, nil
}
