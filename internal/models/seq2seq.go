package models

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

// Encoder embeds an id sequence and runs it through a non-stateful LSTM.
//
// Forward returns the last hidden state (N, H) for plain seq2seq;
// ForwardSeq returns every hidden state (N, T, H) for attention.
type Encoder struct {
	embed *nn.TimeEmbedding
	lstm  *nn.TimeLSTM
	hs    *tensor.Tensor
}

// NewEncoder creates the encoder. Embeddings start at 0.01·N(0, 1) and the
// LSTM weights at Xavier.
func NewEncoder(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *Encoder {
	V, D, H := vocabSize, wordvecSize, hiddenSize
	return &Encoder{
		embed: nn.NewTimeEmbedding(nn.Normal(rng, 0.01, V, D)),
		lstm:  nn.NewTimeLSTM(nn.Xavier(rng, D, D, 4*H), nn.Xavier(rng, H, H, 4*H), nn.Zeros(4*H), false),
	}
}

// ForwardSeq returns the hidden states (N, T, H) for ids (N, T).
func (e *Encoder) ForwardSeq(xs *tensor.Tensor) *tensor.Tensor {
	e.hs = e.lstm.Forward(e.embed.Forward(xs))
	return e.hs
}

// BackwardSeq takes the gradient w.r.t. every hidden state.
func (e *Encoder) BackwardSeq(dhs *tensor.Tensor) {
	e.embed.Backward(e.lstm.Backward(dhs))
}

// Forward returns the final hidden state (N, H).
func (e *Encoder) Forward(xs *tensor.Tensor) *tensor.Tensor {
	return lastStep(e.ForwardSeq(xs))
}

// Backward takes the gradient w.r.t. the final hidden state.
func (e *Encoder) Backward(dh *tensor.Tensor) {
	if e.hs == nil {
		panic(fmt.Errorf("Encoder.Backward: %w", nn.ErrNoForwardCache))
	}
	dhs := tensor.ZerosLike(e.hs)
	tensor.SetStep(dhs, e.hs.Dim(1)-1, dh)
	e.BackwardSeq(dhs)
}

// Params returns the embedding and LSTM parameters.
func (e *Encoder) Params() []*tensor.Tensor {
	return append(append([]*tensor.Tensor{}, e.embed.Params()...), e.lstm.Params()...)
}

// Grads returns the gradient buffers, aligned with Params.
func (e *Encoder) Grads() []*tensor.Tensor {
	return append(append([]*tensor.Tensor{}, e.embed.Grads()...), e.lstm.Grads()...)
}

// seqDecoder is the decoder side of Seq2seq.
type seqDecoder interface {
	holder
	Forward(xs, h *tensor.Tensor) *tensor.Tensor
	Backward(dscore *tensor.Tensor) *tensor.Tensor
	Generate(h *tensor.Tensor, startID, sampleSize int) []int
}

// Decoder conditions a stateful LSTM on the encoder's final state.
//
// Forward sets the LSTM hidden state to h (cell state zero) and runs
// TimeEmbedding → TimeLSTM → TimeAffine over the given target prefix.
// Backward returns dh, the gradient w.r.t. that initial state.
type Decoder struct {
	paramList
	embed  *nn.TimeEmbedding
	lstm   *nn.TimeLSTM
	affine *nn.TimeAffine
	layers []nn.Layer
}

// NewDecoder creates the decoder.
func NewDecoder(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *Decoder {
	V, D, H := vocabSize, wordvecSize, hiddenSize
	d := &Decoder{
		embed:  nn.NewTimeEmbedding(nn.Normal(rng, 0.01, V, D)),
		lstm:   nn.NewTimeLSTM(nn.Xavier(rng, D, D, 4*H), nn.Xavier(rng, H, H, 4*H), nn.Zeros(4*H), true),
		affine: nn.NewTimeAffine(nn.Xavier(rng, H, H, V), nn.Zeros(V)),
	}
	d.layers = []nn.Layer{d.embed, d.lstm, d.affine}
	d.paramList = collect(d.embed, d.lstm, d.affine)
	return d
}

// Forward returns the scores (N, T, V).
func (d *Decoder) Forward(xs, h *tensor.Tensor) *tensor.Tensor {
	d.lstm.SetState(h, nil)
	return forwardAll(xs, d.layers)
}

// Backward returns dh (N, H).
func (d *Decoder) Backward(dscore *tensor.Tensor) *tensor.Tensor {
	backwardAll(dscore, d.layers)
	return d.lstm.DH()
}

// Generate decodes greedily from h, feeding each arg-max back as input.
func (d *Decoder) Generate(h *tensor.Tensor, startID, sampleSize int) []int {
	d.lstm.SetState(h, nil)
	sampled := make([]int, 0, sampleSize)
	id := startID
	for range sampleSize {
		score := forwardAll(tensor.FromInts([]int{id}, 1, 1), d.layers)
		id = tensor.ArgmaxLast(score)[0]
		sampled = append(sampled, id)
	}
	return sampled
}

// PeekyDecoder is a Decoder that also feeds the encoder state h to the LSTM
// and the affine layer at every step.
//
// The LSTM input is concat(h, embed) with width H+D and the affine input is
// concat(h, lstm out) with width 2H. The gradient w.r.t. h is the LSTM's
// initial-state gradient plus the time-summed gradients of both copies.
type PeekyDecoder struct {
	paramList
	embed  *nn.TimeEmbedding
	lstm   *nn.TimeLSTM
	affine *nn.TimeAffine
	hidden int
}

// NewPeekyDecoder creates the decoder.
func NewPeekyDecoder(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *PeekyDecoder {
	V, D, H := vocabSize, wordvecSize, hiddenSize
	d := &PeekyDecoder{
		embed:  nn.NewTimeEmbedding(nn.Normal(rng, 0.01, V, D)),
		lstm:   nn.NewTimeLSTM(nn.Xavier(rng, H+D, H+D, 4*H), nn.Xavier(rng, H, H, 4*H), nn.Zeros(4*H), true),
		affine: nn.NewTimeAffine(nn.Xavier(rng, 2*H, 2*H, V), nn.Zeros(V)),
		hidden: H,
	}
	d.paramList = collect(d.embed, d.lstm, d.affine)
	return d
}

func (d *PeekyDecoder) run(xs, hs *tensor.Tensor) *tensor.Tensor {
	out := d.embed.Forward(xs)
	out = d.lstm.Forward(tensor.ConcatLast(hs, out))
	return d.affine.Forward(tensor.ConcatLast(hs, out))
}

// Forward returns the scores (N, T, V).
func (d *PeekyDecoder) Forward(xs, h *tensor.Tensor) *tensor.Tensor {
	d.lstm.SetState(h, nil)
	return d.run(xs, repeatSteps(h, xs.Dim(1)))
}

// Backward returns dh (N, H).
func (d *PeekyDecoder) Backward(dscore *tensor.Tensor) *tensor.Tensor {
	H := d.hidden
	dout := d.affine.Backward(dscore)
	dhs0 := tensor.SliceLast(dout, 0, H)
	dlstm := tensor.SliceLast(dout, H, dout.Dim(-1))

	dout = d.lstm.Backward(dlstm)
	dhs1 := tensor.SliceLast(dout, 0, H)
	d.embed.Backward(tensor.SliceLast(dout, H, dout.Dim(-1)))

	dh := d.lstm.DH().Clone()
	dh.AddInPlace(sumSteps(dhs0))
	dh.AddInPlace(sumSteps(dhs1))
	return dh
}

// Generate decodes greedily from h.
func (d *PeekyDecoder) Generate(h *tensor.Tensor, startID, sampleSize int) []int {
	d.lstm.SetState(h, nil)
	peek := h.Reshape(1, 1, h.Dim(-1))
	sampled := make([]int, 0, sampleSize)
	id := startID
	for range sampleSize {
		score := d.run(tensor.FromInts([]int{id}, 1, 1), peek)
		id = tensor.ArgmaxLast(score)[0]
		sampled = append(sampled, id)
	}
	return sampled
}

// Seq2seq maps an input id sequence to an output id sequence through an
// Encoder and a decoder.
//
// Forward takes xs (N, T_in) and ts (N, T_out). The decoder is fed
// with ts[:, :-1] and scored against ts[:, 1:], so ts[:, 0] is the start id.
type Seq2seq struct {
	paramList
	name    string
	encoder *Encoder
	decoder seqDecoder
	loss    *nn.TimeSoftmaxWithLoss
}

// NewSeq2seq creates the plain encoder-decoder.
func NewSeq2seq(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *Seq2seq {
	return newSeq2seq("Seq2seq", NewEncoder(rng, vocabSize, wordvecSize, hiddenSize),
		NewDecoder(rng, vocabSize, wordvecSize, hiddenSize))
}

// NewPeekySeq2seq creates the encoder-decoder with a PeekyDecoder.
func NewPeekySeq2seq(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *Seq2seq {
	return newSeq2seq("PeekySeq2seq", NewEncoder(rng, vocabSize, wordvecSize, hiddenSize),
		NewPeekyDecoder(rng, vocabSize, wordvecSize, hiddenSize))
}

func newSeq2seq(name string, enc *Encoder, dec seqDecoder) *Seq2seq {
	return &Seq2seq{
		paramList: collect(enc, dec),
		name:      name,
		encoder:   enc,
		decoder:   dec,
		loss:      nn.NewTimeSoftmaxWithLoss(),
	}
}

// Name returns "Seq2seq" or "PeekySeq2seq".
func (m *Seq2seq) Name() string { return m.name }

// Forward returns the mean per-step loss of decoding ts from xs.
func (m *Seq2seq) Forward(xs, ts *tensor.Tensor) float64 {
	decoderXs, decoderTs := shiftTargets(ts)
	h := m.encoder.Forward(xs)
	score := m.decoder.Forward(decoderXs, h)
	return m.loss.Forward(score, decoderTs)
}

// Backward fills the gradients of the last Forward.
func (m *Seq2seq) Backward(dout float64) {
	dh := m.decoder.Backward(m.loss.Backward(dout))
	m.encoder.Backward(dh)
}

// Generate encodes xs (1, T) and decodes sampleSize ids greedily.
func (m *Seq2seq) Generate(xs *tensor.Tensor, startID, sampleSize int) []int {
	return m.decoder.Generate(m.encoder.Forward(xs), startID, sampleSize)
}

// shiftTargets splits ts (N, T) into decoder inputs ts[:, :-1] and targets ts[:, 1:].
func shiftTargets(ts *tensor.Tensor) (xs, targets *tensor.Tensor) {
	T := ts.Dim(1)
	return tensor.SliceLast(ts, 0, T-1), tensor.SliceLast(ts, 1, T)
}
