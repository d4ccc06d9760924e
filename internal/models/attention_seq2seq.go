package models

import (
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

// AttentionDecoder attends over every encoder state at each decoding step.
//
// The LSTM starts from the last encoder state. At step t the context vector
// c_t is the attention-weighted sum of the encoder states, and the affine
// layer scores concat(c_t, h_t) with a (2H, V) matrix.
type AttentionDecoder struct {
	paramList
	embed     *nn.TimeEmbedding
	lstm      *nn.TimeLSTM
	attention *nn.TimeAttention
	affine    *nn.TimeAffine
	hidden    int
	weights   []*tensor.Tensor
}

// NewAttentionDecoder creates the decoder.
func NewAttentionDecoder(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *AttentionDecoder {
	V, D, H := vocabSize, wordvecSize, hiddenSize
	d := &AttentionDecoder{
		embed:     nn.NewTimeEmbedding(nn.Normal(rng, 0.01, V, D)),
		lstm:      nn.NewTimeLSTM(nn.Xavier(rng, D, D, 4*H), nn.Xavier(rng, H, H, 4*H), nn.Zeros(4*H), true),
		attention: nn.NewTimeAttention(),
		affine:    nn.NewTimeAffine(nn.Xavier(rng, 2*H, 2*H, V), nn.Zeros(V)),
		hidden:    H,
	}
	d.paramList = collect(d.embed, d.lstm, d.affine)
	return d
}

func (d *AttentionDecoder) run(xs, encHs *tensor.Tensor) *tensor.Tensor {
	decHs := d.lstm.Forward(d.embed.Forward(xs))
	c := d.attention.Forward(encHs, decHs)
	return d.affine.Forward(tensor.ConcatLast(c, decHs))
}

// Forward returns the scores (N, T, V) for decoder inputs xs and encoder
// states encHs (N, T_enc, H).
func (d *AttentionDecoder) Forward(xs, encHs *tensor.Tensor) *tensor.Tensor {
	d.lstm.SetState(lastStep(encHs), nil)
	out := d.run(xs, encHs)
	d.weights = d.attention.Weights()
	return out
}

// Backward returns the gradient w.r.t. the encoder states.
func (d *AttentionDecoder) Backward(dscore *tensor.Tensor) *tensor.Tensor {
	H := d.hidden
	dout := d.affine.Backward(dscore)
	dc := tensor.SliceLast(dout, 0, H)
	ddecHs := tensor.SliceLast(dout, H, dout.Dim(-1))

	dencHs, ddecHs1 := d.attention.Backward(dc)
	ddecHs.AddInPlace(ddecHs1)
	d.embed.Backward(d.lstm.Backward(ddecHs))

	tensor.AddStep(dencHs, dencHs.Dim(1)-1, d.lstm.DH())
	return dencHs
}

// Generate decodes greedily while attending over encHs (1, T_enc, H).
func (d *AttentionDecoder) Generate(encHs *tensor.Tensor, startID, sampleSize int) []int {
	d.lstm.SetState(lastStep(encHs), nil)
	sampled := make([]int, 0, sampleSize)
	d.weights = nil
	id := startID
	for range sampleSize {
		score := d.run(tensor.FromInts([]int{id}, 1, 1), encHs)
		d.weights = append(d.weights, d.attention.Weights()...)
		id = tensor.ArgmaxLast(score)[0]
		sampled = append(sampled, id)
	}
	return sampled
}

// AttentionWeights returns the (N, T_enc) weights of every decoder step of
// the last Forward or Generate call.
func (d *AttentionDecoder) AttentionWeights() []*tensor.Tensor {
	return d.weights
}

// AttentionSeq2seq is Seq2seq whose decoder attends over all encoder states.
type AttentionSeq2seq struct {
	paramList
	encoder *Encoder
	decoder *AttentionDecoder
	loss    *nn.TimeSoftmaxWithLoss
}

// NewAttentionSeq2seq creates the model.
func NewAttentionSeq2seq(rng *rand.Rand, vocabSize, wordvecSize, hiddenSize int) *AttentionSeq2seq {
	enc := NewEncoder(rng, vocabSize, wordvecSize, hiddenSize)
	dec := NewAttentionDecoder(rng, vocabSize, wordvecSize, hiddenSize)
	return &AttentionSeq2seq{
		paramList: collect(enc, dec),
		encoder:   enc,
		decoder:   dec,
		loss:      nn.NewTimeSoftmaxWithLoss(),
	}
}

// Name returns "AttentionSeq2seq".
func (m *AttentionSeq2seq) Name() string { return "AttentionSeq2seq" }

// Forward returns the mean per-step loss of decoding ts from xs.
func (m *AttentionSeq2seq) Forward(xs, ts *tensor.Tensor) float64 {
	decoderXs, decoderTs := shiftTargets(ts)
	encHs := m.encoder.ForwardSeq(xs)
	score := m.decoder.Forward(decoderXs, encHs)
	return m.loss.Forward(score, decoderTs)
}

// Backward fills the gradients of the last Forward.
func (m *AttentionSeq2seq) Backward(dout float64) {
	dencHs := m.decoder.Backward(m.loss.Backward(dout))
	m.encoder.BackwardSeq(dencHs)
}

// Generate encodes xs (1, T) and decodes sampleSize ids greedily.
func (m *AttentionSeq2seq) Generate(xs *tensor.Tensor, startID, sampleSize int) []int {
	return m.decoder.Generate(m.encoder.ForwardSeq(xs), startID, sampleSize)
}

// AttentionWeights returns the decoder's attention weights of the last call.
func (m *AttentionSeq2seq) AttentionWeights() []*tensor.Tensor {
	return m.decoder.AttentionWeights()
}
