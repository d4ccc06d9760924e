package models

import (
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

// WordVectors is implemented by models that learn word embeddings.
type WordVectors interface {
	// WordVecs returns the (V, H) input embedding matrix.
	WordVecs() *tensor.Tensor
}

// SimpleCBOW predicts a target word from the two words around it using dense
// one-hot products and a full softmax.
//
// Inputs are one-hot: contexts (N, 2, V) and target (N, V) or target ids (N).
// Both context rows go through MatMul layers that share W_in, and the hidden
// vector is their mean.
type SimpleCBOW struct {
	paramList
	in0, in1 *nn.MatMul
	out      *nn.MatMul
	loss     *nn.SoftmaxWithLoss
	wordVecs *tensor.Tensor
}

// NewSimpleCBOW creates the model with W_in (V, H) and W_out (H, V) drawn
// from 0.01·N(0, 1).
func NewSimpleCBOW(rng *rand.Rand, vocabSize, hiddenSize int) *SimpleCBOW {
	Win := nn.Normal(rng, 0.01, vocabSize, hiddenSize)
	Wout := nn.Normal(rng, 0.01, hiddenSize, vocabSize)

	m := &SimpleCBOW{
		in0:      nn.NewMatMul(Win),
		in1:      nn.NewMatMul(Win),
		out:      nn.NewMatMul(Wout),
		loss:     nn.NewSoftmaxWithLoss(),
		wordVecs: Win,
	}
	m.paramList = collect(m.in0, m.in1, m.out)
	return m
}

// Name returns "SimpleCBOW".
func (m *SimpleCBOW) Name() string { return "SimpleCBOW" }

// Forward returns the softmax loss of predicting target from contexts.
func (m *SimpleCBOW) Forward(contexts, target *tensor.Tensor) float64 {
	h0 := m.in0.Forward(tensor.Step(contexts, 0))
	h1 := m.in1.Forward(tensor.Step(contexts, 1))
	h := tensor.Scale(tensor.Add(h0, h1), 0.5)
	return m.loss.Forward(m.out.Forward(h), target)
}

// Backward fills the gradients of the last Forward.
func (m *SimpleCBOW) Backward(dout float64) {
	da := m.out.Backward(m.loss.Backward(dout))
	da.ScaleInPlace(0.5)
	m.in1.Backward(da)
	m.in0.Backward(da)
}

// WordVecs returns W_in.
func (m *SimpleCBOW) WordVecs() *tensor.Tensor { return m.wordVecs }

// SimpleSkipGram predicts both neighbours of a word from the word itself.
//
// Inputs are one-hot: contexts (N, 2, V) and target (N, V). The loss is the
// sum of the two softmax losses.
type SimpleSkipGram struct {
	paramList
	in           *nn.MatMul
	out          *nn.MatMul
	loss1, loss2 *nn.SoftmaxWithLoss
	wordVecs     *tensor.Tensor
}

// NewSimpleSkipGram creates the model with W_in (V, H) and W_out (H, V).
func NewSimpleSkipGram(rng *rand.Rand, vocabSize, hiddenSize int) *SimpleSkipGram {
	Win := nn.Normal(rng, 0.01, vocabSize, hiddenSize)
	Wout := nn.Normal(rng, 0.01, hiddenSize, vocabSize)

	m := &SimpleSkipGram{
		in:       nn.NewMatMul(Win),
		out:      nn.NewMatMul(Wout),
		loss1:    nn.NewSoftmaxWithLoss(),
		loss2:    nn.NewSoftmaxWithLoss(),
		wordVecs: Win,
	}
	m.paramList = collect(m.in, m.out)
	return m
}

// Name returns "SimpleSkipGram".
func (m *SimpleSkipGram) Name() string { return "SimpleSkipGram" }

// Forward returns the summed loss over both context positions.
func (m *SimpleSkipGram) Forward(contexts, target *tensor.Tensor) float64 {
	s := m.out.Forward(m.in.Forward(target))
	l1 := m.loss1.Forward(s, tensor.Step(contexts, 0))
	l2 := m.loss2.Forward(s, tensor.Step(contexts, 1))
	return l1 + l2
}

// Backward fills the gradients of the last Forward.
func (m *SimpleSkipGram) Backward(dout float64) {
	ds := m.loss1.Backward(dout)
	ds.AddInPlace(m.loss2.Backward(dout))
	m.in.Backward(m.out.Backward(ds))
}

// WordVecs returns W_in.
func (m *SimpleSkipGram) WordVecs() *tensor.Tensor { return m.wordVecs }

// Word2VecConfig sizes the negative-sampling word2vec models.
type Word2VecConfig struct {
	VocabSize  int
	HiddenSize int
	WindowSize int     // Context words on each side
	SampleSize int     // Negatives per target (default: 5)
	Power      float64 // Unigram smoothing power (default: 0.75)
}

func (c Word2VecConfig) withDefaults() Word2VecConfig {
	if c.SampleSize == 0 {
		c.SampleSize = 5
	}
	if c.Power == 0 {
		c.Power = nn.DefaultSamplePower
	}
	if c.WindowSize == 0 {
		c.WindowSize = 1
	}
	return c
}

// CBOW is continuous bag-of-words with embedding lookups and negative sampling.
//
// contexts are ids (N, 2·window) and target ids (N). The 2·window context
// embeddings share W_in and are averaged into h. The output side scores the
// target and SampleSize negatives against W_out (V, H).
//
// Example:
//
//	model := models.NewCBOW(rng, models.Word2VecConfig{
//	    VocabSize: len(id2word), HiddenSize: 100, WindowSize: 5,
//	}, corpus)
type CBOW struct {
	paramList
	inLayers []*nn.Embedding
	nsLoss   *nn.NegativeSamplingLoss
	wordVecs *tensor.Tensor
}

// NewCBOW creates the model. corpus feeds the negative sampler.
func NewCBOW(rng *rand.Rand, cfg Word2VecConfig, corpus []int) *CBOW {
	cfg = cfg.withDefaults()
	Win := nn.Normal(rng, 0.01, cfg.VocabSize, cfg.HiddenSize)
	Wout := nn.Normal(rng, 0.01, cfg.VocabSize, cfg.HiddenSize)

	m := &CBOW{wordVecs: Win}
	hs := make([]holder, 0, 2*cfg.WindowSize+1)
	for range 2 * cfg.WindowSize {
		layer := nn.NewEmbedding(Win)
		m.inLayers = append(m.inLayers, layer)
		hs = append(hs, layer)
	}
	sampler := nn.NewUnigramSampler(rng, corpus, cfg.Power, cfg.SampleSize)
	m.nsLoss = nn.NewNegativeSamplingLoss(Wout, sampler)
	m.paramList = collect(append(hs, m.nsLoss)...)
	return m
}

// Name returns "CBOW".
func (m *CBOW) Name() string { return "CBOW" }

// Forward returns the negative-sampling loss of predicting target from contexts.
func (m *CBOW) Forward(contexts, target *tensor.Tensor) float64 {
	var h *tensor.Tensor
	for i, layer := range m.inLayers {
		v := layer.Forward(tensor.Step(contexts, i))
		if h == nil {
			h = v
		} else {
			h.AddInPlace(v)
		}
	}
	h.ScaleInPlace(1 / float64(len(m.inLayers)))
	return m.nsLoss.Forward(h, target)
}

// Backward fills the gradients of the last Forward.
func (m *CBOW) Backward(dout float64) {
	dh := m.nsLoss.Backward(dout)
	dh.ScaleInPlace(1 / float64(len(m.inLayers)))
	for _, layer := range m.inLayers {
		layer.Backward(dh)
	}
}

// WordVecs returns W_in.
func (m *CBOW) WordVecs() *tensor.Tensor { return m.wordVecs }

// SkipGram predicts every context word from the centre word with negative
// sampling, one loss per context position.
//
// contexts are ids (N, 2·window) and target ids (N).
type SkipGram struct {
	paramList
	in         *nn.Embedding
	lossLayers []*nn.NegativeSamplingLoss
	wordVecs   *tensor.Tensor
}

// NewSkipGram creates the model. All context losses share one sampler and W_out.
func NewSkipGram(rng *rand.Rand, cfg Word2VecConfig, corpus []int) *SkipGram {
	cfg = cfg.withDefaults()
	Win := nn.Normal(rng, 0.01, cfg.VocabSize, cfg.HiddenSize)
	Wout := nn.Normal(rng, 0.01, cfg.VocabSize, cfg.HiddenSize)

	m := &SkipGram{in: nn.NewEmbedding(Win), wordVecs: Win}
	sampler := nn.NewUnigramSampler(rng, corpus, cfg.Power, cfg.SampleSize)
	hs := []holder{m.in}
	for range 2 * cfg.WindowSize {
		layer := nn.NewNegativeSamplingLoss(Wout, sampler)
		m.lossLayers = append(m.lossLayers, layer)
		hs = append(hs, layer)
	}
	m.paramList = collect(hs...)
	return m
}

// Name returns "SkipGram".
func (m *SkipGram) Name() string { return "SkipGram" }

// Forward returns the summed loss over all context positions.
func (m *SkipGram) Forward(contexts, target *tensor.Tensor) float64 {
	h := m.in.Forward(target)
	var loss float64
	for i, layer := range m.lossLayers {
		loss += layer.Forward(h, tensor.Step(contexts, i))
	}
	return loss
}

// Backward fills the gradients of the last Forward.
func (m *SkipGram) Backward(dout float64) {
	var dh *tensor.Tensor
	for _, layer := range m.lossLayers {
		g := layer.Backward(dout)
		if dh == nil {
			dh = g
		} else {
			dh.AddInPlace(g)
		}
	}
	m.in.Backward(dh)
}

// WordVecs returns W_in.
func (m *SkipGram) WordVecs() *tensor.Tensor { return m.wordVecs }
