package models

import (
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

// TwoLayerNet is Affine → Sigmoid → Affine with a softmax cross-entropy loss.
//
// Weights start at 0.01·N(0, 1) and biases at zero.
//
// Example:
//
//	model := models.NewTwoLayerNet(tensor.NewRNG(1984), 2, 10, 3)
//	loss := model.Forward(x, t)
//	model.Backward(1)
type TwoLayerNet struct {
	paramList
	layers []nn.Layer
	loss   *nn.SoftmaxWithLoss
}

// NewTwoLayerNet creates the network for inputSize features and outputSize classes.
func NewTwoLayerNet(rng *rand.Rand, inputSize, hiddenSize, outputSize int) *TwoLayerNet {
	W1 := nn.Normal(rng, 0.01, inputSize, hiddenSize)
	b1 := nn.Zeros(hiddenSize)
	W2 := nn.Normal(rng, 0.01, hiddenSize, outputSize)
	b2 := nn.Zeros(outputSize)

	m := &TwoLayerNet{
		layers: []nn.Layer{nn.NewAffine(W1, b1), nn.NewSigmoid(), nn.NewAffine(W2, b2)},
		loss:   nn.NewSoftmaxWithLoss(),
	}
	m.paramList = collect(m.layers[0], m.layers[2])
	return m
}

// Name returns "TwoLayerNet".
func (m *TwoLayerNet) Name() string { return "TwoLayerNet" }

// Predict returns the class scores (N, outputSize).
func (m *TwoLayerNet) Predict(x *tensor.Tensor) *tensor.Tensor {
	return forwardAll(x, m.layers)
}

// Forward returns the mean cross-entropy loss. t holds class ids or one-hot rows.
func (m *TwoLayerNet) Forward(x, t *tensor.Tensor) float64 {
	return m.loss.Forward(m.Predict(x), t)
}

// Backward fills the gradients of the last Forward.
func (m *TwoLayerNet) Backward(dout float64) {
	backwardAll(m.loss.Backward(dout), m.layers)
}

// Accuracy returns the fraction of rows whose arg-max score matches t.
func (m *TwoLayerNet) Accuracy(x, t *tensor.Tensor) float64 {
	pred := tensor.ArgmaxLast(m.Predict(x))
	want := t.Ints()
	if t.Rank() == 2 {
		want = tensor.ArgmaxLast(t)
	}
	hits := 0
	for i, p := range pred {
		if p == want[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(pred))
}
