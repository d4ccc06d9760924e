// Package nn implements the hand-differentiated layers of deepzero.
//
// Every layer pairs a Forward pass with a Backward pass written by hand:
//   - Forward computes the output and caches what Backward needs
//   - Backward receives the upstream gradient, overwrites the layer's own
//     gradient buffers, and returns the gradient with respect to the input
//
// Building blocks:
//   - Layer: single-input layers (MatMul, Affine, Sigmoid, Softmax, Embedding, ...)
//   - LossLayer: layers that end a network and produce a scalar loss
//   - Recurrent layers: RNN and LSTM cells and their TimeRNN/TimeLSTM unrollings
//   - Attention: AttentionWeight, WeightSum, Attention and TimeAttention
//
// There is no tape and no tracing. A model is an ordered list of layers and
// its backward pass is the reverse walk over that list.
package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/deepzero/internal/tensor"
)

// ErrNoForwardCache is raised (by panic) when Backward is called on a layer
// whose Forward has not run, or when recurrent state is read before it exists.
var ErrNoForwardCache = errors.New("backward called before forward")

// Layer is the capability shared by every single-input layer.
//
// Params and Grads are parallel slices: Grads()[i] is the gradient buffer for
// Params()[i] and has the same shape. Parameter tensors may be shared between
// layers (weight tying); gradient buffers never are.
//
// Unless a layer documents otherwise, Backward overwrites its gradient buffers
// rather than accumulating into them.
type Layer interface {
	// Forward computes the output for x and caches what Backward needs.
	Forward(x *tensor.Tensor) *tensor.Tensor

	// Backward maps the upstream gradient to the gradient w.r.t. the input
	// of the most recent Forward call.
	Backward(dout *tensor.Tensor) *tensor.Tensor

	// Params returns the trainable parameters in a stable order.
	Params() []*tensor.Tensor

	// Grads returns the gradient buffers, aligned with Params.
	Grads() []*tensor.Tensor
}

// LossLayer ends a network: it consumes scores and targets and produces a
// scalar loss.
type LossLayer interface {
	Forward(x, t *tensor.Tensor) float64
	Backward(dout float64) *tensor.Tensor
}

// TrainModeSetter is implemented by layers that behave differently while
// training, such as TimeDropout.
type TrainModeSetter interface {
	SetTrain(train bool)
}

// StateResetter is implemented by layers that carry state between calls.
type StateResetter interface {
	ResetState()
}

// paramSet holds a layer's parameters and their gradient buffers.
// Layers embed it to satisfy Params and Grads.
type paramSet struct {
	params []*tensor.Tensor
	grads  []*tensor.Tensor
}

func newParamSet(params ...*tensor.Tensor) paramSet {
	grads := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		grads[i] = tensor.ZerosLike(p)
	}
	return paramSet{params: params, grads: grads}
}

// Params returns the trainable parameters.
func (p *paramSet) Params() []*tensor.Tensor { return p.params }

// Grads returns the gradient buffers.
func (p *paramSet) Grads() []*tensor.Tensor { return p.grads }

func noCache(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNoForwardCache)
}

// CollectParams flattens the parameters and gradients of layers in order.
// Shared parameters appear once per owning layer.
func CollectParams(layers ...Layer) (params, grads []*tensor.Tensor) {
	for _, l := range layers {
		params = append(params, l.Params()...)
		grads = append(grads, l.Grads()...)
	}
	return params, grads
}
