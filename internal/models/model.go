// Package models composes nn layers into the trainable networks of deepzero.
//
// Every model exposes the same training surface:
//   - Forward(x, t) runs the layers in order and returns the scalar loss
//   - Backward(dout) walks the layers in reverse and fills their gradients
//   - Params and Grads list parameters and gradient buffers in a stable order
//
// Parameters shared between layers (weight tying) appear once per owning
// layer; train.Deduplicate merges them before each optimizer step. The
// order of Params is also the checkpoint order used by SaveParams and
// LoadParams.
package models

import (
	"errors"
	"fmt"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

// ErrNoState is returned when recurrent state is read before any forward
// pass has created it.
var ErrNoState = errors.New("models: no recurrent state")

// Model is a network that can be trained and checkpointed.
type Model interface {
	// Name identifies the architecture, e.g. "Rnnlm". It tags checkpoints.
	Name() string

	Forward(x, t *tensor.Tensor) float64
	Backward(dout float64)
	Params() []*tensor.Tensor
	Grads() []*tensor.Tensor
}

// LanguageModel is a recurrent model over token ids.
type LanguageModel interface {
	Model

	// Predict returns the scores (N, T, V) for ids (N, T) without a loss.
	Predict(xs *tensor.Tensor) *tensor.Tensor

	// VocabSize returns V.
	VocabSize() int

	ResetState()
	State() ([]State, error)
	SetState(states []State) error
}

// State is the carried state of one recurrent layer. C is nil for plain RNNs.
type State struct {
	H *tensor.Tensor
	C *tensor.Tensor
}

// holder is anything that owns parameters.
type holder interface {
	Params() []*tensor.Tensor
	Grads() []*tensor.Tensor
}

// paramList is the flattened parameter view shared by every model.
type paramList struct {
	params []*tensor.Tensor
	grads  []*tensor.Tensor
}

func collect(hs ...holder) paramList {
	var p paramList
	for _, h := range hs {
		p.params = append(p.params, h.Params()...)
		p.grads = append(p.grads, h.Grads()...)
	}
	return p
}

// Params returns the trainable parameters.
func (p *paramList) Params() []*tensor.Tensor { return p.params }

// Grads returns the gradient buffers, aligned with Params.
func (p *paramList) Grads() []*tensor.Tensor { return p.grads }

// forwardAll runs x through layers in order.
func forwardAll(x *tensor.Tensor, layers []nn.Layer) *tensor.Tensor {
	for _, l := range layers {
		x = l.Forward(x)
	}
	return x
}

// backwardAll runs dout through layers in reverse order.
func backwardAll(dout *tensor.Tensor, layers []nn.Layer) *tensor.Tensor {
	for i := len(layers) - 1; i >= 0; i-- {
		dout = layers[i].Backward(dout)
	}
	return dout
}

// sumSteps reduces (N, T, H) to (N, H) by summing over time.
func sumSteps(x *tensor.Tensor) *tensor.Tensor {
	out := tensor.Zeros(x.Dim(0), x.Dim(2))
	for t := range x.Dim(1) {
		out.AddInPlace(tensor.Step(x, t))
	}
	return out
}

// repeatSteps broadcasts h (N, H) to (N, T, H).
func repeatSteps(h *tensor.Tensor, T int) *tensor.Tensor {
	out := tensor.Zeros(h.Dim(0), T, h.Dim(1))
	for t := range T {
		tensor.SetStep(out, t, h)
	}
	return out
}

// lastStep returns step T-1 of (N, T, H).
func lastStep(hs *tensor.Tensor) *tensor.Tensor {
	return tensor.Step(hs, hs.Dim(1)-1)
}

func cloneOrNil(t *tensor.Tensor) *tensor.Tensor {
	if t == nil {
		return nil
	}
	return t.Clone()
}

func checkStates(name string, got []State, want int) error {
	if len(got) != want {
		return fmt.Errorf("%s.SetState: %d states for %d recurrent layers", name, len(got), want)
	}
	for i, s := range got {
		if s.H == nil {
			return fmt.Errorf("%s.SetState: state %d: %w", name, i, ErrNoState)
		}
	}
	return nil
}
