package nn

import (
	"github.com/born-ml/deepzero/internal/tensor"
)

// Sigmoid is a sigmoid activation layer.
//
// Applies the element-wise function: f(x) = 1 / (1 + exp(-x)).
// The backward pass reuses the cached output: dx = dout·y·(1-y).
type Sigmoid struct {
	out *tensor.Tensor
}

// NewSigmoid creates a new Sigmoid activation layer.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward applies the sigmoid.
func (s *Sigmoid) Forward(x *tensor.Tensor) *tensor.Tensor {
	s.out = tensor.Sigmoid(x)
	return s.out
}

// Backward returns dout·y·(1-y).
func (s *Sigmoid) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if s.out == nil {
		panic(noCache("Sigmoid.Backward"))
	}
	dx := tensor.ZerosLike(dout)
	y, d, g := s.out.Data(), dout.Data(), dx.Data()
	for i := range g {
		g[i] = d[i] * y[i] * (1 - y[i])
	}
	return dx
}

// Params returns nil (Sigmoid has no trainable parameters).
func (s *Sigmoid) Params() []*tensor.Tensor { return nil }

// Grads returns nil.
func (s *Sigmoid) Grads() []*tensor.Tensor { return nil }

// ReLU is a Rectified Linear Unit activation layer.
//
// Applies the element-wise function: f(x) = max(0, x).
type ReLU struct {
	mask []bool
}

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies max(0, x).
func (r *ReLU) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	r.mask = make([]bool, out.Len())
	for i, v := range out.Data() {
		if v <= 0 {
			r.mask[i] = true
			out.Data()[i] = 0
		}
	}
	return out
}

// Backward zeroes the gradient where the input was not positive.
func (r *ReLU) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if r.mask == nil {
		panic(noCache("ReLU.Backward"))
	}
	dx := dout.Clone()
	for i, m := range r.mask {
		if m {
			dx.Data()[i] = 0
		}
	}
	return dx
}

// Params returns nil (ReLU has no trainable parameters).
func (r *ReLU) Params() []*tensor.Tensor { return nil }

// Grads returns nil.
func (r *ReLU) Grads() []*tensor.Tensor { return nil }
