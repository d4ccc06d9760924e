package nn

import (
	"github.com/born-ml/deepzero/internal/tensor"
)

// MatMul computes out = x·W with no bias.
//
// Gradients: dx = dout·Wᵀ, dW = xᵀ·dout.
type MatMul struct {
	paramSet
	x *tensor.Tensor
}

// NewMatMul wraps W (D, H). The tensor is used as is, not copied.
func NewMatMul(W *tensor.Tensor) *MatMul {
	return &MatMul{paramSet: newParamSet(W)}
}

// Forward computes x·W for x of shape (N, D).
func (m *MatMul) Forward(x *tensor.Tensor) *tensor.Tensor {
	m.x = x
	return tensor.MatMul(x, m.params[0])
}

// Backward returns dout·Wᵀ and overwrites dW with xᵀ·dout.
func (m *MatMul) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if m.x == nil {
		panic(noCache("MatMul.Backward"))
	}
	dx := tensor.MatMulTransB(dout, m.params[0])
	m.grads[0].CopyFrom(tensor.MatMulTransA(m.x, dout))
	return dx
}

// Affine is a fully connected layer: out = x·W + b.
//
// Input shape: (N, D). Output shape: (N, H).
//
// Example:
//
//	fc := nn.NewAffine(nn.Normal(rng, 0.01, 2, 10), nn.Zeros(10))
//	h := fc.Forward(x) // (N, 10)
type Affine struct {
	paramSet
	x *tensor.Tensor
}

// NewAffine wraps W (D, H) and b (H).
func NewAffine(W, b *tensor.Tensor) *Affine {
	return &Affine{paramSet: newParamSet(W, b)}
}

// Forward computes x·W + b.
func (a *Affine) Forward(x *tensor.Tensor) *tensor.Tensor {
	a.x = x
	return tensor.AddRowVector(tensor.MatMul(x, a.params[0]), a.params[1])
}

// Backward returns dout·Wᵀ and overwrites dW = xᵀ·dout, db = Σ_rows dout.
func (a *Affine) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if a.x == nil {
		panic(noCache("Affine.Backward"))
	}
	dx := tensor.MatMulTransB(dout, a.params[0])
	a.grads[0].CopyFrom(tensor.MatMulTransA(a.x, dout))
	a.grads[1].CopyFrom(tensor.SumRows(dout))
	return dx
}
