package nn

import (
	"github.com/born-ml/deepzero/internal/tensor"
)

// RNN is a single vanilla recurrent step: h' = tanh(h·Wh + x·Wx + b).
//
// The cell references the weights it is given and owns its own gradient
// buffers. TimeRNN creates one cell per time step over shared weights.
type RNN struct {
	paramSet
	x, hPrev, hNext *tensor.Tensor
}

// NewRNN wraps Wx (D, H), Wh (H, H) and b (H).
func NewRNN(Wx, Wh, b *tensor.Tensor) *RNN {
	return &RNN{paramSet: newParamSet(Wx, Wh, b)}
}

// Forward computes the next hidden state for x (N, D) and hPrev (N, H).
func (r *RNN) Forward(x, hPrev *tensor.Tensor) *tensor.Tensor {
	Wx, Wh, b := r.params[0], r.params[1], r.params[2]
	t := tensor.MatMul(hPrev, Wh)
	t.AddInPlace(tensor.MatMul(x, Wx))
	r.x, r.hPrev = x, hPrev
	r.hNext = tensor.Tanh(tensor.AddRowVector(t, b))
	return r.hNext
}

// Backward overwrites dWx, dWh, db and returns (dx, dhPrev).
func (r *RNN) Backward(dhNext *tensor.Tensor) (dx, dhPrev *tensor.Tensor) {
	if r.hNext == nil {
		panic(noCache("RNN.Backward"))
	}
	Wx, Wh := r.params[0], r.params[1]
	dt := tensor.ZerosLike(dhNext)
	h, d, g := r.hNext.Data(), dhNext.Data(), dt.Data()
	for i := range g {
		g[i] = d[i] * (1 - h[i]*h[i])
	}
	r.grads[2].CopyFrom(tensor.SumRows(dt))
	r.grads[1].CopyFrom(tensor.MatMulTransA(r.hPrev, dt))
	r.grads[0].CopyFrom(tensor.MatMulTransA(r.x, dt))
	return tensor.MatMulTransB(dt, Wx), tensor.MatMulTransB(dt, Wh)
}

// TimeRNN unrolls an RNN over T steps.
//
// Input shape: (N, T, D). Output shape: (N, T, H).
//
// When stateful, the last hidden state is carried into the next Forward
// call until ResetState. Backward sums the per-step weight gradients into the
// layer's buffers and keeps the gradient w.r.t. the carried-in state in DH.
type TimeRNN struct {
	paramSet
	layers   []*RNN
	h, dh    *tensor.Tensor
	stateful bool
}

// NewTimeRNN wraps Wx (D, H), Wh (H, H) and b (H).
func NewTimeRNN(Wx, Wh, b *tensor.Tensor, stateful bool) *TimeRNN {
	return &TimeRNN{paramSet: newParamSet(Wx, Wh, b), stateful: stateful}
}

// Forward runs the cell over every time step of xs.
func (r *TimeRNN) Forward(xs *tensor.Tensor) *tensor.Tensor {
	n, T := xs.Dim(0), xs.Dim(1)
	H := r.params[1].Dim(0)

	if !r.stateful || r.h == nil {
		r.h = tensor.Zeros(n, H)
	}
	hs := tensor.Zeros(n, T, H)
	r.layers = make([]*RNN, T)
	for t := 0; t < T; t++ {
		cell := NewRNN(r.params[0], r.params[1], r.params[2])
		r.h = cell.Forward(tensor.Step(xs, t), r.h)
		tensor.SetStep(hs, t, r.h)
		r.layers[t] = cell
	}
	return hs
}

// Backward walks the steps in reverse and returns dxs (N, T, D).
func (r *TimeRNN) Backward(dhs *tensor.Tensor) *tensor.Tensor {
	if r.layers == nil {
		panic(noCache("TimeRNN.Backward"))
	}
	n, T := dhs.Dim(0), dhs.Dim(1)
	D := r.params[0].Dim(0)

	dxs := tensor.Zeros(n, T, D)
	for _, g := range r.grads {
		g.Zero()
	}
	dh := tensor.Zeros(n, dhs.Dim(2))
	for t := T - 1; t >= 0; t-- {
		cell := r.layers[t]
		dhTotal := tensor.Step(dhs, t)
		dhTotal.AddInPlace(dh)
		var dx *tensor.Tensor
		dx, dh = cell.Backward(dhTotal)
		tensor.SetStep(dxs, t, dx)
		for i, g := range cell.grads {
			r.grads[i].AddInPlace(g)
		}
	}
	r.dh = dh
	return dxs
}

// SetState injects the hidden state used by the next Forward call.
func (r *TimeRNN) SetState(h *tensor.Tensor) { r.h = h }

// ResetState clears the carried hidden state.
func (r *TimeRNN) ResetState() { r.h = nil }

// State returns the last hidden state, or nil before the first Forward.
func (r *TimeRNN) State() *tensor.Tensor { return r.h }

// DH returns the gradient w.r.t. the initial hidden state of the last
// Backward call.
func (r *TimeRNN) DH() *tensor.Tensor { return r.dh }
