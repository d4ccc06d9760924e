package nn

import (
	"math"

	"github.com/born-ml/deepzero/internal/tensor"
)

// LSTM is a single long short-term memory step.
//
// The affine pre-activation A = x·Wx + h·Wh + b has width 4H and is split
// into gate blocks in the order f, g, i, o:
//
//	f = σ(A[:, 0:H])    forget
//	g = tanh(A[:, H:2H]) candidate
//	i = σ(A[:, 2H:3H])  input
//	o = σ(A[:, 3H:4H])  output
//	c' = f·c + g·i
//	h' = o·tanh(c')
//
// Backward concatenates the gate gradients in the same order.
type LSTM struct {
	paramSet
	x, hPrev, cPrev *tensor.Tensor
	f, g, i, o      *tensor.Tensor
	cNext           *tensor.Tensor
}

// NewLSTM wraps Wx (D, 4H), Wh (H, 4H) and b (4H).
func NewLSTM(Wx, Wh, b *tensor.Tensor) *LSTM {
	return &LSTM{paramSet: newParamSet(Wx, Wh, b)}
}

// Forward computes (hNext, cNext) for x (N, D), hPrev and cPrev (N, H).
func (l *LSTM) Forward(x, hPrev, cPrev *tensor.Tensor) (hNext, cNext *tensor.Tensor) {
	Wx, Wh, b := l.params[0], l.params[1], l.params[2]
	H := hPrev.Dim(1)

	A := tensor.MatMul(x, Wx)
	A.AddInPlace(tensor.MatMul(hPrev, Wh))
	A = tensor.AddRowVector(A, b)

	l.f = tensor.Sigmoid(tensor.SliceLast(A, 0, H))
	l.g = tensor.Tanh(tensor.SliceLast(A, H, 2*H))
	l.i = tensor.Sigmoid(tensor.SliceLast(A, 2*H, 3*H))
	l.o = tensor.Sigmoid(tensor.SliceLast(A, 3*H, 4*H))

	cNext = tensor.Mul(l.f, cPrev)
	cNext.AddInPlace(tensor.Mul(l.g, l.i))
	hNext = tensor.Mul(l.o, tensor.Tanh(cNext))

	l.x, l.hPrev, l.cPrev, l.cNext = x, hPrev, cPrev, cNext
	return hNext, cNext
}

// Backward overwrites dWx, dWh, db and returns (dx, dhPrev, dcPrev).
func (l *LSTM) Backward(dhNext, dcNext *tensor.Tensor) (dx, dhPrev, dcPrev *tensor.Tensor) {
	if l.cNext == nil {
		panic(noCache("LSTM.Backward"))
	}
	Wx, Wh := l.params[0], l.params[1]
	n, H := dhNext.Dim(0), dhNext.Dim(1)

	df := tensor.Zeros(n, H)
	dg := tensor.Zeros(n, H)
	di := tensor.Zeros(n, H)
	do := tensor.Zeros(n, H)
	dcPrev = tensor.Zeros(n, H)

	f, g, i, o := l.f.Data(), l.g.Data(), l.i.Data(), l.o.Data()
	c, cp := l.cNext.Data(), l.cPrev.Data()
	dh, dc := dhNext.Data(), dcNext.Data()
	for k := range dh {
		tc := math.Tanh(c[k])
		ds := dc[k] + dh[k]*o[k]*(1-tc*tc)
		dcPrev.Data()[k] = ds * f[k]

		df.Data()[k] = ds * cp[k] * f[k] * (1 - f[k])
		dg.Data()[k] = ds * i[k] * (1 - g[k]*g[k])
		di.Data()[k] = ds * g[k] * i[k] * (1 - i[k])
		do.Data()[k] = dh[k] * tc * o[k] * (1 - o[k])
	}

	dA := tensor.Zeros(n, 4*H)
	tensor.SetLast(dA, 0, df)
	tensor.SetLast(dA, H, dg)
	tensor.SetLast(dA, 2*H, di)
	tensor.SetLast(dA, 3*H, do)

	l.grads[0].CopyFrom(tensor.MatMulTransA(l.x, dA))
	l.grads[1].CopyFrom(tensor.MatMulTransA(l.hPrev, dA))
	l.grads[2].CopyFrom(tensor.SumRows(dA))

	return tensor.MatMulTransB(dA, Wx), tensor.MatMulTransB(dA, Wh), dcPrev
}

// TimeLSTM unrolls an LSTM over T steps.
//
// Input shape: (N, T, D). Output shape: (N, T, H).
//
// When stateful, (h, c) carry into the next Forward call until ResetState.
// SetState injects a hidden state (and optionally a cell state) for the next
// Forward call, as a seq2seq decoder does with the encoder's final state.
// Backward sums per-step weight gradients and keeps the gradient w.r.t. the
// initial hidden state in DH.
type TimeLSTM struct {
	paramSet
	layers   []*LSTM
	h, c, dh *tensor.Tensor
	stateful bool
}

// NewTimeLSTM wraps Wx (D, 4H), Wh (H, 4H) and b (4H).
func NewTimeLSTM(Wx, Wh, b *tensor.Tensor, stateful bool) *TimeLSTM {
	return &TimeLSTM{paramSet: newParamSet(Wx, Wh, b), stateful: stateful}
}

// Forward runs the cell over every time step of xs.
func (l *TimeLSTM) Forward(xs *tensor.Tensor) *tensor.Tensor {
	n, T := xs.Dim(0), xs.Dim(1)
	H := l.params[1].Dim(0)

	if !l.stateful || l.h == nil {
		l.h = tensor.Zeros(n, H)
	}
	if !l.stateful || l.c == nil {
		l.c = tensor.Zeros(n, H)
	}
	hs := tensor.Zeros(n, T, H)
	l.layers = make([]*LSTM, T)
	for t := 0; t < T; t++ {
		cell := NewLSTM(l.params[0], l.params[1], l.params[2])
		l.h, l.c = cell.Forward(tensor.Step(xs, t), l.h, l.c)
		tensor.SetStep(hs, t, l.h)
		l.layers[t] = cell
	}
	return hs
}

// Backward walks the steps in reverse and returns dxs (N, T, D).
func (l *TimeLSTM) Backward(dhs *tensor.Tensor) *tensor.Tensor {
	if l.layers == nil {
		panic(noCache("TimeLSTM.Backward"))
	}
	n, T, H := dhs.Dim(0), dhs.Dim(1), dhs.Dim(2)
	D := l.params[0].Dim(0)

	dxs := tensor.Zeros(n, T, D)
	for _, g := range l.grads {
		g.Zero()
	}
	dh := tensor.Zeros(n, H)
	dc := tensor.Zeros(n, H)
	for t := T - 1; t >= 0; t-- {
		cell := l.layers[t]
		dhTotal := tensor.Step(dhs, t)
		dhTotal.AddInPlace(dh)
		var dx *tensor.Tensor
		dx, dh, dc = cell.Backward(dhTotal, dc)
		tensor.SetStep(dxs, t, dx)
		for i, g := range cell.grads {
			l.grads[i].AddInPlace(g)
		}
	}
	l.dh = dh
	return dxs
}

// SetState injects (h, c) for the next Forward call. A nil c starts the cell
// state from zero.
func (l *TimeLSTM) SetState(h, c *tensor.Tensor) {
	l.h, l.c = h, c
}

// ResetState clears the carried (h, c).
func (l *TimeLSTM) ResetState() {
	l.h, l.c = nil, nil
}

// State returns the last (h, c), or nils before the first Forward.
func (l *TimeLSTM) State() (h, c *tensor.Tensor) { return l.h, l.c }

// DH returns the gradient w.r.t. the initial hidden state of the last
// Backward call.
func (l *TimeLSTM) DH() *tensor.Tensor { return l.dh }
