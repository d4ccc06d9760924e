package nn

import (
	"github.com/born-ml/deepzero/internal/tensor"
)

// AttentionWeight scores every encoder step against a decoder state and
// normalises the scores with a softmax over time.
//
//	s[n, t] = Σ_h hs[n, t, h]·h[n, h]
//	a[n, :] = softmax(s[n, :])
//
// Input shapes: hs (N, T, H), h (N, H). Output shape: (N, T).
type AttentionWeight struct {
	softmax *Softmax
	hs, h   *tensor.Tensor
}

// NewAttentionWeight creates the layer.
func NewAttentionWeight() *AttentionWeight {
	return &AttentionWeight{softmax: NewSoftmax()}
}

// Forward returns the attention distribution a (N, T).
func (w *AttentionWeight) Forward(hs, h *tensor.Tensor) *tensor.Tensor {
	n, T, H := hs.Dim(0), hs.Dim(1), hs.Dim(2)
	if h.Len() != n*H {
		panic(&tensor.ShapeError{Op: "AttentionWeight.Forward", Got: h.Shape().Clone(), Want: tensor.Shape{n, H}})
	}
	s := tensor.Zeros(n, T)
	hd, hv := hs.Data(), h.Data()
	for i := 0; i < n; i++ {
		for t := 0; t < T; t++ {
			var sum float64
			base := (i*T + t) * H
			for k := 0; k < H; k++ {
				sum += hd[base+k] * hv[i*H+k]
			}
			s.Data()[i*T+t] = sum
		}
	}
	w.hs, w.h = hs, h
	return w.softmax.Forward(s)
}

// Backward returns (dhs, dh) for the upstream gradient da (N, T).
func (w *AttentionWeight) Backward(da *tensor.Tensor) (dhs, dh *tensor.Tensor) {
	if w.hs == nil {
		panic(noCache("AttentionWeight.Backward"))
	}
	n, T, H := w.hs.Dim(0), w.hs.Dim(1), w.hs.Dim(2)
	ds := w.softmax.Backward(da).Data()
	dhs = tensor.Zeros(n, T, H)
	dh = tensor.Zeros(n, H)
	hd, hv := w.hs.Data(), w.h.Data()
	for i := 0; i < n; i++ {
		for t := 0; t < T; t++ {
			g := ds[i*T+t]
			base := (i*T + t) * H
			for k := 0; k < H; k++ {
				dhs.Data()[base+k] = g * hv[i*H+k]
				dh.Data()[i*H+k] += g * hd[base+k]
			}
		}
	}
	return dhs, dh
}

// WeightSum forms the context vector as the attention-weighted sum of
// encoder states:
//
//	c[n, h] = Σ_t hs[n, t, h]·a[n, t]
//
// Input shapes: hs (N, T, H), a (N, T). Output shape: (N, H).
type WeightSum struct {
	hs, a *tensor.Tensor
}

// NewWeightSum creates the layer.
func NewWeightSum() *WeightSum {
	return &WeightSum{}
}

// Forward returns the context vector c (N, H).
func (w *WeightSum) Forward(hs, a *tensor.Tensor) *tensor.Tensor {
	n, T, H := hs.Dim(0), hs.Dim(1), hs.Dim(2)
	if a.Len() != n*T {
		panic(&tensor.ShapeError{Op: "WeightSum.Forward", Got: a.Shape().Clone(), Want: tensor.Shape{n, T}})
	}
	c := tensor.Zeros(n, H)
	hd, ad := hs.Data(), a.Data()
	for i := 0; i < n; i++ {
		for t := 0; t < T; t++ {
			wt := ad[i*T+t]
			base := (i*T + t) * H
			for k := 0; k < H; k++ {
				c.Data()[i*H+k] += wt * hd[base+k]
			}
		}
	}
	w.hs, w.a = hs, a
	return c
}

// Backward returns (dhs, da) for the upstream gradient dc (N, H).
func (w *WeightSum) Backward(dc *tensor.Tensor) (dhs, da *tensor.Tensor) {
	if w.hs == nil {
		panic(noCache("WeightSum.Backward"))
	}
	n, T, H := w.hs.Dim(0), w.hs.Dim(1), w.hs.Dim(2)
	dhs = tensor.Zeros(n, T, H)
	da = tensor.Zeros(n, T)
	hd, ad, g := w.hs.Data(), w.a.Data(), dc.Data()
	for i := 0; i < n; i++ {
		for t := 0; t < T; t++ {
			base := (i*T + t) * H
			var sum float64
			for k := 0; k < H; k++ {
				dhs.Data()[base+k] = g[i*H+k] * ad[i*T+t]
				sum += g[i*H+k] * hd[base+k]
			}
			da.Data()[i*T+t] = sum
		}
	}
	return dhs, da
}

// Attention combines AttentionWeight and WeightSum: it attends over encoder
// states hs (N, T, H) from a decoder state h (N, H) and returns the context
// vector (N, H).
type Attention struct {
	weightLayer *AttentionWeight
	sumLayer    *WeightSum
	weight      *tensor.Tensor
}

// NewAttention creates the layer.
func NewAttention() *Attention {
	return &Attention{weightLayer: NewAttentionWeight(), sumLayer: NewWeightSum()}
}

// Forward returns the context vector.
func (a *Attention) Forward(hs, h *tensor.Tensor) *tensor.Tensor {
	a.weight = a.weightLayer.Forward(hs, h)
	return a.sumLayer.Forward(hs, a.weight)
}

// Backward returns (dhs, dh).
func (a *Attention) Backward(dout *tensor.Tensor) (dhs, dh *tensor.Tensor) {
	dhs0, da := a.sumLayer.Backward(dout)
	dhs1, dh := a.weightLayer.Backward(da)
	dhs0.AddInPlace(dhs1)
	return dhs0, dh
}

// Weight returns the attention distribution (N, T) of the last Forward call.
func (a *Attention) Weight() *tensor.Tensor { return a.weight }

// TimeAttention applies Attention at every decoder step.
//
// Each step gets its own Attention instance so that Backward can revisit the
// per-step caches. Backward sums the encoder gradients over all steps and
// returns the decoder gradients per step.
type TimeAttention struct {
	layers   []*Attention
	encShape tensor.Shape
}

// NewTimeAttention creates the layer.
func NewTimeAttention() *TimeAttention {
	return &TimeAttention{}
}

// Forward returns contexts (N, Td, H) for encoder states hsEnc (N, Te, H) and
// decoder states hsDec (N, Td, H).
func (a *TimeAttention) Forward(hsEnc, hsDec *tensor.Tensor) *tensor.Tensor {
	T := hsDec.Dim(1)
	out := tensor.ZerosLike(hsDec)
	a.layers = make([]*Attention, T)
	a.encShape = hsEnc.Shape().Clone()
	for t := 0; t < T; t++ {
		layer := NewAttention()
		tensor.SetStep(out, t, layer.Forward(hsEnc, tensor.Step(hsDec, t)))
		a.layers[t] = layer
	}
	return out
}

// Backward returns (dhsEnc, dhsDec).
func (a *TimeAttention) Backward(dout *tensor.Tensor) (dhsEnc, dhsDec *tensor.Tensor) {
	if a.layers == nil {
		panic(noCache("TimeAttention.Backward"))
	}
	dhsDec = tensor.ZerosLike(dout)
	dhsEnc = tensor.Zeros(a.encShape...)
	for t, layer := range a.layers {
		dhs, dh := layer.Backward(tensor.Step(dout, t))
		dhsEnc.AddInPlace(dhs)
		tensor.SetStep(dhsDec, t, dh)
	}
	return dhsEnc, dhsDec
}

// Weights returns the per-step attention distributions of the last Forward.
func (a *TimeAttention) Weights() []*tensor.Tensor {
	ws := make([]*tensor.Tensor, len(a.layers))
	for i, l := range a.layers {
		ws[i] = l.Weight()
	}
	return ws
}
