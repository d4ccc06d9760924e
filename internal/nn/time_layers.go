package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/tensor"
)

// DefaultIgnoreLabel marks padded target positions that contribute neither
// loss nor gradient in TimeSoftmaxWithLoss.
const DefaultIgnoreLabel = -1

// ErrLabelOutOfRange is wrapped by the panic of a loss layer given a target
// id outside the score vocabulary.
var ErrLabelOutOfRange = errors.New("target label out of range")

// TimeEmbedding looks up word vectors for every step of a (N, T) id batch.
//
// Output shape: (N, T, D). Backward zeroes dW and accumulates all steps.
type TimeEmbedding struct {
	*Embedding
}

// NewTimeEmbedding wraps W (V, D).
func NewTimeEmbedding(W *tensor.Tensor) *TimeEmbedding {
	return &TimeEmbedding{Embedding: NewEmbedding(W)}
}

// TimeAffine applies one affine map to every time step.
//
// The (N, T, D) input is flattened to (N·T, D) rows in batch-major order,
// transformed and reshaped back to (N, T, H).
type TimeAffine struct {
	paramSet
	x *tensor.Tensor
}

// NewTimeAffine wraps W (D, H) and b (H).
func NewTimeAffine(W, b *tensor.Tensor) *TimeAffine {
	return &TimeAffine{paramSet: newParamSet(W, b)}
}

// Forward computes x·W + b for every step.
func (a *TimeAffine) Forward(x *tensor.Tensor) *tensor.Tensor {
	n, T := x.Dim(0), x.Dim(1)
	W, b := a.params[0], a.params[1]
	a.x = x
	out := tensor.AddRowVector(tensor.MatMul(x.Reshape(-1, x.Dim(-1)), W), b)
	return out.Reshape(n, T, W.Dim(1))
}

// Backward overwrites dW and db and returns dx (N, T, D).
func (a *TimeAffine) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if a.x == nil {
		panic(noCache("TimeAffine.Backward"))
	}
	W := a.params[0]
	d := dout.Reshape(-1, dout.Dim(-1))
	rx := a.x.Reshape(-1, a.x.Dim(-1))

	a.grads[0].CopyFrom(tensor.MatMulTransA(rx, d))
	a.grads[1].CopyFrom(tensor.SumRows(d))
	return tensor.MatMulTransB(d, W).Reshape(a.x.Shape()...)
}

// TimeSoftmaxWithLoss applies softmax cross-entropy at every time step.
//
// Targets equal to IgnoreLabel are masked: they add nothing to the loss or
// the gradient, and the loss is the mean over unmasked positions only. A
// batch with no unmasked positions has zero loss and zero gradient.
type TimeSoftmaxWithLoss struct {
	IgnoreLabel int

	ys   *tensor.Tensor
	ts   []int
	mask []bool
	kept int
}

// NewTimeSoftmaxWithLoss creates the layer with DefaultIgnoreLabel.
func NewTimeSoftmaxWithLoss() *TimeSoftmaxWithLoss {
	return &TimeSoftmaxWithLoss{IgnoreLabel: DefaultIgnoreLabel}
}

// Forward returns the masked mean loss for scores xs (N, T, V) and targets ts
// given as ids (N, T) or one-hot (N, T, V).
func (s *TimeSoftmaxWithLoss) Forward(xs, ts *tensor.Tensor) float64 {
	V := xs.Dim(-1)
	rows := xs.Len() / V
	if ts.Len() == rows*V && ts.Rank() == xs.Rank() {
		s.ts = tensor.ArgmaxLast(ts)
	} else {
		if ts.Len() != rows {
			panic(&tensor.ShapeError{Op: "TimeSoftmaxWithLoss.Forward", Got: ts.Shape().Clone(), Want: xs.Shape()[:xs.Rank()-1].Clone()})
		}
		s.ts = ts.Ints()
	}

	s.ys = SoftmaxFunc(xs.Reshape(rows, V))
	s.mask = make([]bool, rows)
	s.kept = 0

	var loss float64
	y := s.ys.Data()
	for i, t := range s.ts {
		if t == s.IgnoreLabel {
			continue
		}
		if t < 0 || t >= V {
			panic(fmt.Errorf("TimeSoftmaxWithLoss.Forward: %w: label %d at position %d, want [0, %d) or %d",
				ErrLabelOutOfRange, t, i, V, s.IgnoreLabel))
		}
		s.mask[i] = true
		s.kept++
		loss -= math.Log(y[i*V+t] + crossEntropyEps)
	}
	s.ys = s.ys.Reshape(xs.Shape()...)
	if s.kept == 0 {
		return 0
	}
	return loss / float64(s.kept)
}

// Backward returns dxs with the shape of the scores.
func (s *TimeSoftmaxWithLoss) Backward(dout float64) *tensor.Tensor {
	if s.ys == nil {
		panic(noCache("TimeSoftmaxWithLoss.Backward"))
	}
	dx := s.ys.Clone()
	V := dx.Dim(-1)
	g := dx.Data()
	scale := 0.0
	if s.kept > 0 {
		scale = dout / float64(s.kept)
	}
	for i, t := range s.ts {
		row := g[i*V : (i+1)*V]
		if !s.mask[i] {
			clear(row)
			continue
		}
		row[t]--
		for j := range row {
			row[j] *= scale
		}
	}
	return dx
}

// TimeDropout randomly zeroes activations while training and rescales the
// survivors by 1/(1-ratio). At inference it is the identity.
type TimeDropout struct {
	ratio float64
	train bool
	rng   *rand.Rand
	mask  []float64
}

// NewTimeDropout creates a dropout layer in training mode. It panics unless
// ratio is in [0, 1).
func NewTimeDropout(rng *rand.Rand, ratio float64) *TimeDropout {
	if ratio < 0 || ratio >= 1 {
		panic(fmt.Sprintf("NewTimeDropout: ratio %v outside [0, 1)", ratio))
	}
	return &TimeDropout{ratio: ratio, train: true, rng: rng}
}

// SetTrain switches between training and inference behaviour.
func (d *TimeDropout) SetTrain(train bool) { d.train = train }

// Forward applies the dropout mask.
func (d *TimeDropout) Forward(xs *tensor.Tensor) *tensor.Tensor {
	if !d.train {
		d.mask = nil
		return xs
	}
	scale := 1 / (1 - d.ratio)
	d.mask = make([]float64, xs.Len())
	out := xs.Clone()
	for i, v := range xs.Data() {
		if d.rng.Float64() > d.ratio {
			d.mask[i] = scale
		}
		out.Data()[i] = v * d.mask[i]
	}
	return out
}

// Backward applies the same mask to the upstream gradient.
func (d *TimeDropout) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if d.mask == nil {
		return dout
	}
	dx := dout.Clone()
	for i := range dx.Data() {
		dx.Data()[i] *= d.mask[i]
	}
	return dx
}

// Params returns nil (TimeDropout has no trainable parameters).
func (d *TimeDropout) Params() []*tensor.Tensor { return nil }

// Grads returns nil.
func (d *TimeDropout) Grads() []*tensor.Tensor { return nil }
