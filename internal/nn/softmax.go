package nn

import (
	"math"

	"github.com/born-ml/deepzero/internal/tensor"
)

// crossEntropyEps keeps log() finite for zero probabilities.
const crossEntropyEps = 1e-7

// SoftmaxFunc applies softmax along the innermost dimension.
// Each row is shifted by its maximum before exponentiation.
func SoftmaxFunc(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	d := x.Shape().Last()
	data := out.Data()
	for off := 0; off < len(data); off += d {
		row := data[off : off+d]
		maxV := math.Inf(-1)
		for _, v := range row {
			maxV = math.Max(maxV, v)
		}
		var sum float64
		for i, v := range row {
			row[i] = math.Exp(v - maxV)
			sum += row[i]
		}
		for i := range row {
			row[i] /= sum
		}
	}
	return out
}

// CrossEntropyError returns the mean of -log(y[i, t[i]]) over the rows of
// y viewed as (-1, C).
func CrossEntropyError(y *tensor.Tensor, t []int) float64 {
	c := y.Shape().Last()
	data := y.Data()
	var loss float64
	for i, label := range t {
		loss -= math.Log(data[i*c+label] + crossEntropyEps)
	}
	return loss / float64(len(t))
}

// labels returns class indices for t, converting one-hot rows of width c
// when t carries one entry per class.
func labels(t *tensor.Tensor, rows, c int) []int {
	if t.Len() == rows*c && c > 1 {
		return tensor.ArgmaxLast(t.Reshape(rows, c))
	}
	if t.Len() != rows {
		panic(&tensor.ShapeError{Op: "nn.labels", Got: t.Shape().Clone(), Want: tensor.Shape{rows}})
	}
	return t.Ints()
}

// Softmax is a standalone softmax layer over the innermost dimension.
type Softmax struct {
	out *tensor.Tensor
}

// NewSoftmax creates a new Softmax layer.
func NewSoftmax() *Softmax {
	return &Softmax{}
}

// Forward applies the softmax.
func (s *Softmax) Forward(x *tensor.Tensor) *tensor.Tensor {
	s.out = SoftmaxFunc(x)
	return s.out
}

// Backward returns y·dout − y·rowsum(y·dout).
func (s *Softmax) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if s.out == nil {
		panic(noCache("Softmax.Backward"))
	}
	return softmaxBackward(s.out, dout)
}

// Params returns nil (Softmax has no trainable parameters).
func (s *Softmax) Params() []*tensor.Tensor { return nil }

// Grads returns nil.
func (s *Softmax) Grads() []*tensor.Tensor { return nil }

func softmaxBackward(y, dout *tensor.Tensor) *tensor.Tensor {
	dx := tensor.Mul(y, dout)
	d := y.Shape().Last()
	g, yd := dx.Data(), y.Data()
	for off := 0; off < len(g); off += d {
		var sum float64
		for _, v := range g[off : off+d] {
			sum += v
		}
		for i := off; i < off+d; i++ {
			g[i] -= yd[i] * sum
		}
	}
	return dx
}

// SoftmaxWithLoss fuses softmax with cross-entropy.
//
// Targets are class indices of shape (N) or one-hot rows of shape (N, C);
// the form is detected by element count.
//
// Backward: dx = (y − onehot(t)) · dout / N.
type SoftmaxWithLoss struct {
	y *tensor.Tensor
	t []int
}

// NewSoftmaxWithLoss creates the fused layer.
func NewSoftmaxWithLoss() *SoftmaxWithLoss {
	return &SoftmaxWithLoss{}
}

// Forward returns the mean cross-entropy loss over the N rows of x (N, C).
func (s *SoftmaxWithLoss) Forward(x, t *tensor.Tensor) float64 {
	c := x.Shape().Last()
	rows := x.Len() / c
	s.t = labels(t, rows, c)
	s.y = SoftmaxFunc(x)
	return CrossEntropyError(s.y, s.t)
}

// Backward returns the gradient w.r.t. the scores.
func (s *SoftmaxWithLoss) Backward(dout float64) *tensor.Tensor {
	if s.y == nil {
		panic(noCache("SoftmaxWithLoss.Backward"))
	}
	dx := s.y.Clone()
	c := dx.Shape().Last()
	g := dx.Data()
	for i, label := range s.t {
		g[i*c+label]--
	}
	dx.ScaleInPlace(dout / float64(len(s.t)))
	return dx
}

// SigmoidWithLoss fuses the sigmoid with binary cross-entropy.
//
// Targets are 0/1 values with the same number of elements as the scores.
// Backward: dx = (y − t) · dout / N.
type SigmoidWithLoss struct {
	y *tensor.Tensor
	t *tensor.Tensor
}

// NewSigmoidWithLoss creates the fused layer.
func NewSigmoidWithLoss() *SigmoidWithLoss {
	return &SigmoidWithLoss{}
}

// Forward returns the mean binary cross-entropy.
func (s *SigmoidWithLoss) Forward(x, t *tensor.Tensor) float64 {
	if x.Len() != t.Len() {
		panic(&tensor.ShapeError{Op: "SigmoidWithLoss.Forward", Got: t.Shape().Clone(), Want: x.Shape().Clone()})
	}
	s.t = t
	s.y = tensor.Sigmoid(x)
	var loss float64
	td := t.Data()
	for i, y := range s.y.Data() {
		if td[i] > 0.5 {
			loss -= math.Log(y + crossEntropyEps)
		} else {
			loss -= math.Log(1 - y + crossEntropyEps)
		}
	}
	return loss / float64(x.Len())
}

// Backward returns (y − t) · dout / N.
func (s *SigmoidWithLoss) Backward(dout float64) *tensor.Tensor {
	if s.y == nil {
		panic(noCache("SigmoidWithLoss.Backward"))
	}
	dx := tensor.Sub(s.y, s.t.Reshape(s.y.Shape()...))
	dx.ScaleInPlace(dout / float64(dx.Len()))
	return dx
}
