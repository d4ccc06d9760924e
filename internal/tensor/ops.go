package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Add returns a + b element-wise.
func Add(a, b *Tensor) *Tensor {
	mustSameShape("tensor.Add", a, b)
	out := ZerosLike(a)
	floats.AddTo(out.data, a.data, b.data)
	return out
}

// Sub returns a - b element-wise.
func Sub(a, b *Tensor) *Tensor {
	mustSameShape("tensor.Sub", a, b)
	out := ZerosLike(a)
	floats.SubTo(out.data, a.data, b.data)
	return out
}

// Mul returns a ⊙ b element-wise.
func Mul(a, b *Tensor) *Tensor {
	mustSameShape("tensor.Mul", a, b)
	out := ZerosLike(a)
	floats.MulTo(out.data, a.data, b.data)
	return out
}

// Scale returns s·t as a new tensor.
func Scale(t *Tensor, s float64) *Tensor {
	out := t.Clone()
	floats.Scale(s, out.data)
	return out
}

// Apply returns f applied to every element of t.
func Apply(t *Tensor, f func(float64) float64) *Tensor {
	out := ZerosLike(t)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// AddInPlace adds other to t element-wise.
func (t *Tensor) AddInPlace(other *Tensor) {
	mustSameShape("Tensor.AddInPlace", t, other)
	floats.Add(t.data, other.data)
}

// AddScaledInPlace adds alpha·other to t element-wise.
func (t *Tensor) AddScaledInPlace(alpha float64, other *Tensor) {
	mustSameShape("Tensor.AddScaledInPlace", t, other)
	floats.AddScaled(t.data, alpha, other.data)
}

// ScaleInPlace multiplies every element by s.
func (t *Tensor) ScaleInPlace(s float64) {
	floats.Scale(s, t.data)
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// SumSquares returns the sum of squared elements.
func (t *Tensor) SumSquares() float64 {
	return floats.Dot(t.data, t.data)
}

// AddRowVector returns x + b where b is broadcast over every row of x viewed
// as (-1, D) and D is the size of x's innermost dimension.
func AddRowVector(x, b *Tensor) *Tensor {
	d := x.shape.Last()
	if b.Len() != d {
		panic(&ShapeError{Op: "tensor.AddRowVector", Got: b.shape.Clone(), Want: Shape{d}})
	}
	out := x.Clone()
	for off := 0; off < len(out.data); off += d {
		floats.Add(out.data[off:off+d], b.data)
	}
	return out
}

// SumRows sums x viewed as (-1, D) over its rows, returning a (D) tensor.
func SumRows(x *Tensor) *Tensor {
	d := x.shape.Last()
	out := Zeros(d)
	for off := 0; off < len(x.data); off += d {
		floats.Add(out.data, x.data[off:off+d])
	}
	return out
}

// SumLast sums over the innermost dimension, dropping it from the shape.
func SumLast(x *Tensor) *Tensor {
	d := x.shape.Last()
	outShape := x.shape[:len(x.shape)-1].Clone()
	out := Zeros(outShape...)
	for i := range out.data {
		out.data[i] = floats.Sum(x.data[i*d : (i+1)*d])
	}
	return out
}

// ArgmaxLast returns the index of the largest value along the innermost
// dimension for every leading position.
func ArgmaxLast(x *Tensor) []int {
	d := x.shape.Last()
	out := make([]int, len(x.data)/d)
	for i := range out {
		out[i] = floats.MaxIdx(x.data[i*d : (i+1)*d])
	}
	return out
}

// Sigmoid returns 1/(1+exp(-x)) element-wise.
func Sigmoid(x *Tensor) *Tensor {
	return Apply(x, sigmoid)
}

// Tanh returns tanh(x) element-wise.
func Tanh(x *Tensor) *Tensor {
	return Apply(x, math.Tanh)
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
