// Package tensor provides the dense float64 n-dimensional array used by every
// layer, optimizer and trainer in deepzero.
//
// Data is stored contiguously in row-major order. Index tensors (word ids,
// class labels) are ordinary tensors whose elements hold whole numbers.
//
// Matrix products run through gonum's BLAS implementation; element-wise
// kernels use gonum/floats where a kernel exists.
//
// Example:
//
//	w := tensor.Randn(rng, 3, 4)
//	x := tensor.New([]float64{1, 2, 3}, 1, 3)
//	y := tensor.MatMul(x, w) // shape (1, 4)
package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense row-major float64 array.
//
// Tensors are mutable: layers update gradient buffers in place and optimizers
// update parameters in place. Pointer identity is meaningful, a parameter
// shared by two layers is the same *Tensor.
type Tensor struct {
	data  []float64
	shape Shape
}

// New creates a tensor that takes ownership of data.
// Panics if len(data) does not match the shape.
func New(data []float64, shape ...int) *Tensor {
	s := Shape(shape)
	if s.NumElements() != len(data) {
		panic(&ShapeError{Op: "tensor.New", Got: Shape{len(data)}, Want: s.Clone()})
	}
	return &Tensor{data: data, shape: s.Clone()}
}

// Shape returns the tensor's shape. The returned slice must not be modified.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Dim returns the size of dimension i. Negative i counts from the end.
func (t *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	return t.shape[i]
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Len returns the total number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Data returns the backing slice. Writes through it modify the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(&ShapeError{Op: "Tensor.At", Got: Shape(idx).Clone(), Want: t.shape.Clone()})
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("Tensor.At: index %d out of range for dimension %d of size %d", v, i, t.shape[i]))
		}
		off = off*t.shape[i] + v
	}
	return off
}

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set stores v at the given multi-index.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

// Row returns row i of the tensor viewed as (Dim(0), rest). The slice aliases
// the tensor's storage.
func (t *Tensor) Row(i int) []float64 {
	w := len(t.data) / t.shape[0]
	return t.data[i*w : (i+1)*w]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{data: data, shape: t.shape.Clone()}
}

// CopyFrom overwrites t with the contents of src. Shapes must match.
func (t *Tensor) CopyFrom(src *Tensor) {
	mustSameShape("Tensor.CopyFrom", t, src)
	copy(t.data, src.data)
}

// Reshape returns a tensor sharing t's storage with a new shape.
// One dimension may be -1 and is inferred.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	s, err := Shape(shape).resolve(len(t.data))
	if err != nil {
		panic(&ShapeError{Op: "Tensor.Reshape", Got: Shape(shape).Clone(), Want: t.shape.Clone()})
	}
	return &Tensor{data: t.data, shape: s}
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Zero sets every element to zero.
func (t *Tensor) Zero() {
	clear(t.data)
}

// Equal reports whether both tensors have the same shape and identical elements.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}

// AllClose reports whether shapes match and every element differs by at most tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Abs(v-other.data[i]) > tol {
			return false
		}
	}
	return true
}

// Ints converts the elements to ints, truncating toward zero.
func (t *Tensor) Ints() []int {
	out := make([]int, len(t.data))
	for i, v := range t.data {
		out[i] = int(v)
	}
	return out
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	const limit = 8
	if len(t.data) <= limit {
		return fmt.Sprintf("Tensor(shape=%v, data=%v)", t.shape, t.data)
	}
	return fmt.Sprintf("Tensor(shape=%v, data=%v...)", t.shape, t.data[:limit])
}
