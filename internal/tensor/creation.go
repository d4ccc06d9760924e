package tensor

import (
	"math/rand/v2"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(3, 4)
func Zeros(shape ...int) *Tensor {
	s := Shape(shape).Clone()
	return &Tensor{data: make([]float64, s.NumElements()), shape: s}
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape...)
}

// Ones creates a tensor filled with ones.
func Ones(shape ...int) *Tensor {
	return Full(1, shape...)
}

// Full creates a tensor filled with a specific value.
func Full(v float64, shape ...int) *Tensor {
	t := Zeros(shape...)
	t.Fill(v)
	return t
}

// FromInts creates a tensor holding integer ids, typically word or class
// indices. The slice is copied.
//
// Example:
//
//	ids := tensor.FromInts([]int{0, 1, 2, 3}, 2, 2)
func FromInts(ids []int, shape ...int) *Tensor {
	data := make([]float64, len(ids))
	for i, id := range ids {
		data[i] = float64(id)
	}
	if len(shape) == 0 {
		shape = []int{len(ids)}
	}
	return New(data, shape...)
}

// FromRows builds a 2-D tensor from equally sized rows.
func FromRows(rows [][]float64) *Tensor {
	if len(rows) == 0 {
		return Zeros(0, 0)
	}
	cols := len(rows[0])
	t := Zeros(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			panic(&ShapeError{Op: "tensor.FromRows", Got: Shape{i, len(r)}, Want: Shape{i, cols}})
		}
		copy(t.Row(i), r)
	}
	return t
}

// NewRNG returns a deterministic random source for the given seed.
//
// Every component that needs randomness (initialisers, shuffling, dropout,
// negative sampling, generation) receives an explicit *rand.Rand so that a
// run is reproducible from its seed.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Randn creates a tensor of standard normal samples.
func Randn(rng *rand.Rand, shape ...int) *Tensor {
	t := Zeros(shape...)
	for i := range t.data {
		t.data[i] = rng.NormFloat64()
	}
	return t
}

// Rand creates a tensor of uniform samples in [0, 1).
func Rand(rng *rand.Rand, shape ...int) *Tensor {
	t := Zeros(shape...)
	for i := range t.data {
		t.data[i] = rng.Float64()
	}
	return t
}
