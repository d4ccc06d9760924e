// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 arrays every deepzero layer
// computes on.
//
// Tensors are row-major with an explicit Shape. Matrix products run on
// gonum's BLAS; random initialisation takes an explicit *rand.Rand so runs
// are reproducible from a seed.
//
// Example:
//
//	rng := tensor.NewRNG(1984)
//	W := tensor.Randn(rng, 2, 3)
//	x := tensor.New([]float64{1, 2}, 1, 2)
//	y := tensor.MatMul(x, W) // (1, 3)
package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/tensor"
)

// Tensor is a dense row-major float64 array.
type Tensor = tensor.Tensor

// Shape lists the size of every dimension.
type Shape = tensor.Shape

// ShapeError describes an operation applied to incompatible shapes.
// It matches ErrShapeMismatch with errors.Is.
type ShapeError = tensor.ShapeError

// ErrShapeMismatch is the sentinel behind every ShapeError.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// New wraps data with the given shape. Panics if the sizes disagree.
func New(data []float64, shape ...int) *Tensor { return tensor.New(data, shape...) }

// Zeros returns a zero-filled tensor.
func Zeros(shape ...int) *Tensor { return tensor.Zeros(shape...) }

// Ones returns a tensor filled with 1.
func Ones(shape ...int) *Tensor { return tensor.Ones(shape...) }

// FromInts stores integer ids, such as word ids, as a tensor.
func FromInts(ids []int, shape ...int) *Tensor { return tensor.FromInts(ids, shape...) }

// FromRows builds a 2-D tensor from equal-length rows.
func FromRows(rows [][]float64) *Tensor { return tensor.FromRows(rows) }

// NewRNG returns a deterministic random source for seed.
func NewRNG(seed uint64) *rand.Rand { return tensor.NewRNG(seed) }

// Randn draws every element from N(0, 1).
func Randn(rng *rand.Rand, shape ...int) *Tensor { return tensor.Randn(rng, shape...) }

// MatMul multiplies (n, k) by (k, m).
func MatMul(a, b *Tensor) *Tensor { return tensor.MatMul(a, b) }

// Transpose swaps the two axes of a matrix.
func Transpose(t *Tensor) *Tensor { return tensor.Transpose(t) }

// ArgmaxLast returns the index of the largest value of every innermost row.
func ArgmaxLast(x *Tensor) []int { return tensor.ArgmaxLast(x) }
