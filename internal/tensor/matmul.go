package tensor

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

func general(t *Tensor, rows, cols int) blas64.General {
	return blas64.General{Rows: rows, Cols: cols, Stride: cols, Data: t.data}
}

func gemm(op string, a, b *Tensor, transA, transB bool) *Tensor {
	mustRank(op, a, 2)
	mustRank(op, b, 2)

	m, k := a.shape[0], a.shape[1]
	if transA {
		m, k = k, m
	}
	kb, n := b.shape[0], b.shape[1]
	if transB {
		kb, n = n, kb
	}
	if k != kb {
		panic(&ShapeError{Op: op, Got: b.shape.Clone(), Want: Shape{k, n}})
	}

	out := Zeros(m, n)
	if m == 0 || n == 0 || k == 0 {
		return out
	}

	tA, tB := blas.NoTrans, blas.NoTrans
	if transA {
		tA = blas.Trans
	}
	if transB {
		tB = blas.Trans
	}
	blas64.Gemm(tA, tB, 1,
		general(a, a.shape[0], a.shape[1]),
		general(b, b.shape[0], b.shape[1]),
		0, general(out, m, n))
	return out
}

// MatMul returns the matrix product a·b of two 2-D tensors.
//
// Example:
//
//	a := tensor.Zeros(2, 3)
//	b := tensor.Zeros(3, 4)
//	c := tensor.MatMul(a, b) // (2, 4)
func MatMul(a, b *Tensor) *Tensor {
	return gemm("tensor.MatMul", a, b, false, false)
}

// MatMulTransA returns aᵀ·b without materialising the transpose.
func MatMulTransA(a, b *Tensor) *Tensor {
	return gemm("tensor.MatMulTransA", a, b, true, false)
}

// MatMulTransB returns a·bᵀ without materialising the transpose.
func MatMulTransB(a, b *Tensor) *Tensor {
	return gemm("tensor.MatMulTransB", a, b, false, true)
}

// Transpose returns a new tensor holding the transpose of a 2-D tensor.
func Transpose(t *Tensor) *Tensor {
	mustRank("tensor.Transpose", t, 2)
	r, c := t.shape[0], t.shape[1]
	out := Zeros(c, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[j*r+i] = t.data[i*c+j]
		}
	}
	return out
}
