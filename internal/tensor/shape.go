package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is the sentinel wrapped by every ShapeError.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeError reports operands whose dimensions are incompatible.
//
// Shape errors are programming errors: the offending operation panics with a
// *ShapeError so callers (and tests) can recover it and inspect Op, Got and Want.
type ShapeError struct {
	Op   string
	Got  Shape
	Want Shape
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v: got %v, want %v", e.Op, ErrShapeMismatch, e.Got, e.Want)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Last returns the size of the innermost dimension, or 1 for a scalar.
func (s Shape) Last() int {
	if len(s) == 0 {
		return 1
	}
	return s[len(s)-1]
}

// resolve fills in a single -1 placeholder so that the shape holds n elements.
func (s Shape) resolve(n int) (Shape, error) {
	out := s.Clone()
	free := -1
	known := 1
	for i, d := range out {
		switch {
		case d == -1 && free < 0:
			free = i
		case d == -1:
			return nil, fmt.Errorf("more than one inferred dimension in %v", s)
		case d <= 0:
			return nil, fmt.Errorf("invalid dimension at index %d: %d", i, d)
		default:
			known *= d
		}
	}
	if free >= 0 {
		if known == 0 || n%known != 0 {
			return nil, fmt.Errorf("cannot infer dimension of %v for %d elements", s, n)
		}
		out[free] = n / known
	}
	if out.NumElements() != n {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", out, out.NumElements(), n)
	}
	return out, nil
}

func mustSameShape(op string, a, b *Tensor) {
	if !a.shape.Equal(b.shape) {
		panic(&ShapeError{Op: op, Got: b.shape.Clone(), Want: a.shape.Clone()})
	}
}

func mustRank(op string, t *Tensor, rank int) {
	if len(t.shape) != rank {
		want := make(Shape, rank)
		for i := range want {
			want[i] = -1
		}
		panic(&ShapeError{Op: op, Got: t.shape.Clone(), Want: want})
	}
}
