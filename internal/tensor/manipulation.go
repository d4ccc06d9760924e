package tensor

import "fmt"

// SliceRows returns a copy of rows [from, to) along the first dimension.
func SliceRows(t *Tensor, from, to int) *Tensor {
	if from < 0 || to > t.shape[0] || from > to {
		panic(fmt.Sprintf("tensor.SliceRows: range [%d, %d) out of bounds for dimension of size %d", from, to, t.shape[0]))
	}
	w := len(t.data) / t.shape[0]
	shape := t.shape.Clone()
	shape[0] = to - from
	data := make([]float64, (to-from)*w)
	copy(data, t.data[from*w:to*w])
	return &Tensor{data: data, shape: shape}
}

// TakeRows gathers entries of the first dimension by index. Indices may repeat.
//
// Example:
//
//	W := tensor.Zeros(10, 4)
//	h := tensor.TakeRows(W, []int{3, 3, 7}) // (3, 4)
func TakeRows(t *Tensor, idx []int) *Tensor {
	w := len(t.data) / t.shape[0]
	shape := t.shape.Clone()
	shape[0] = len(idx)
	out := Zeros(shape...)
	for i, r := range idx {
		if r < 0 || r >= t.shape[0] {
			panic(fmt.Sprintf("tensor.TakeRows: index %d out of range for dimension of size %d", r, t.shape[0]))
		}
		copy(out.data[i*w:(i+1)*w], t.data[r*w:(r+1)*w])
	}
	return out
}

// ScatterAddRows adds row i of src into row idx[i] of dst. Repeated indices
// accumulate.
func ScatterAddRows(dst *Tensor, idx []int, src *Tensor) {
	w := len(dst.data) / dst.shape[0]
	if src.Len() != len(idx)*w {
		panic(&ShapeError{Op: "tensor.ScatterAddRows", Got: src.shape.Clone(), Want: Shape{len(idx), w}})
	}
	for i, r := range idx {
		row := dst.data[r*w : (r+1)*w]
		for j, v := range src.data[i*w : (i+1)*w] {
			row[j] += v
		}
	}
}

// Step returns a copy of time step s of a (N, T, D) tensor as (N, D).
// A (N, T) tensor yields a (N) tensor.
func Step(x *Tensor, s int) *Tensor {
	n, tt := x.shape[0], x.shape[1]
	d := len(x.data) / (n * tt)
	out := Zeros(append(Shape{n}, x.shape[2:]...)...)
	for i := 0; i < n; i++ {
		copy(out.data[i*d:(i+1)*d], x.data[(i*tt+s)*d:(i*tt+s+1)*d])
	}
	return out
}

// SetStep writes src (N, D) into time step s of dst (N, T, D).
func SetStep(dst *Tensor, s int, src *Tensor) {
	n, tt := dst.shape[0], dst.shape[1]
	d := len(dst.data) / (n * tt)
	if src.Len() != n*d {
		panic(&ShapeError{Op: "tensor.SetStep", Got: src.shape.Clone(), Want: append(Shape{n}, dst.shape[2:]...)})
	}
	for i := 0; i < n; i++ {
		copy(dst.data[(i*tt+s)*d:(i*tt+s+1)*d], src.data[i*d:(i+1)*d])
	}
}

// AddStep adds src (N, D) into time step s of dst (N, T, D).
func AddStep(dst *Tensor, s int, src *Tensor) {
	n, tt := dst.shape[0], dst.shape[1]
	d := len(dst.data) / (n * tt)
	if src.Len() != n*d {
		panic(&ShapeError{Op: "tensor.AddStep", Got: src.shape.Clone(), Want: append(Shape{n}, dst.shape[2:]...)})
	}
	for i := 0; i < n; i++ {
		row := dst.data[(i*tt+s)*d : (i*tt+s+1)*d]
		for j, v := range src.data[i*d : (i+1)*d] {
			row[j] += v
		}
	}
}

// ConcatLast concatenates a and b along their innermost dimension. All other
// dimensions must agree.
func ConcatLast(a, b *Tensor) *Tensor {
	da, db := a.shape.Last(), b.shape.Last()
	rows := len(a.data) / da
	if len(b.data)/db != rows || len(a.shape) != len(b.shape) {
		panic(&ShapeError{Op: "tensor.ConcatLast", Got: b.shape.Clone(), Want: a.shape.Clone()})
	}
	shape := a.shape.Clone()
	shape[len(shape)-1] = da + db
	out := Zeros(shape...)
	w := da + db
	for r := 0; r < rows; r++ {
		copy(out.data[r*w:r*w+da], a.data[r*da:(r+1)*da])
		copy(out.data[r*w+da:(r+1)*w], b.data[r*db:(r+1)*db])
	}
	return out
}

// SliceLast returns a copy of columns [from, to) of the innermost dimension.
func SliceLast(x *Tensor, from, to int) *Tensor {
	d := x.shape.Last()
	if from < 0 || to > d || from > to {
		panic(fmt.Sprintf("tensor.SliceLast: range [%d, %d) out of bounds for dimension of size %d", from, to, d))
	}
	rows := len(x.data) / d
	shape := x.shape.Clone()
	shape[len(shape)-1] = to - from
	out := Zeros(shape...)
	w := to - from
	for r := 0; r < rows; r++ {
		copy(out.data[r*w:(r+1)*w], x.data[r*d+from:r*d+to])
	}
	return out
}

// SetLast writes src into columns [from, from+src.Last()) of dst's innermost
// dimension.
func SetLast(dst *Tensor, from int, src *Tensor) {
	d, w := dst.shape.Last(), src.shape.Last()
	rows := len(dst.data) / d
	if len(src.data) != rows*w || from+w > d {
		panic(&ShapeError{Op: "tensor.SetLast", Got: src.shape.Clone(), Want: dst.shape.Clone()})
	}
	for r := 0; r < rows; r++ {
		copy(dst.data[r*d+from:r*d+from+w], src.data[r*w:(r+1)*w])
	}
}
