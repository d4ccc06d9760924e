package tensor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/tensor"
)

func TestNewRejectsWrongLength(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
	}()
	tensor.New([]float64{1, 2, 3}, 2, 2)
}

func TestAtSetRow(t *testing.T) {
	x := tensor.New([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, 6.0, x.At(1, 2))
	x.Set(9, 0, 1)
	assert.Equal(t, []float64{1, 9, 3}, x.Row(0))
	assert.Equal(t, 3, x.Dim(-1))
}

func TestReshapeInfersDimension(t *testing.T) {
	x := tensor.Zeros(2, 3, 4)
	y := x.Reshape(-1, 4)
	assert.Equal(t, tensor.Shape{6, 4}, y.Shape())

	y.Set(7, 5, 3)
	assert.Equal(t, 7.0, x.At(1, 2, 3), "reshape shares storage")
}

func TestMatMulVariants(t *testing.T) {
	a := tensor.New([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := tensor.New([]float64{7, 8, 9, 10, 11, 12}, 3, 2)

	c := tensor.MatMul(a, b)
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())

	assert.True(t, tensor.MatMulTransA(tensor.Transpose(a), b).Equal(c))
	assert.True(t, tensor.MatMulTransB(a, tensor.Transpose(b)).Equal(c))
}

func TestMatMulShapeMismatch(t *testing.T) {
	a := tensor.Zeros(2, 3)
	b := tensor.Zeros(2, 3)
	var shapeErr *tensor.ShapeError
	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			require.True(t, ok)
			require.ErrorAs(t, err, &shapeErr)
		}()
		tensor.MatMul(a, b)
	}()
	assert.Equal(t, "tensor.MatMul", shapeErr.Op)
}

func TestRowBroadcastAndReductions(t *testing.T) {
	x := tensor.New([]float64{1, 2, 3, 4}, 2, 2)
	b := tensor.New([]float64{10, 20}, 2)

	assert.Equal(t, []float64{11, 22, 13, 24}, tensor.AddRowVector(x, b).Data())
	assert.Equal(t, []float64{4, 6}, tensor.SumRows(x).Data())
	assert.Equal(t, []float64{3, 7}, tensor.SumLast(x).Data())
	assert.Equal(t, []int{1, 1}, tensor.ArgmaxLast(x))
}

func TestGatherScatter(t *testing.T) {
	w := tensor.New([]float64{0, 0, 1, 1, 2, 2}, 3, 2)
	got := tensor.TakeRows(w, []int{2, 0, 2})
	assert.Equal(t, []float64{2, 2, 0, 0, 2, 2}, got.Data())

	dw := tensor.Zeros(3, 2)
	tensor.ScatterAddRows(dw, []int{2, 0, 2}, tensor.Ones(3, 2))
	assert.Equal(t, []float64{1, 1, 0, 0, 2, 2}, dw.Data())
}

func TestStepsAndConcat(t *testing.T) {
	x := tensor.New([]float64{
		1, 2, 3, 4, // batch 0: t0=(1,2) t1=(3,4)
		5, 6, 7, 8, // batch 1
	}, 2, 2, 2)

	s1 := tensor.Step(x, 1)
	assert.Equal(t, []float64{3, 4, 7, 8}, s1.Data())

	y := tensor.ZerosLike(x)
	tensor.SetStep(y, 0, s1)
	tensor.AddStep(y, 0, s1)
	assert.Equal(t, []float64{6, 8, 0, 0, 14, 16, 0, 0}, y.Data())

	c := tensor.ConcatLast(x, tensor.Ones(2, 2, 1))
	assert.Equal(t, tensor.Shape{2, 2, 3}, c.Shape())
	assert.Equal(t, []float64{3, 4, 1}, []float64{c.At(0, 1, 0), c.At(0, 1, 1), c.At(0, 1, 2)})

	right := tensor.SliceLast(c, 2, 3)
	assert.Equal(t, tensor.Shape{2, 2, 1}, right.Shape())
	assert.Equal(t, 4.0, right.Sum())

	tensor.SetLast(c, 0, tensor.Zeros(2, 2, 2))
	assert.Equal(t, 4.0, c.Sum())
}

func TestRNGIsDeterministic(t *testing.T) {
	a := tensor.Randn(tensor.NewRNG(7), 3, 3)
	b := tensor.Randn(tensor.NewRNG(7), 3, 3)
	assert.True(t, a.Equal(b))
}
