package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

const gradTol = 1e-6

// numericGrad estimates ∂f/∂p for every element of p with central differences.
// p is restored before returning.
func numericGrad(p *tensor.Tensor, f func() float64) []float64 {
	orig := append([]float64(nil), p.Data()...)
	grad := fd.Gradient(nil, func(x []float64) float64 {
		copy(p.Data(), x)
		return f()
	}, orig, &fd.Settings{Formula: fd.Central, Step: 1e-5})
	copy(p.Data(), orig)
	return grad
}

// weighted reduces a layer output to a scalar with fixed random weights, so
// that its gradient w.r.t. the output is exactly r.
func weighted(y, r *tensor.Tensor) float64 {
	return tensor.Mul(y, r).Sum()
}

func requireGradClose(t *testing.T, name string, analytic *tensor.Tensor, numeric []float64) {
	t.Helper()
	require.Equal(t, len(numeric), analytic.Len(), "%s: gradient size", name)
	for i, n := range numeric {
		a := analytic.Data()[i]
		diff := math.Abs(a - n)
		require.LessOrEqualf(t, diff, gradTol*(1+math.Abs(a)+math.Abs(n)),
			"%s[%d]: analytic %.10f numeric %.10f", name, i, a, n)
	}
}

// checkLayer verifies dx and every parameter gradient of a single-input layer.
func checkLayer(t *testing.T, name string, layer nn.Layer, x *tensor.Tensor, seed uint64) {
	t.Helper()
	rng := tensor.NewRNG(seed)
	y := layer.Forward(x)
	r := tensor.Randn(rng, y.Shape()...)

	loss := func() float64 { return weighted(layer.Forward(x), r) }

	layer.Forward(x)
	dx := layer.Backward(r)
	grads := make([]*tensor.Tensor, len(layer.Grads()))
	for i, g := range layer.Grads() {
		grads[i] = g.Clone()
	}

	if dx != nil {
		requireGradClose(t, name+".dx", dx, numericGrad(x, loss))
	}
	for i, p := range layer.Params() {
		requireGradClose(t, name+".param", grads[i], numericGrad(p, loss))
	}
}
