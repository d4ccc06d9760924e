package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/tensor"
)

// Model losses go through -log(y + 1e-7), which slightly bends the numeric
// gradient away from the analytic one.
const gradTol = 1e-5

// checkModelGrads compares every parameter gradient of m against central
// differences of loss. Parameters shared by several layers are checked once
// against the sum of their per-layer gradients.
func checkModelGrads(t *testing.T, m models.Model, loss func() float64) {
	t.Helper()
	loss()
	m.Backward(1)

	params, grads := m.Params(), m.Grads()
	analytic := map[*tensor.Tensor]*tensor.Tensor{}
	var order []*tensor.Tensor
	for i, p := range params {
		if g, ok := analytic[p]; ok {
			g.AddInPlace(grads[i])
			continue
		}
		analytic[p] = grads[i].Clone()
		order = append(order, p)
	}

	for i, p := range order {
		orig := append([]float64(nil), p.Data()...)
		numeric := fd.Gradient(nil, func(x []float64) float64 {
			copy(p.Data(), x)
			return loss()
		}, orig, &fd.Settings{Formula: fd.Central, Step: 1e-5})
		copy(p.Data(), orig)

		got := analytic[p].Data()
		require.Len(t, got, len(numeric))
		for j, n := range numeric {
			a := got[j]
			require.LessOrEqualf(t, math.Abs(a-n), gradTol*(1+math.Abs(a)+math.Abs(n)),
				"%s param %d [%d]: analytic %.10f numeric %.10f", m.Name(), i, j, a, n)
		}
	}
}

// resetting wraps a stateful model's loss so every evaluation starts from zero state.
func resetting(m interface{ ResetState() }, f func() float64) func() float64 {
	return func() float64 {
		m.ResetState()
		return f()
	}
}
