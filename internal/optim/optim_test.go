package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/optim"
	"github.com/born-ml/deepzero/internal/tensor"
)

func TestSGDStep(t *testing.T) {
	p := tensor.New([]float64{1, 2, 3}, 3)
	g := tensor.New([]float64{1, -1, 0.5}, 3)

	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	sgd.Update([]*tensor.Tensor{p}, []*tensor.Tensor{g})

	assert.InDeltaSlice(t, []float64{0.9, 2.1, 2.95}, p.Data(), 1e-12)
}

func TestSGDMomentum(t *testing.T) {
	p := tensor.New([]float64{0}, 1)
	g := tensor.New([]float64{1}, 1)

	sgd := optim.NewSGD(optim.SGDConfig{LR: 1, Momentum: 0.5})
	sgd.Update([]*tensor.Tensor{p}, []*tensor.Tensor{g})
	sgd.Update([]*tensor.Tensor{p}, []*tensor.Tensor{g})

	// v1 = -1, v2 = -0.5 - 1 = -1.5
	assert.InDelta(t, -2.5, p.Data()[0], 1e-12)
}

func TestSGDDefaultsAndSetLR(t *testing.T) {
	sgd := optim.NewSGD(optim.SGDConfig{})
	assert.Equal(t, 0.01, sgd.GetLR())
	sgd.SetLR(0.25)
	assert.Equal(t, 0.25, sgd.GetLR())
}

func TestAdamFirstStepMovesByLR(t *testing.T) {
	// With bias correction the first step is lr·g/(|g|+eps') ≈ lr·sign(g).
	p := tensor.New([]float64{1, 1}, 2)
	g := tensor.New([]float64{4, -0.01}, 2)

	adam := optim.NewAdam(optim.AdamConfig{LR: 0.1})
	adam.Update([]*tensor.Tensor{p}, []*tensor.Tensor{g})

	assert.InDelta(t, 0.9, p.Data()[0], 1e-4)
	assert.InDelta(t, 1.1, p.Data()[1], 1e-4)
	assert.Equal(t, 1, adam.GetTimestep())
}

func TestAdamMatchesReference(t *testing.T) {
	p := tensor.New([]float64{0.5}, 1)
	adam := optim.NewAdam(optim.AdamConfig{LR: 0.01})

	m, v, want := 0.0, 0.0, 0.5
	for it := 1; it <= 5; it++ {
		gv := float64(it) * 0.3
		adam.Update([]*tensor.Tensor{p}, []*tensor.Tensor{tensor.New([]float64{gv}, 1)})

		lrT := 0.01 * math.Sqrt(1-math.Pow(0.999, float64(it))) / (1 - math.Pow(0.9, float64(it)))
		m += 0.1 * (gv - m)
		v += 0.001 * (gv*gv - v)
		want -= lrT * m / (math.Sqrt(v) + 1e-7)
	}
	assert.InDelta(t, want, p.Data()[0], 1e-12)
}

func TestMismatchedGradPanics(t *testing.T) {
	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	}()
	optim.NewSGD(optim.SGDConfig{}).Update(
		[]*tensor.Tensor{tensor.Zeros(2)},
		[]*tensor.Tensor{tensor.Zeros(3)},
	)
}
