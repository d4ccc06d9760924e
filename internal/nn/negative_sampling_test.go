package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/nn"
	"github.com/born-ml/deepzero/internal/tensor"
)

func TestUnigramSamplerNeverReturnsTarget(t *testing.T) {
	corpus := []int{0, 1, 2, 3, 4, 1, 5, 6, 0, 0, 0, 2}
	sampler := nn.NewUnigramSampler(tensor.NewRNG(1), corpus, nn.DefaultSamplePower, 3)

	for round := 0; round < 200; round++ {
		target := []int{round % 7, 0, 3}
		rows := sampler.NegativeSample(target)
		require.Len(t, rows, len(target))
		for i, row := range rows {
			require.Len(t, row, 3)
			seen := map[int]bool{}
			for _, id := range row {
				assert.NotEqual(t, target[i], id)
				assert.False(t, seen[id], "draws within a row are distinct")
				seen[id] = true
			}
		}
	}
}

func TestUnigramSamplerFlattensFrequencies(t *testing.T) {
	corpus := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 2}
	sampler := nn.NewUnigramSampler(tensor.NewRNG(2), corpus, nn.DefaultSamplePower, 1)

	// 8^0.75 / (8^0.75 + 1 + 1) is well below the raw frequency 0.8.
	assert.Less(t, sampler.Prob(0), 0.8)
	assert.InDelta(t, sampler.Prob(1), sampler.Prob(2), 1e-12)
}

func TestUnigramSamplerRejectsOversizedSample(t *testing.T) {
	assert.Panics(t, func() {
		nn.NewUnigramSampler(tensor.NewRNG(3), []int{0, 1, 1}, nn.DefaultSamplePower, 2)
	})
}

func TestEmbeddingDotGradient(t *testing.T) {
	rng := tensor.NewRNG(4)
	W := tensor.Randn(rng, 6, 3)
	layer := nn.NewEmbeddingDot(W)
	h := tensor.Randn(rng, 4, 3)
	ids := tensor.FromInts([]int{5, 0, 5, 2})
	r := tensor.Randn(rng, 4)

	loss := func() float64 { return weighted(layer.Forward(h, ids), r) }
	loss()
	dh := layer.Backward(r)
	dW := layer.Grads()[0].Clone()

	requireGradClose(t, "dh", dh, numericGrad(h, loss))
	requireGradClose(t, "dW", dW, numericGrad(W, loss))
}

func TestNegativeSamplingLossSharesOutputMatrix(t *testing.T) {
	rng := tensor.NewRNG(5)
	corpus := []int{0, 1, 2, 3, 4, 1, 5, 6}
	W := tensor.Randn(rng, 7, 4)
	layer := nn.NewNegativeSamplingLoss(W, nn.NewUnigramSampler(rng, corpus, nn.DefaultSamplePower, 2))

	params := layer.Params()
	require.Len(t, params, 3)
	for _, p := range params {
		assert.Same(t, W, p)
	}

	h := tensor.Randn(rng, 3, 4)
	loss := layer.Forward(h, tensor.FromInts([]int{1, 2, 3}))
	assert.Greater(t, loss, 0.0)

	dh := layer.Backward(1)
	assert.Equal(t, tensor.Shape{3, 4}, dh.Shape())
	grads := layer.Grads()
	require.Len(t, grads, 3)
	assert.NotSame(t, grads[0], grads[1])
}
