package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/tensor"
)

func TestGreedySampling(t *testing.T) {
	sampler := NewSampler(GreedyConfig(), nil)
	logits := []float64{-1, 0, 1}

	for range 10 {
		assert.Equal(t, 2, sampler.Sample(logits), "Greedy should always pick max")
	}
}

func TestGreedySkipping(t *testing.T) {
	sampler := NewSampler(GreedyConfig(), nil)

	id, err := sampler.SampleSkipping([]float64{5, 1, 9, 3}, SkipSet(2))
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	_, err = sampler.SampleSkipping([]float64{5, 1}, SkipSet(0, 1))
	assert.ErrorIs(t, err, ErrSamplingExhausted)
}

func TestTopKSampling(t *testing.T) {
	sampler := NewSampler(SamplingConfig{Temperature: 1, TopK: 2}, tensor.NewRNG(42))
	logits := []float64{1, 2, 3, 4, 5}

	counts := make(map[int]int)
	for range 200 {
		counts[sampler.Sample(logits)]++
	}

	assert.Zero(t, counts[0]+counts[1]+counts[2], "Should not sample from filtered tokens")
	assert.Positive(t, counts[3])
	assert.Positive(t, counts[4])
}

func TestSamplingFollowsDistribution(t *testing.T) {
	sampler := NewSampler(DefaultSamplingConfig(), tensor.NewRNG(7))
	// softmax of [0, ln 3] is [0.25, 0.75]
	logits := []float64{0, 1.0986122886681098}

	const n = 4000
	ones := 0
	for range n {
		ones += sampler.Sample(logits)
	}
	assert.InDelta(t, 0.75, float64(ones)/n, 0.03)
}

func TestSkippingNeverReturnsSkippedID(t *testing.T) {
	sampler := NewSampler(DefaultSamplingConfig(), tensor.NewRNG(3))
	logits := []float64{2, 2, 2, 0.1}
	skip := SkipSet(0, 1)

	for range 100 {
		id, err := sampler.SampleSkipping(logits, skip)
		require.NoError(t, err)
		assert.False(t, skip[id])
	}
}

func TestSkippingIsBounded(t *testing.T) {
	t.Run("no allowed mass", func(t *testing.T) {
		sampler := NewSampler(SamplingConfig{Temperature: 1, TopK: 1}, tensor.NewRNG(1))
		_, err := sampler.SampleSkipping([]float64{0, 10}, SkipSet(1))
		assert.ErrorIs(t, err, ErrSamplingExhausted)
	})

	t.Run("attempt cap", func(t *testing.T) {
		sampler := NewSampler(SamplingConfig{Temperature: 1, MaxAttempts: 3}, tensor.NewRNG(1))
		// The allowed id carries ~e^-200 of the mass and is never drawn.
		_, err := sampler.SampleSkipping([]float64{200, 0}, SkipSet(0))
		assert.ErrorIs(t, err, ErrSamplingExhausted)
	})
}

func TestTemperatureSharpens(t *testing.T) {
	logits := []float64{1, 2}
	cold := NewSampler(SamplingConfig{Temperature: 0.5}, nil).Probs(logits)
	warm := NewSampler(SamplingConfig{Temperature: 2}, nil).Probs(logits)

	assert.Greater(t, cold[1], warm[1])
	assert.InDelta(t, 1.0, cold[0]+cold[1], 1e-12)
}

func TestNewSamplerDefaults(t *testing.T) {
	s := NewSampler(SamplingConfig{Temperature: -1}, nil)
	assert.True(t, s.Greedy())
	assert.Equal(t, DefaultMaxAttempts, s.Config().MaxAttempts)
}
