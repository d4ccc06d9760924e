// Package generate provides the token samplers used for autoregressive
// generation.
//
// A model produces one row of scores per step. The Sampler turns the scores
// into a probability distribution and draws the next id:
//  1. Apply temperature scaling (Temperature 0 selects the arg-max)
//  2. Apply Top-K filtering
//  3. Normalize with softmax
//  4. Draw from the categorical distribution
//
// SampleSkipping adds a skip set. Ids in the set are rejected and redrawn from
// the same distribution, at most MaxAttempts times.
package generate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/deepzero/internal/tensor"
)

// ErrSamplingExhausted is returned when every draw landed in the skip set.
var ErrSamplingExhausted = errors.New("generate: sampling attempts exhausted")

// DefaultMaxAttempts bounds the redraws of SampleSkipping.
const DefaultMaxAttempts = 1000

// SamplingConfig configures the sampling strategy.
type SamplingConfig struct {
	// Temperature controls randomness. 0 = greedy, 1 = model distribution, >1 = flatter.
	Temperature float64

	// TopK limits sampling to the K highest scores. 0 = disabled.
	TopK int

	// MaxAttempts bounds skip-set rejection. 0 means DefaultMaxAttempts.
	MaxAttempts int
}

// DefaultSamplingConfig samples from the model distribution as is.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{Temperature: 1, MaxAttempts: DefaultMaxAttempts}
}

// GreedyConfig always picks the highest score.
func GreedyConfig() SamplingConfig {
	return SamplingConfig{Temperature: 0, MaxAttempts: DefaultMaxAttempts}
}

// Sampler draws ids from score rows.
type Sampler struct {
	config SamplingConfig
	rng    *rand.Rand
}

// NewSampler creates a sampler drawing from rng.
//
// A nil rng is replaced by tensor.NewRNG(0) so runs stay reproducible.
func NewSampler(config SamplingConfig, rng *rand.Rand) *Sampler {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.Temperature < 0 {
		config.Temperature = 0
	}
	if rng == nil {
		rng = tensor.NewRNG(0)
	}
	return &Sampler{config: config, rng: rng}
}

// Config returns the effective configuration.
func (s *Sampler) Config() SamplingConfig { return s.config }

// Greedy reports whether the sampler picks the arg-max.
func (s *Sampler) Greedy() bool { return s.config.Temperature == 0 }

// Probs converts scores into the distribution the sampler draws from.
// Ids removed by Top-K get probability 0.
func (s *Sampler) Probs(scores []float64) []float64 {
	logits := slices.Clone(scores)
	if t := s.config.Temperature; t > 0 && t != 1 {
		for i := range logits {
			logits[i] /= t
		}
	}
	if k := s.config.TopK; k > 0 && k < len(logits) {
		topKFilter(logits, k)
	}
	return softmax(logits)
}

// Sample returns the next id for one row of scores.
func (s *Sampler) Sample(scores []float64) int {
	if len(scores) == 0 {
		panic("generate.Sample: empty score row")
	}
	if s.Greedy() {
		return argmax(scores, nil)
	}
	return s.draw(s.Probs(scores))
}

// SampleSkipping is Sample with a set of forbidden ids.
//
// Greedy samplers return the best id outside skip. Stochastic samplers redraw
// from the same distribution until the id is allowed. ErrSamplingExhausted is
// returned when no allowed id exists (greedy) or every one of MaxAttempts
// draws was rejected.
func (s *Sampler) SampleSkipping(scores []float64, skip map[int]bool) (int, error) {
	if len(skip) == 0 {
		return s.Sample(scores), nil
	}
	if s.Greedy() {
		id := argmax(scores, skip)
		if id < 0 {
			return 0, fmt.Errorf("greedy over %d ids: %w", len(scores), ErrSamplingExhausted)
		}
		return id, nil
	}

	probs := s.Probs(scores)
	var allowed float64
	for i, p := range probs {
		if !skip[i] {
			allowed += p
		}
	}
	if allowed == 0 {
		return 0, fmt.Errorf("all probability mass is skipped: %w", ErrSamplingExhausted)
	}

	for range s.config.MaxAttempts {
		if id := s.draw(probs); !skip[id] {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%d draws rejected: %w", s.config.MaxAttempts, ErrSamplingExhausted)
}

func (s *Sampler) draw(probs []float64) int {
	return int(distuv.NewCategorical(probs, s.rng).Rand())
}

// SkipSet builds a lookup set from ids.
func SkipSet(ids ...int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// topKFilter keeps only the k largest logits, sets the rest to -inf.
func topKFilter(logits []float64, k int) {
	sorted := slices.Clone(logits)
	slices.SortFunc(sorted, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	threshold := sorted[k-1]
	for i := range logits {
		if logits[i] < threshold {
			logits[i] = math.Inf(-1)
		}
	}
}

// softmax converts logits to probabilities.
func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = math.Max(maxLogit, l)
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(l - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the index of the largest score not in skip, or -1.
func argmax(scores []float64, skip map[int]bool) int {
	best := -1
	for i, v := range scores {
		if skip[i] {
			continue
		}
		if best < 0 || v > scores[best] {
			best = i
		}
	}
	return best
}
