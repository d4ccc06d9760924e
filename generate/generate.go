// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package generate provides sampling strategies for text generation.
//
// Example:
//
//	sampler := generate.NewSampler(generate.SamplingConfig{Temperature: 0.8, TopK: 40}, rng)
//	id, err := sampler.SampleSkipping(scores, generate.SkipSet(unkID))
package generate

import (
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/generate"
)

// SamplingConfig configures a Sampler.
//
// Parameters:
//   - Temperature: 0 = greedy, 1 = model distribution, >1 = flatter
//   - TopK: keep only the K most likely ids (0 = all)
//   - MaxAttempts: redraws allowed when a draw is skipped
type SamplingConfig = generate.SamplingConfig

// Sampler turns a score row into an id.
type Sampler = generate.Sampler

// ErrSamplingExhausted is returned when no allowed id could be drawn.
var ErrSamplingExhausted = generate.ErrSamplingExhausted

// DefaultSamplingConfig samples from the unmodified distribution.
func DefaultSamplingConfig() SamplingConfig { return generate.DefaultSamplingConfig() }

// GreedyConfig always picks the most likely allowed id.
func GreedyConfig() SamplingConfig { return generate.GreedyConfig() }

// NewSampler creates a sampler. A nil rng uses a fixed seed.
func NewSampler(config SamplingConfig, rng *rand.Rand) *Sampler {
	return generate.NewSampler(config, rng)
}

// SkipSet builds the skip argument of Sampler.SampleSkipping.
func SkipSet(ids ...int) map[int]bool { return generate.SkipSet(ids...) }
