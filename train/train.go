// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the training loops.
//
// Trainer shuffles a labelled dataset into mini-batches. RnnlmTrainer walks a
// token corpus with per-row offsets so stateful language models carry their
// hidden state between batches. Both merge tied parameters, clip the global
// gradient norm and record progress in a History.
//
// Example:
//
//	trainer := train.NewTrainer(model, optim.NewSGD(optim.SGDConfig{LR: 1}))
//	err := trainer.Fit(x, t, train.FitConfig{MaxEpoch: 300, BatchSize: 30, EvalInterval: 10})
package train

import "github.com/born-ml/deepzero/internal/train"

// Training types.
type (
	Model          = train.Model
	Trainer        = train.Trainer
	FitConfig      = train.FitConfig
	RnnlmTrainer   = train.RnnlmTrainer
	RnnlmFitConfig = train.RnnlmFitConfig
	Option         = train.Option
	History        = train.History
	BestKeeper     = train.BestKeeper
	Reduced        = train.Reduced
)

// ErrInvalidConfig is returned for fit configurations that cannot run.
var ErrInvalidConfig = train.ErrInvalidConfig

// Constructors and options.
var (
	NewTrainer      = train.NewTrainer
	NewRnnlmTrainer = train.NewRnnlmTrainer
	WithLogger      = train.WithLogger
	WithRNG         = train.WithRNG
)

// Gradient utilities and evaluation.
var (
	Deduplicate    = train.Deduplicate
	ClipGrads      = train.ClipGrads
	EvalPerplexity = train.EvalPerplexity
)
