// Package train drives models through forward, backward and update steps.
//
// Both trainers follow the same step:
//
//	loss := model.Forward(x, t)
//	model.Backward(1)
//	r := Deduplicate(model.Params(), model.Grads())
//	ClipGrads(r.Grads, maxGrad)   // when MaxGrad > 0
//	optimizer.Update(r.Params, r.Grads)
//	r.Sync()
//
// Trainer shuffles fixed-size samples every epoch; RnnlmTrainer walks a
// corpus with per-row offsets so recurrent state stays meaningful between
// batches.
package train

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/born-ml/deepzero/internal/logger"
	"github.com/born-ml/deepzero/internal/optim"
	"github.com/born-ml/deepzero/internal/tensor"
)

// ErrInvalidConfig is returned for fit configurations that cannot run.
var ErrInvalidConfig = errors.New("invalid training configuration")

// Model is what the trainers need from a model.
type Model interface {
	Forward(x, t *tensor.Tensor) float64
	Backward(dout float64)
	Params() []*tensor.Tensor
	Grads() []*tensor.Tensor
}

// FitConfig controls Trainer.Fit.
type FitConfig struct {
	MaxEpoch     int     // Passes over the data
	BatchSize    int     // Samples per step
	MaxGrad      float64 // Global gradient norm bound; 0 disables clipping
	EvalInterval int     // Log and record the mean loss every N iterations; 0 disables
}

// Option configures a trainer.
type Option func(*base)

// WithLogger sets the logger used for progress records.
func WithLogger(l logger.Logger) Option {
	return func(b *base) { b.log = l }
}

// WithRNG sets the random source used for shuffling.
func WithRNG(rng *rand.Rand) Option {
	return func(b *base) { b.rng = rng }
}

// base holds what both trainers share.
type base struct {
	model        Model
	optimizer    optim.Optimizer
	log          logger.Logger
	rng          *rand.Rand
	history      History
	currentEpoch int
}

func newBase(model Model, optimizer optim.Optimizer, opts []Option) base {
	b := base{
		model:     model,
		optimizer: optimizer,
		log:       logger.Discard(),
		rng:       tensor.NewRNG(0),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Step runs one forward/backward/update cycle and returns the loss.
func (b *base) Step(x, t *tensor.Tensor, maxGrad float64) float64 {
	loss := b.model.Forward(x, t)
	b.model.Backward(1)

	r := Deduplicate(b.model.Params(), b.model.Grads())
	if maxGrad > 0 {
		ClipGrads(r.Grads, maxGrad)
	}
	b.optimizer.Update(r.Params, r.Grads)
	r.Sync()
	return loss
}

// History returns the recorded evaluation points.
func (b *base) History() *History { return &b.history }

// Epoch returns the number of completed epochs.
func (b *base) Epoch() int { return b.currentEpoch }

// Trainer fits models on samples stacked along the first dimension.
//
// Example:
//
//	trainer := train.NewTrainer(model, optim.NewSGD(optim.SGDConfig{LR: 1}),
//	    train.WithRNG(tensor.NewRNG(1984)))
//	err := trainer.Fit(x, t, train.FitConfig{MaxEpoch: 300, BatchSize: 30, EvalInterval: 10})
type Trainer struct {
	base
}

// NewTrainer creates a trainer for model. Logging is off unless WithLogger is given.
func NewTrainer(model Model, optimizer optim.Optimizer, opts ...Option) *Trainer {
	return &Trainer{base: newBase(model, optimizer, opts)}
}

// Fit trains for cfg.MaxEpoch epochs. Every epoch reshuffles x and t with the
// trainer's RNG and runs len(x)/BatchSize steps; a trailing partial batch is
// skipped.
func (tr *Trainer) Fit(x, t *tensor.Tensor, cfg FitConfig) error {
	dataSize := x.Dim(0)
	if t.Dim(0) != dataSize {
		return fmt.Errorf("%w: %d inputs but %d targets", ErrInvalidConfig, dataSize, t.Dim(0))
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > dataSize {
		return fmt.Errorf("%w: batch size %d for %d samples", ErrInvalidConfig, cfg.BatchSize, dataSize)
	}
	maxIters := dataSize / cfg.BatchSize
	tr.history.EvalInterval = cfg.EvalInterval

	var totalLoss float64
	lossCount := 0
	start := time.Now()

	for epoch := 0; epoch < cfg.MaxEpoch; epoch++ {
		idx := tr.rng.Perm(dataSize)
		xs := tensor.TakeRows(x, idx)
		ts := tensor.TakeRows(t, idx)

		for iter := 0; iter < maxIters; iter++ {
			from, to := iter*cfg.BatchSize, (iter+1)*cfg.BatchSize
			loss := tr.Step(tensor.SliceRows(xs, from, to), tensor.SliceRows(ts, from, to), cfg.MaxGrad)
			totalLoss += loss
			lossCount++

			if cfg.EvalInterval > 0 && iter%cfg.EvalInterval == 0 {
				avg := totalLoss / float64(lossCount)
				tr.log.Info("train",
					"epoch", tr.currentEpoch+1,
					"iter", iter+1,
					"max_iters", maxIters,
					"elapsed", time.Since(start).Round(time.Millisecond),
					"loss", avg)
				tr.history.Losses = append(tr.history.Losses, avg)
				totalLoss, lossCount = 0, 0
			}
		}
		tr.currentEpoch++
	}
	return nil
}
