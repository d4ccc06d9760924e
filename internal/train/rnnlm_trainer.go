package train

import (
	"fmt"
	"math"
	"time"

	"github.com/born-ml/deepzero/internal/optim"
	"github.com/born-ml/deepzero/internal/tensor"
)

// RnnlmFitConfig controls RnnlmTrainer.Fit.
type RnnlmFitConfig struct {
	MaxEpoch     int     // Passes over the corpus
	BatchSize    int     // Parallel rows per batch
	TimeSize     int     // Unrolled steps per batch
	MaxGrad      float64 // Global gradient norm bound; 0 disables clipping
	EvalInterval int     // Log and record perplexity every N iterations; 0 disables
}

// RnnlmTrainer fits language models on a token corpus.
//
// Row i of every batch reads the corpus from offset i·(len/BatchSize) plus a
// shared time index that advances by TimeSize per batch, so consecutive
// batches continue each row's text and a stateful model can carry its hidden
// state across them.
type RnnlmTrainer struct {
	base
	timeIdx int
}

// NewRnnlmTrainer creates a trainer for model.
func NewRnnlmTrainer(model Model, optimizer optim.Optimizer, opts ...Option) *RnnlmTrainer {
	return &RnnlmTrainer{base: newBase(model, optimizer, opts)}
}

// GetBatch returns the next (BatchSize, TimeSize) input and target id batches
// and advances the time index.
func (tr *RnnlmTrainer) GetBatch(xs, ts []int, batchSize, timeSize int) (x, t *tensor.Tensor) {
	dataSize := len(xs)
	jump := dataSize / batchSize

	x = tensor.Zeros(batchSize, timeSize)
	t = tensor.Zeros(batchSize, timeSize)
	for step := 0; step < timeSize; step++ {
		for i := 0; i < batchSize; i++ {
			pos := (i*jump + tr.timeIdx) % dataSize
			x.Set(float64(xs[pos]), i, step)
			t.Set(float64(ts[pos]), i, step)
		}
		tr.timeIdx++
	}
	return x, t
}

// Fit trains on aligned input/target id sequences, typically corpus[:-1] and
// corpus[1:].
func (tr *RnnlmTrainer) Fit(xs, ts []int, cfg RnnlmFitConfig) error {
	if len(xs) != len(ts) {
		return fmt.Errorf("%w: %d inputs but %d targets", ErrInvalidConfig, len(xs), len(ts))
	}
	if cfg.BatchSize <= 0 || cfg.TimeSize <= 0 {
		return fmt.Errorf("%w: batch size %d, time size %d", ErrInvalidConfig, cfg.BatchSize, cfg.TimeSize)
	}
	maxIters := len(xs) / (cfg.BatchSize * cfg.TimeSize)
	if maxIters == 0 {
		return fmt.Errorf("%w: corpus of %d tokens is shorter than one %dx%d batch",
			ErrInvalidConfig, len(xs), cfg.BatchSize, cfg.TimeSize)
	}
	tr.timeIdx = 0
	tr.history.EvalInterval = cfg.EvalInterval

	var totalLoss float64
	lossCount := 0
	start := time.Now()

	for epoch := 0; epoch < cfg.MaxEpoch; epoch++ {
		for iter := 0; iter < maxIters; iter++ {
			x, t := tr.GetBatch(xs, ts, cfg.BatchSize, cfg.TimeSize)
			totalLoss += tr.Step(x, t, cfg.MaxGrad)
			lossCount++

			if cfg.EvalInterval > 0 && iter%cfg.EvalInterval == 0 {
				ppl := math.Exp(totalLoss / float64(lossCount))
				tr.log.Info("train",
					"epoch", tr.currentEpoch+1,
					"iter", iter+1,
					"max_iters", maxIters,
					"elapsed", time.Since(start).Round(time.Millisecond),
					"perplexity", ppl)
				tr.history.Perplexities = append(tr.history.Perplexities, ppl)
				totalLoss, lossCount = 0, 0
			}
		}
		tr.currentEpoch++
	}
	return nil
}
