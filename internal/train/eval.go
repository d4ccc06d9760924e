package train

import (
	"fmt"
	"math"
	"slices"

	"github.com/born-ml/deepzero/internal/tensor"
)

// LossModel is anything that maps an input batch and targets to a loss.
type LossModel interface {
	Forward(x, t *tensor.Tensor) float64
}

// EvalPerplexity returns exp(mean loss) of model over corpus, predicting
// corpus[k+1] from corpus[k].
//
// The corpus is split into batchSize rows read from evenly spaced offsets and
// walked timeSize tokens at a time. Stateful models should be reset before
// and after the call.
func EvalPerplexity(model LossModel, corpus []int, batchSize, timeSize int) (float64, error) {
	size := len(corpus)
	maxIters := (size - 1) / (batchSize * timeSize)
	if batchSize <= 0 || timeSize <= 0 || maxIters == 0 {
		return 0, fmt.Errorf("%w: corpus of %d tokens for %dx%d batches", ErrInvalidConfig, size, batchSize, timeSize)
	}
	jump := (size - 1) / batchSize

	var total float64
	for iter := 0; iter < maxIters; iter++ {
		xs := tensor.Zeros(batchSize, timeSize)
		ts := tensor.Zeros(batchSize, timeSize)
		timeOffset := iter * timeSize
		for t := 0; t < timeSize; t++ {
			for i := 0; i < batchSize; i++ {
				off := timeOffset + i*jump + t
				xs.Set(float64(corpus[off%size]), i, t)
				ts.Set(float64(corpus[(off+1)%size]), i, t)
			}
		}
		total += model.Forward(xs, ts)
	}
	return math.Exp(total / float64(maxIters)), nil
}

// Translator is a sequence-to-sequence model that can decode greedily.
type Translator interface {
	Generate(xs *tensor.Tensor, startID, sampleSize int) []int
}

// EvalSeq2seq decodes question (1, T) and reports whether the output matches
// correct exactly. correct[0] is the start id fed to the decoder and is not
// part of the expected answer.
func EvalSeq2seq(model Translator, question *tensor.Tensor, correct []int) bool {
	if len(correct) == 0 {
		return false
	}
	want := correct[1:]
	guess := model.Generate(question, correct[0], len(want))
	return slices.Equal(guess, want)
}
