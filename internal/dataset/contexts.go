package dataset

import (
	"fmt"

	"github.com/born-ml/deepzero/internal/tensor"
)

// CreateContextsTarget slides a window over corpus.
//
// For every position with windowSize words on both sides it returns the
// target word and its 2·windowSize neighbours in left-to-right order:
// contexts is (N, 2·windowSize) and target is (N), both as ids.
func CreateContextsTarget(corpus []int, windowSize int) (contexts, target *tensor.Tensor, err error) {
	if windowSize <= 0 || len(corpus) <= 2*windowSize {
		return nil, nil, fmt.Errorf("window size %d needs more than %d words, corpus has %d",
			windowSize, 2*windowSize, len(corpus))
	}
	n := len(corpus) - 2*windowSize
	ctx := make([]int, 0, n*2*windowSize)
	tgt := make([]int, 0, n)
	for idx := windowSize; idx < len(corpus)-windowSize; idx++ {
		tgt = append(tgt, corpus[idx])
		for t := -windowSize; t <= windowSize; t++ {
			if t != 0 {
				ctx = append(ctx, corpus[idx+t])
			}
		}
	}
	return tensor.FromInts(ctx, n, 2*windowSize), tensor.FromInts(tgt), nil
}

// ConvertOneHot expands ids of shape S into one-hot vectors of shape S + (V).
func ConvertOneHot(ids *tensor.Tensor, vocabSize int) *tensor.Tensor {
	shape := append(ids.Shape().Clone(), vocabSize)
	out := tensor.Zeros(shape...)
	data := out.Data()
	for i, id := range ids.Ints() {
		data[i*vocabSize+id] = 1
	}
	return out
}
