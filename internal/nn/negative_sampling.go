package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/deepzero/internal/tensor"
)

// DefaultSamplePower flattens the unigram distribution so that rare words are
// drawn as negatives more often than their raw frequency suggests.
const DefaultSamplePower = 0.75

// UnigramSampler draws negative word ids from P(w) ∝ count(w)^power.
//
// For each row the row's own target is given zero mass and the remaining
// weights are renormalised, so a target is never drawn as its own negative.
// Within a row draws are without replacement.
type UnigramSampler struct {
	weights    []float64
	sampleSize int
	dist       distuv.Categorical
}

// NewUnigramSampler builds the sampling distribution from a corpus of ids.
// Panics if sampleSize is not smaller than the number of words with nonzero
// weight, since a row could then run out of candidates.
func NewUnigramSampler(rng *rand.Rand, corpus []int, power float64, sampleSize int) *UnigramSampler {
	vocab := 0
	for _, id := range corpus {
		vocab = max(vocab, id+1)
	}
	counts := make([]float64, vocab)
	for _, id := range corpus {
		counts[id]++
	}
	weights := make([]float64, vocab)
	positive := 0
	for i, c := range counts {
		weights[i] = math.Pow(c, power)
		if c > 0 {
			positive++
		}
	}
	if sampleSize >= positive {
		panic(fmt.Sprintf("UnigramSampler: sample size %d needs more than %d distinct words", sampleSize, positive))
	}
	return &UnigramSampler{
		weights:    weights,
		sampleSize: sampleSize,
		dist:       distuv.NewCategorical(weights, rng),
	}
}

// SampleSize returns the number of negatives drawn per row.
func (s *UnigramSampler) SampleSize() int { return s.sampleSize }

// Prob returns the unconditioned sampling probability of id.
func (s *UnigramSampler) Prob(id int) float64 {
	return s.dist.Prob(float64(id))
}

// NegativeSample returns a (len(target), SampleSize) matrix of ids. Row i
// never contains target[i].
func (s *UnigramSampler) NegativeSample(target []int) [][]int {
	out := make([][]int, len(target))
	for i, t := range target {
		row := make([]int, s.sampleSize)
		if t >= 0 && t < len(s.weights) {
			s.dist.Reweight(t, 0)
		}
		for j := range row {
			id := int(s.dist.Rand())
			row[j] = id
			if j < len(row)-1 {
				s.dist.Reweight(id, 0)
			}
		}
		s.dist.ReweightAll(s.weights)
		out[i] = row
	}
	return out
}

// NegativeSamplingLoss scores one positive and K sampled negative words per
// row with a sigmoid loss.
//
// The K+1 EmbeddingDot layers share one output matrix, so Params lists it K+1
// times. Trainers merge the repeats before updating.
type NegativeSamplingLoss struct {
	sampler    *UnigramSampler
	lossLayers []*SigmoidWithLoss
	dotLayers  []*EmbeddingDot
}

// NewNegativeSamplingLoss wraps the output matrix W (V, H).
func NewNegativeSamplingLoss(W *tensor.Tensor, sampler *UnigramSampler) *NegativeSamplingLoss {
	k := sampler.SampleSize()
	l := &NegativeSamplingLoss{sampler: sampler}
	for i := 0; i < k+1; i++ {
		l.lossLayers = append(l.lossLayers, NewSigmoidWithLoss())
		l.dotLayers = append(l.dotLayers, NewEmbeddingDot(W))
	}
	return l
}

// Forward returns the summed positive and negative losses for h (N, H) and
// target ids (N).
func (l *NegativeSamplingLoss) Forward(h, target *tensor.Tensor) float64 {
	ids := target.Ints()
	n := len(ids)
	negatives := l.sampler.NegativeSample(ids)

	score := l.dotLayers[0].Forward(h, target)
	loss := l.lossLayers[0].Forward(score, tensor.Ones(n))

	zeros := tensor.Zeros(n)
	column := make([]int, n)
	for k := 0; k < l.sampler.SampleSize(); k++ {
		for i := range column {
			column[i] = negatives[i][k]
		}
		score = l.dotLayers[k+1].Forward(h, tensor.FromInts(column))
		loss += l.lossLayers[k+1].Forward(score, zeros)
	}
	return loss
}

// Backward returns dh (N, H), the sum of the gradients through every scored word.
func (l *NegativeSamplingLoss) Backward(dout float64) *tensor.Tensor {
	var dh *tensor.Tensor
	for i, lossLayer := range l.lossLayers {
		dscore := lossLayer.Backward(dout)
		g := l.dotLayers[i].Backward(dscore)
		if dh == nil {
			dh = g
		} else {
			dh.AddInPlace(g)
		}
	}
	return dh
}

// Params returns the output matrix once per scored word.
func (l *NegativeSamplingLoss) Params() []*tensor.Tensor {
	var ps []*tensor.Tensor
	for _, d := range l.dotLayers {
		ps = append(ps, d.Params()...)
	}
	return ps
}

// Grads returns one gradient buffer per scored word.
func (l *NegativeSamplingLoss) Grads() []*tensor.Tensor {
	var gs []*tensor.Tensor
	for _, d := range l.dotLayers {
		gs = append(gs, d.Grads()...)
	}
	return gs
}
