package train

import (
	"math"

	"github.com/born-ml/deepzero/internal/tensor"
)

// clipEps keeps the clipping rate finite for an all-zero gradient.
const clipEps = 1e-6

// ClipGrads rescales grads in place so that their global L2 norm does not
// exceed maxNorm, and returns the norm measured before clipping.
//
// When rate = maxNorm/(norm+1e-6) is below 1 every gradient is multiplied by
// rate; otherwise the gradients are left untouched.
func ClipGrads(grads []*tensor.Tensor, maxNorm float64) float64 {
	var total float64
	for _, g := range grads {
		total += g.SumSquares()
	}
	norm := math.Sqrt(total)

	rate := maxNorm / (norm + clipEps)
	if rate < 1 {
		for _, g := range grads {
			g.ScaleInPlace(rate)
		}
	}
	return norm
}
