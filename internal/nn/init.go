package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/tensor"
)

// Normal returns a tensor of N(0, std²) samples.
//
// Example:
//
//	W := nn.Normal(rng, 0.01, vocabSize, hiddenSize)
func Normal(rng *rand.Rand, std float64, shape ...int) *tensor.Tensor {
	t := tensor.Randn(rng, shape...)
	t.ScaleInPlace(std)
	return t
}

// Xavier returns N(0, 1/fanIn) samples, the initialisation used by the
// recurrent and attention models.
//
// Parameters:
//   - fanIn: number of input units feeding each output
//   - shape: shape of the weight tensor
func Xavier(rng *rand.Rand, fanIn int, shape ...int) *tensor.Tensor {
	return Normal(rng, 1/math.Sqrt(float64(fanIn)), shape...)
}

// Zeros creates a zero tensor. This is commonly used for bias initialization.
func Zeros(shape ...int) *tensor.Tensor {
	return tensor.Zeros(shape...)
}
