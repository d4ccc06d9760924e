package dataset

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/deepzero/internal/tensor"
)

// SpiralSeed is the seed used for the reference spiral data.
const SpiralSeed = 1984

// Spiral returns n points per class on `classes` interleaved spiral arms.
//
// Point i of arm j has radius r = i/n and angle θ = 4j + 4r + 0.2·N(0, 1),
// and sits at (r·sin θ, r·cos θ). x is (n·classes, 2) and t is the one-hot
// (n·classes, classes) label matrix.
func Spiral(rng *rand.Rand, n, classes int) (x, t *tensor.Tensor) {
	x = tensor.Zeros(n*classes, 2)
	t = tensor.Zeros(n*classes, classes)
	for j := range classes {
		for i := range n {
			rate := float64(i) / float64(n)
			radius := rate
			theta := float64(j)*4 + 4*rate + rng.NormFloat64()*0.2

			ix := n*j + i
			x.Set(radius*math.Sin(theta), ix, 0)
			x.Set(radius*math.Cos(theta), ix, 1)
			t.Set(1, ix, j)
		}
	}
	return x, t
}
