package optim

import (
	"math"

	"github.com/born-ml/deepzero/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// The moment estimates m and v are allocated lazily on the first Update, one
// per parameter position. The bias correction is folded into the step size:
//
//	it  += 1
//	lr_t = lr * sqrt(1 - beta2^it) / (1 - beta1^it)
//	m   += (1 - beta1) * (g - m)
//	v   += (1 - beta2) * (g² - v)
//	p   -= lr_t * m / (sqrt(v) + eps)
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	iter  int
	m, v  []*tensor.Tensor
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64 // Learning rate (default: 0.001)
	Beta1 float64 // Decay rate of the first moment (default: 0.9)
	Beta2 float64 // Decay rate of the second moment (default: 0.999)
	Eps   float64 // Term for numerical stability (default: 1e-7)
}

// NewAdam creates a new Adam optimizer.
//
// Default values:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-7
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Beta1 == 0 {
		config.Beta1 = 0.9
	}
	if config.Beta2 == 0 {
		config.Beta2 = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-7
	}
	return &Adam{lr: config.LR, beta1: config.Beta1, beta2: config.Beta2, eps: config.Eps}
}

// Update applies one Adam step in place.
func (a *Adam) Update(params, grads []*tensor.Tensor) {
	checkPairs("Adam.Update", params, grads)

	if a.m == nil {
		a.m = make([]*tensor.Tensor, len(params))
		a.v = make([]*tensor.Tensor, len(params))
		for i, p := range params {
			a.m[i] = tensor.ZerosLike(p)
			a.v[i] = tensor.ZerosLike(p)
		}
	}

	a.iter++
	lrT := a.lr * math.Sqrt(1-math.Pow(a.beta2, float64(a.iter))) / (1 - math.Pow(a.beta1, float64(a.iter)))

	for i, p := range params {
		pd, gd := p.Data(), grads[i].Data()
		md, vd := a.m[i].Data(), a.v[i].Data()
		for j, g := range gd {
			md[j] += (1 - a.beta1) * (g - md[j])
			vd[j] += (1 - a.beta2) * (g*g - vd[j])
			pd[j] -= lrT * md[j] / (math.Sqrt(vd[j]) + a.eps)
		}
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the number of updates applied so far.
func (a *Adam) GetTimestep() int {
	return a.iter
}
