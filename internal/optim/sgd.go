package optim

import (
	"github.com/born-ml/deepzero/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity - lr * gradient
//	param = param + velocity
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 1.0})
//	optimizer.Update(params, grads)
type SGD struct {
	lr         float64
	momentum   float64
	velocities []*tensor.Tensor
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
//
// Default values:
//   - LR: 0.01
//   - Momentum: 0 (plain SGD)
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{lr: config.LR, momentum: config.Momentum}
}

// Update applies one SGD step in place.
func (s *SGD) Update(params, grads []*tensor.Tensor) {
	checkPairs("SGD.Update", params, grads)

	if s.momentum == 0 {
		for i, p := range params {
			p.AddScaledInPlace(-s.lr, grads[i])
		}
		return
	}

	if len(s.velocities) != len(params) {
		s.velocities = make([]*tensor.Tensor, len(params))
		for i, p := range params {
			s.velocities[i] = tensor.ZerosLike(p)
		}
	}
	for i, p := range params {
		v := s.velocities[i]
		v.ScaleInPlace(s.momentum)
		v.AddScaledInPlace(-s.lr, grads[i])
		p.AddInPlace(v)
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling (e.g., dividing by 4 when validation
// perplexity stops improving).
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
