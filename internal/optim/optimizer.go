// Package optim implements the parameter update rules used by deepzero's
// trainers.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers receive parallel (params, grads) slices once per step and update
// the parameters in place. Per-parameter state is keyed by position, so the
// caller must present the same parameter order on every step.
//
// Example usage:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//
//	for step := range steps {
//	    loss := model.Forward(x, t)
//	    model.Backward(1)
//	    optimizer.Update(model.Params(), model.Grads())
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/deepzero/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Update applies one step to params using grads. grads[i] pairs with
	// params[i] and must have the same shape.
	Update(params, grads []*tensor.Tensor)

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR changes the learning rate, for decay schedules.
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

func checkPairs(op string, params, grads []*tensor.Tensor) {
	if len(params) != len(grads) {
		panic(fmt.Sprintf("%s: %d params but %d grads", op, len(params), len(grads)))
	}
	for i, p := range params {
		if !p.Shape().Equal(grads[i].Shape()) {
			panic(&tensor.ShapeError{Op: op, Got: grads[i].Shape().Clone(), Want: p.Shape().Clone()})
		}
	}
}
