// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the parameter update rules.
//
// Optimizers update parameters in place from aligned gradient slices and
// keep per-position state (velocities, moments), so the parameter list must
// keep its order between calls.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//	optimizer.Update(params, grads)
package optim

import "github.com/born-ml/deepzero/internal/optim"

// Optimizer updates parameters from gradients.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// Adam is the Adam optimizer with bias correction folded into the step size.
type Adam = optim.Adam

// AdamConfig configures Adam.
type AdamConfig = optim.AdamConfig

// NewSGD creates an SGD optimizer. LR defaults to 0.01.
func NewSGD(config SGDConfig) *SGD { return optim.NewSGD(config) }

// NewAdam creates an Adam optimizer. LR defaults to 0.001.
func NewAdam(config AdamConfig) *Adam { return optim.NewAdam(config) }
