// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the hand-differentiated layers deepzero models are
// built from.
//
// Every layer caches what its Backward needs during Forward and owns one
// gradient buffer per parameter. Params and Grads are aligned slices;
// layers built on the same weight tensor share it.
//
// Layers:
//   - Affine, MatMul, Embedding, EmbeddingDot
//   - Sigmoid, ReLU, Softmax and the fused losses
//   - RNN and LSTM cells with their Time* sequence versions
//   - TimeEmbedding, TimeAffine, TimeDropout, TimeSoftmaxWithLoss
//   - Attention and TimeAttention
//
// Example:
//
//	rng := tensor.NewRNG(1)
//	affine := nn.NewAffine(nn.Normal(rng, 0.01, 2, 10), nn.Zeros(10))
//	h := affine.Forward(x)
//	dx := affine.Backward(dh)
package nn

import "github.com/born-ml/deepzero/internal/nn"

// Layer is a differentiable step with parameters.
type Layer = nn.Layer

// LossLayer ends a network in a scalar loss.
type LossLayer = nn.LossLayer

// ErrNoForwardCache is wrapped by the panic of a Backward called before Forward.
var ErrNoForwardCache = nn.ErrNoForwardCache

// Layer types.
type (
	Affine               = nn.Affine
	MatMul               = nn.MatMul
	Sigmoid              = nn.Sigmoid
	Softmax              = nn.Softmax
	ReLU                 = nn.ReLU
	Embedding            = nn.Embedding
	EmbeddingDot         = nn.EmbeddingDot
	SoftmaxWithLoss      = nn.SoftmaxWithLoss
	SigmoidWithLoss      = nn.SigmoidWithLoss
	NegativeSamplingLoss = nn.NegativeSamplingLoss
	UnigramSampler       = nn.UnigramSampler
	RNN                  = nn.RNN
	LSTM                 = nn.LSTM
	TimeRNN              = nn.TimeRNN
	TimeLSTM             = nn.TimeLSTM
	TimeEmbedding        = nn.TimeEmbedding
	TimeAffine           = nn.TimeAffine
	TimeDropout          = nn.TimeDropout
	TimeSoftmaxWithLoss  = nn.TimeSoftmaxWithLoss
	Attention            = nn.Attention
	TimeAttention        = nn.TimeAttention
)

// Constructors.
var (
	NewAffine               = nn.NewAffine
	NewMatMul               = nn.NewMatMul
	NewSigmoid              = nn.NewSigmoid
	NewSoftmax              = nn.NewSoftmax
	NewReLU                 = nn.NewReLU
	NewEmbedding            = nn.NewEmbedding
	NewEmbeddingDot         = nn.NewEmbeddingDot
	NewSoftmaxWithLoss      = nn.NewSoftmaxWithLoss
	NewSigmoidWithLoss      = nn.NewSigmoidWithLoss
	NewNegativeSamplingLoss = nn.NewNegativeSamplingLoss
	NewUnigramSampler       = nn.NewUnigramSampler
	NewRNN                  = nn.NewRNN
	NewLSTM                 = nn.NewLSTM
	NewTimeRNN              = nn.NewTimeRNN
	NewTimeLSTM             = nn.NewTimeLSTM
	NewTimeEmbedding        = nn.NewTimeEmbedding
	NewTimeAffine           = nn.NewTimeAffine
	NewTimeDropout          = nn.NewTimeDropout
	NewTimeSoftmaxWithLoss  = nn.NewTimeSoftmaxWithLoss
	NewAttention            = nn.NewAttention
	NewTimeAttention        = nn.NewTimeAttention
)

// Initialisers.
var (
	Normal = nn.Normal
	Xavier = nn.Xavier
	Zeros  = nn.Zeros
)
