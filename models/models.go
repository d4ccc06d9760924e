// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides the complete networks built from nn layers.
//
// Every model owns its layers, exposes aligned Params and Grads slices and
// computes a scalar loss in Forward. Models that tie weights return the
// shared tensor more than once; train.Deduplicate merges those entries
// before an optimizer step.
//
// Models:
//   - TwoLayerNet: affine, sigmoid, affine classifier
//   - SimpleCBOW, SimpleSkipGram, CBOW, SkipGram: word2vec
//   - SimpleRnnlm, Rnnlm, BetterRnnlm: language models
//   - Seq2seq, PeekySeq2seq, AttentionSeq2seq: sequence to sequence
//
// Example:
//
//	rng := tensor.NewRNG(1984)
//	model := models.NewRnnlm(rng, vocab.Len(), 100, 100)
//	err := models.SaveParams(model, "rnnlm.born")
package models

import "github.com/born-ml/deepzero/internal/models"

// Model is a network that can be trained and checkpointed.
type Model = models.Model

// LanguageModel is a recurrent model over token ids.
type LanguageModel = models.LanguageModel

// WordVectors exposes a learned (V, H) word matrix.
type WordVectors = models.WordVectors

// State is the carried state of one recurrent layer.
type State = models.State

// Model types.
type (
	TwoLayerNet      = models.TwoLayerNet
	SimpleCBOW       = models.SimpleCBOW
	SimpleSkipGram   = models.SimpleSkipGram
	CBOW             = models.CBOW
	SkipGram         = models.SkipGram
	Word2VecConfig   = models.Word2VecConfig
	SimpleRnnlm      = models.SimpleRnnlm
	Rnnlm            = models.Rnnlm
	BetterRnnlm      = models.BetterRnnlm
	Encoder          = models.Encoder
	Decoder          = models.Decoder
	PeekyDecoder     = models.PeekyDecoder
	AttentionDecoder = models.AttentionDecoder
	Seq2seq          = models.Seq2seq
	AttentionSeq2seq = models.AttentionSeq2seq
	RnnlmGen         = models.RnnlmGen
)

// Constructors.
var (
	NewTwoLayerNet      = models.NewTwoLayerNet
	NewSimpleCBOW       = models.NewSimpleCBOW
	NewSimpleSkipGram   = models.NewSimpleSkipGram
	NewCBOW             = models.NewCBOW
	NewSkipGram         = models.NewSkipGram
	NewSimpleRnnlm      = models.NewSimpleRnnlm
	NewRnnlm            = models.NewRnnlm
	NewBetterRnnlm      = models.NewBetterRnnlm
	NewSeq2seq          = models.NewSeq2seq
	NewPeekySeq2seq     = models.NewPeekySeq2seq
	NewAttentionSeq2seq = models.NewAttentionSeq2seq
	NewRnnlmGen         = models.NewRnnlmGen
	NewBetterRnnlmGen   = models.NewBetterRnnlmGen
)

// Checkpoint errors.
var (
	ErrMissingCheckpoint  = models.ErrMissingCheckpoint
	ErrCheckpointMismatch = models.ErrCheckpointMismatch
	ErrNoState            = models.ErrNoState
)

// CheckpointExt is the extension of checkpoint files.
const CheckpointExt = models.CheckpointExt

// SaveOption adds data to a saved checkpoint.
type SaveOption = models.SaveOption

// Checkpoint helpers.
var (
	SaveParams            = models.SaveParams
	LoadParams            = models.LoadParams
	DefaultCheckpointPath = models.DefaultCheckpointPath
	WithMetadata          = models.WithMetadata
	WithTrainingState     = models.WithTrainingState
)
