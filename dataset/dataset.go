// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset loads and prepares training data.
//
// Example:
//
//	corpus, vocab := dataset.Preprocess("You say goodbye and I say hello.")
//	contexts, target, err := dataset.CreateContextsTarget(corpus, 1)
package dataset

import "github.com/born-ml/deepzero/internal/dataset"

// Vocab maps words to dense ids.
type Vocab = dataset.Vocab

// PTB holds the Penn Treebank splits.
type PTB = dataset.PTB

// Sequence holds a character-level sequence task.
type Sequence = dataset.Sequence

// SpiralSeed is the seed used for the reference spiral data.
const SpiralSeed = dataset.SpiralSeed

// ErrUnknownWord is returned when a word is missing from a fixed vocabulary.
var ErrUnknownWord = dataset.ErrUnknownWord

// Loaders and transforms.
var (
	NewVocab             = dataset.NewVocab
	Preprocess           = dataset.Preprocess
	BuildCorpus          = dataset.BuildCorpus
	LoadTextCorpus       = dataset.LoadTextCorpus
	LoadPTB              = dataset.LoadPTB
	LoadSequence         = dataset.LoadSequence
	CreateContextsTarget = dataset.CreateContextsTarget
	ConvertOneHot        = dataset.ConvertOneHot
	Spiral               = dataset.Spiral
	ReverseRows          = dataset.ReverseRows
)
