// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer splits text into the words that become corpus ids.
//
// Example:
//
//	words, _ := tokenizer.Words{}.Tokenize("You say goodbye.")
//	// [you say goodbye .]
package tokenizer

import "github.com/born-ml/deepzero/internal/tokenizer"

// Tokenizer splits text into words.
type Tokenizer = tokenizer.Tokenizer

// Func adapts a function to Tokenizer.
type Func = tokenizer.Func

// Words lowercases text and splits "." into its own word.
type Words = tokenizer.Words

// Lines splits on whitespace and marks every line end with EOS.
type Lines = tokenizer.Lines

// BPE applies learned byte-pair merges inside each word.
type BPE = tokenizer.BPE

// Merge is one byte-pair merge rule.
type Merge = tokenizer.Merge

// TikToken splits text into tiktoken subword pieces.
type TikToken = tokenizer.TikToken

// DefaultEOS marks the end of a sentence.
const DefaultEOS = tokenizer.DefaultEOS

// NewBPE creates a tokenizer from merge rules in priority order.
func NewBPE(merges []Merge) *BPE { return tokenizer.NewBPE(merges) }

// LearnBPE learns numMerges rules from text.
func LearnBPE(text string, numMerges int) (*BPE, error) { return tokenizer.LearnBPE(text, numMerges) }

// LoadBPE reads merges from a tokenizer.json file.
func LoadBPE(path string) (*BPE, error) { return tokenizer.LoadBPE(path) }

// NewTikToken loads a tiktoken encoding such as "cl100k_base".
func NewTikToken(encodingName string) (*TikToken, error) { return tokenizer.NewTikToken(encodingName) }
