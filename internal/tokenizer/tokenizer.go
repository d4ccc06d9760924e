package tokenizer

import (
	"strings"
)

// DefaultEOS is the end-of-sentence token used by Penn Treebank corpora.
const DefaultEOS = "<eos>"

// Tokenizer is the core interface for text tokenization.
//
// Tokenize returns word pieces in text order. Vocabulary ids are assigned by
// the caller, so any tokenizer can feed a corpus.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// Func adapts a plain function to the Tokenizer interface.
type Func func(text string) ([]string, error)

// Tokenize calls f(text).
func (f Func) Tokenize(text string) ([]string, error) { return f(text) }

// Words lowercases text, separates every "." into its own token and splits
// on whitespace.
type Words struct{}

// Tokenize implements Tokenizer.
func (Words) Tokenize(text string) ([]string, error) {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, ".", " .")
	return strings.Fields(text), nil
}

// Lines splits on whitespace and emits EOS at every newline. Case is kept.
type Lines struct {
	EOS string // End-of-sentence token (default: "<eos>")
}

// Tokenize implements Tokenizer.
func (l Lines) Tokenize(text string) ([]string, error) {
	eos := l.EOS
	if eos == "" {
		eos = DefaultEOS
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", " "+eos+" ")
	return strings.Fields(text), nil
}
