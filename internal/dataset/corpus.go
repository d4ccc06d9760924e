package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/born-ml/deepzero/internal/tokenizer"
)

// Preprocess lowercases text, splits "." into its own word and returns the
// id corpus with its vocabulary.
//
// Example:
//
//	corpus, vocab := dataset.Preprocess("You say goodbye and I say hello.")
//	// corpus: [0 1 2 3 4 1 5 6]
func Preprocess(text string) ([]int, *Vocab) {
	corpus, vocab, _ := BuildCorpus(text, tokenizer.Words{})
	return corpus, vocab
}

// BuildCorpus tokenizes text with tok and assigns ids in order of first appearance.
func BuildCorpus(text string, tok tokenizer.Tokenizer) ([]int, *Vocab, error) {
	words, err := tok.Tokenize(text)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenize: %w", err)
	}
	vocab := NewVocab()
	corpus, _ := vocab.Encode(words, true)
	return corpus, vocab, nil
}

// LoadTextCorpus reads a Penn Treebank style file, where every newline ends
// a sentence and becomes "<eos>".
//
// With extend set, new words are added to vocab (training split). Otherwise
// vocab is fixed and unseen words are an error (validation and test splits).
func LoadTextCorpus(path string, vocab *Vocab, extend bool) ([]int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: dataset paths come from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	words, _ := tokenizer.Lines{}.Tokenize(string(data))
	corpus, err := vocab.Encode(words, extend)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return corpus, nil
}

// PTB file names inside a data directory.
const (
	PTBTrain = "ptb.train.txt"
	PTBValid = "ptb.valid.txt"
	PTBTest  = "ptb.test.txt"
)

// PTB holds the three Penn Treebank splits over one vocabulary.
type PTB struct {
	Train, Valid, Test []int
	Vocab              *Vocab
}

// LoadPTB reads the splits from dir. The vocabulary comes from the training
// split. A missing validation or test file leaves that split nil.
func LoadPTB(dir string) (*PTB, error) {
	p := &PTB{Vocab: NewVocab()}
	var err error
	if p.Train, err = LoadTextCorpus(filepath.Join(dir, PTBTrain), p.Vocab, true); err != nil {
		return nil, err
	}
	for name, dst := range map[string]*[]int{PTBValid: &p.Valid, PTBTest: &p.Test} {
		path := filepath.Join(dir, name)
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			continue
		}
		if *dst, err = LoadTextCorpus(path, p.Vocab, false); err != nil {
			return nil, err
		}
	}
	return p, nil
}
