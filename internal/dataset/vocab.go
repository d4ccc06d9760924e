// Package dataset loads and shapes the training data used by deepzero models.
//
// Text corpora become a []int of word ids plus a Vocab mapping ids to words.
// Ids are assigned in order of first appearance.
package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownWord is returned when a fixed vocabulary meets a new word.
var ErrUnknownWord = errors.New("word not in vocabulary")

// Vocab is a bidirectional word/id mapping.
type Vocab struct {
	wordToID map[string]int
	idToWord []string
}

// NewVocab creates an empty vocabulary.
func NewVocab() *Vocab {
	return &Vocab{wordToID: make(map[string]int)}
}

// VocabFromWords builds a vocabulary where words[i] has id i.
func VocabFromWords(words []string) *Vocab {
	v := NewVocab()
	for _, w := range words {
		v.Add(w)
	}
	return v
}

// Add returns the id of word, assigning the next id on first sight.
func (v *Vocab) Add(word string) int {
	if id, ok := v.wordToID[word]; ok {
		return id
	}
	id := len(v.idToWord)
	v.wordToID[word] = id
	v.idToWord = append(v.idToWord, word)
	return id
}

// ID returns the id of word.
func (v *Vocab) ID(word string) (int, bool) {
	id, ok := v.wordToID[word]
	return id, ok
}

// Word returns the word for id, or "" when id is out of range.
func (v *Vocab) Word(id int) string {
	if id < 0 || id >= len(v.idToWord) {
		return ""
	}
	return v.idToWord[id]
}

// Len returns the number of words.
func (v *Vocab) Len() int { return len(v.idToWord) }

// Words returns the words in id order.
func (v *Vocab) Words() []string { return v.idToWord }

// Encode maps words to ids. With extend set unseen words are added,
// otherwise they yield ErrUnknownWord.
func (v *Vocab) Encode(words []string, extend bool) ([]int, error) {
	ids := make([]int, len(words))
	for i, w := range words {
		if extend {
			ids[i] = v.Add(w)
			continue
		}
		id, ok := v.wordToID[w]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownWord, w, i)
		}
		ids[i] = id
	}
	return ids, nil
}

// Decode maps ids back to words.
func (v *Vocab) Decode(ids []int) []string {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = v.Word(id)
	}
	return words
}
