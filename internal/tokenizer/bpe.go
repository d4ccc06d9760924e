package tokenizer

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// Merge is one BPE rule: the adjacent pieces First and Second become one.
type Merge struct {
	First  string
	Second string
}

// BPE implements Byte-Pair Encoding over whitespace-separated words.
//
// Each word starts as a sequence of runes; the highest-priority applicable
// merge is applied until none applies. Earlier merges have higher priority.
type BPE struct {
	merges []Merge
	ranks  map[Merge]int
	lower  bool
}

// NewBPE creates a tokenizer from merges in priority order.
func NewBPE(merges []Merge) *BPE {
	ranks := make(map[Merge]int, len(merges))
	for i, m := range merges {
		if _, ok := ranks[m]; !ok {
			ranks[m] = i
		}
	}
	return &BPE{merges: merges, ranks: ranks}
}

// LearnBPE learns up to numMerges merges from text tokenized by Words.
//
// Every round counts adjacent piece pairs over all word occurrences and
// merges the most frequent one. Ties go to the pair seen first.
func LearnBPE(text string, numMerges int) (*BPE, error) {
	words, err := Words{}.Tokenize(text)
	if err != nil {
		return nil, err
	}
	seqs := make([][]string, len(words))
	for i, w := range words {
		seqs[i] = splitRunes(w)
	}

	var merges []Merge
	for range numMerges {
		counts := make(map[Merge]int)
		var order []Merge
		for _, seq := range seqs {
			for i := 0; i+1 < len(seq); i++ {
				p := Merge{seq[i], seq[i+1]}
				if counts[p] == 0 {
					order = append(order, p)
				}
				counts[p]++
			}
		}
		if len(order) == 0 {
			break
		}
		best := order[0]
		for _, p := range order[1:] {
			if counts[p] > counts[best] {
				best = p
			}
		}
		merges = append(merges, best)
		for i, seq := range seqs {
			seqs[i] = applyMerge(seq, best)
		}
	}
	b := NewBPE(merges)
	b.lower = true
	return b, nil
}

// Merges returns the rules in priority order.
func (b *BPE) Merges() []Merge { return b.merges }

// Tokenize implements Tokenizer.
func (b *BPE) Tokenize(text string) ([]string, error) {
	if b.lower {
		text = strings.ToLower(text)
	}
	var pieces []string
	for _, word := range strings.Fields(text) {
		pieces = append(pieces, b.encodeWord(word)...)
	}
	return pieces, nil
}

func (b *BPE) encodeWord(word string) []string {
	chars := splitRunes(word)
	for len(chars) > 1 {
		bestIdx := -1
		bestRank := len(b.merges)
		for i := 0; i+1 < len(chars); i++ {
			if rank, ok := b.ranks[Merge{chars[i], chars[i+1]}]; ok && rank < bestRank {
				bestIdx, bestRank = i, rank
			}
		}
		if bestIdx == -1 {
			break
		}
		chars = applyMerge(chars, b.merges[bestRank])
	}
	return chars
}

func splitRunes(word string) []string {
	chars := make([]string, 0, len(word))
	for _, r := range word {
		chars = append(chars, string(r))
	}
	return chars
}

// applyMerge joins every non-overlapping occurrence of m, left to right.
func applyMerge(seq []string, m Merge) []string {
	out := make([]string, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		if i+1 < len(seq) && seq[i] == m.First && seq[i+1] == m.Second {
			out = append(out, m.First+m.Second)
			i++
			continue
		}
		out = append(out, seq[i])
	}
	return out
}

// huggingFaceConfig is the subset of tokenizer.json that BPE needs.
type huggingFaceConfig struct {
	Model struct {
		Type   string   `json:"type"`
		Merges []string `json:"merges"`
	} `json:"model"`
}

// LoadBPE loads the merge list of a HuggingFace tokenizer.json file.
func LoadBPE(path string) (*BPE, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config huggingFaceConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}
	if config.Model.Type != "" && config.Model.Type != "BPE" {
		return nil, fmt.Errorf("tokenizer.json model type %q is not BPE", config.Model.Type)
	}

	merges := make([]Merge, 0, len(config.Model.Merges))
	for _, s := range config.Model.Merges {
		parts := strings.Fields(s)
		if len(parts) == 2 {
			merges = append(merges, Merge{parts[0], parts[1]})
		}
	}
	return NewBPE(merges), nil
}
