package wordvec

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/tensor"
)

const normEps = 1e-8

// ErrUnknownWord is returned when a query word is not in the vocabulary.
var ErrUnknownWord = errors.New("wordvec: word not found")

// Neighbor is a ranked query result.
type Neighbor struct {
	Word       string  `json:"word"`
	Similarity float64 `json:"similarity"`
}

// CosSimilarity returns the cosine of the angle between x and y. Zero
// vectors give 0 instead of NaN.
func CosSimilarity(x, y []float64) float64 {
	nx := floats.Norm(x, 2) + normEps
	ny := floats.Norm(y, 2) + normEps
	return floats.Dot(x, y) / (nx * ny)
}

// Normalize scales every row of a 2-D matrix, or a whole 1-D vector, to unit
// length. A zero row stays zero.
func Normalize(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	if x.Rank() == 1 {
		normalizeSlice(out.Data())
		return out
	}
	for i := range out.Dim(0) {
		normalizeSlice(out.Row(i))
	}
	return out
}

func normalizeSlice(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}

// MostSimilar ranks every other word of vocab by cosine similarity to query.
// W is the (V, H) word matrix. At most top neighbours are returned.
//
// Example:
//
//	neighbors, err := wordvec.MostSimilar("you", vocab, model.WordVecs(), 5)
func MostSimilar(query string, vocab *dataset.Vocab, W *tensor.Tensor, top int) ([]Neighbor, error) {
	id, ok := vocab.ID(query)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWord, query)
	}
	q := W.Row(id)
	scores := make([]float64, W.Dim(0))
	for i := range scores {
		scores[i] = CosSimilarity(W.Row(i), q)
	}
	return rank(vocab, scores, top, id), nil
}

// Analogy answers "a is to b as c is to ?" by ranking words against
// normalize(b - a + c) with dot products over the row-normalised W.
// The three query words are never returned.
//
// Example:
//
//	answers, err := wordvec.Analogy("man", "king", "woman", vocab, W, 5)
//	// answers[0].Word == "queen" for well-trained vectors
func Analogy(a, b, c string, vocab *dataset.Vocab, W *tensor.Tensor, top int) ([]Neighbor, error) {
	ids := make([]int, 3)
	for i, w := range []string{a, b, c} {
		id, ok := vocab.ID(w)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWord, w)
		}
		ids[i] = id
	}

	Wn := Normalize(W)
	query := make([]float64, W.Dim(1))
	floats.Add(query, Wn.Row(ids[1]))
	floats.Sub(query, Wn.Row(ids[0]))
	floats.Add(query, Wn.Row(ids[2]))
	normalizeSlice(query)

	scores := make([]float64, W.Dim(0))
	for i := range scores {
		scores[i] = floats.Dot(Wn.Row(i), query)
	}
	return rank(vocab, scores, top, ids...), nil
}

// rank sorts ids by descending score, skipping exclude. Equal scores keep id
// order.
func rank(vocab *dataset.Vocab, scores []float64, top int, exclude ...int) []Neighbor {
	order := make([]int, 0, len(scores))
	for i, s := range scores {
		if slices.Contains(exclude, i) || math.IsNaN(s) {
			continue
		}
		order = append(order, i)
	}
	slices.SortStableFunc(order, func(i, j int) int { return cmp.Compare(scores[j], scores[i]) })

	if top > 0 && len(order) > top {
		order = order[:top]
	}
	out := make([]Neighbor, len(order))
	for k, i := range order {
		out[k] = Neighbor{Word: vocab.Word(i), Similarity: scores[i]}
	}
	return out
}
