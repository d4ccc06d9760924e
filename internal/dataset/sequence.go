package dataset

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/born-ml/deepzero/internal/tensor"
)

// AnswerMarker separates question from answer in sequence files. It is kept
// as the first character of every answer and serves as the decoder start id.
const AnswerMarker = "_"

// Sequence is a character-level question/answer dataset such as addition.txt.
type Sequence struct {
	TrainX, TrainT *tensor.Tensor
	TestX, TestT   *tensor.Tensor
	Vocab          *Vocab
}

// LoadSequence reads lines of the form "16+75  _91  ". Every question and
// every answer must have the same width across lines.
//
// Characters get ids in order of first appearance. Rows are shuffled with
// rng and the last tenth becomes the test split.
func LoadSequence(path string, rng *rand.Rand) (*Sequence, error) {
	f, err := os.Open(path) //nolint:gosec // G304: dataset paths come from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to open sequence file: %w", err)
	}
	defer f.Close()

	var questions, answers []string
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		idx := strings.Index(text, AnswerMarker)
		if idx < 0 {
			return nil, fmt.Errorf("%s:%d: missing %q", path, line, AnswerMarker)
		}
		questions = append(questions, text[:idx])
		answers = append(answers, text[idx:])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sequence file: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%s: no samples", path)
	}

	vocab := NewVocab()
	for i := range questions {
		for _, s := range []string{questions[i], answers[i]} {
			for _, r := range s {
				vocab.Add(string(r))
			}
		}
	}

	x, err := encodeRows(questions, vocab)
	if err != nil {
		return nil, fmt.Errorf("%s: questions: %w", path, err)
	}
	t, err := encodeRows(answers, vocab)
	if err != nil {
		return nil, fmt.Errorf("%s: answers: %w", path, err)
	}

	idx := rng.Perm(len(questions))
	x, t = tensor.TakeRows(x, idx), tensor.TakeRows(t, idx)
	n := len(idx)
	split := n - n/10
	return &Sequence{
		TrainX: tensor.SliceRows(x, 0, split),
		TrainT: tensor.SliceRows(t, 0, split),
		TestX:  tensor.SliceRows(x, split, n),
		TestT:  tensor.SliceRows(t, split, n),
		Vocab:  vocab,
	}, nil
}

func encodeRows(rows []string, vocab *Vocab) (*tensor.Tensor, error) {
	width := utf8.RuneCountInString(rows[0])
	ids := make([]int, 0, len(rows)*width)
	for i, row := range rows {
		if n := utf8.RuneCountInString(row); n != width {
			return nil, fmt.Errorf("row %d has %d characters, want %d", i, n, width)
		}
		for _, r := range row {
			id, _ := vocab.ID(string(r))
			ids = append(ids, id)
		}
	}
	return tensor.FromInts(ids, len(rows), width), nil
}

// ReverseRows returns a copy of x (N, T) with every row reversed. Feeding
// reversed questions to a seq2seq encoder shortens the path between the
// first question and answer characters.
func ReverseRows(x *tensor.Tensor) *tensor.Tensor {
	n, T := x.Dim(0), x.Dim(1)
	out := tensor.Zeros(n, T)
	src, dst := x.Data(), out.Data()
	for i := range n {
		for j := range T {
			dst[i*T+j] = src[i*T+T-1-j]
		}
	}
	return out
}

// Decode joins the characters of ids.
func (s *Sequence) Decode(ids []int) string {
	return strings.Join(s.Vocab.Decode(ids), "")
}
