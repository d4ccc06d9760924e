package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/born-ml/deepzero/internal/config"
	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/serialization"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/tokenizer"
)

// Checkpoint metadata keys.
const (
	metaModel       = "model"
	metaRunID       = "run_id"
	metaDataset     = "dataset"
	metaVocab       = "vocab"
	metaVocabSize   = "vocab_size"
	metaWordvecSize = "wordvec_size"
	metaHiddenSize  = "hidden_size"
	metaDropout     = "dropout"
	metaTokenizer   = "tokenizer"
)

var errMissingMeta = errors.New("checkpoint metadata is incomplete")

// runMeta is what a checkpoint needs to be rebuilt without the training data.
type runMeta struct {
	Model       string
	RunID       string
	Dataset     string
	Tokenizer   string
	Vocab       []string
	WordvecSize int
	HiddenSize  int
	Dropout     float64
}

func (m runMeta) encode() map[string]string {
	md := map[string]string{
		metaModel:       m.Model,
		metaRunID:       m.RunID,
		metaDataset:     m.Dataset,
		metaVocabSize:   strconv.Itoa(len(m.Vocab)),
		metaWordvecSize: strconv.Itoa(m.WordvecSize),
		metaHiddenSize:  strconv.Itoa(m.HiddenSize),
		metaDropout:     strconv.FormatFloat(m.Dropout, 'g', -1, 64),
	}
	if m.Tokenizer != "" {
		md[metaTokenizer] = m.Tokenizer
	}
	if len(m.Vocab) > 0 {
		md[metaVocab] = strings.Join(m.Vocab, "\n")
	}
	return md
}

func decodeMeta(md map[string]string) (runMeta, error) {
	m := runMeta{
		Model:     md[metaModel],
		RunID:     md[metaRunID],
		Dataset:   md[metaDataset],
		Tokenizer: md[metaTokenizer],
	}
	if m.Model == "" {
		return m, fmt.Errorf("%w: no %q", errMissingMeta, metaModel)
	}
	if v := md[metaVocab]; v != "" {
		m.Vocab = strings.Split(v, "\n")
	}
	var err error
	if m.WordvecSize, err = atoiKey(md, metaWordvecSize); err != nil {
		return m, err
	}
	if m.HiddenSize, err = atoiKey(md, metaHiddenSize); err != nil {
		return m, err
	}
	if s := md[metaDropout]; s != "" {
		if m.Dropout, err = strconv.ParseFloat(s, 64); err != nil {
			return m, fmt.Errorf("%w: %s: %w", errMissingMeta, metaDropout, err)
		}
	}
	if n, err := atoiKey(md, metaVocabSize); err == nil && n != len(m.Vocab) {
		return m, fmt.Errorf("%w: vocab_size %d but %d words stored", errMissingMeta, n, len(m.Vocab))
	}
	return m, nil
}

func atoiKey(md map[string]string, key string) (int, error) {
	v, err := strconv.Atoi(md[key])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errMissingMeta, key, err)
	}
	return v, nil
}

// vocab rebuilds the vocabulary stored in the checkpoint.
func (m runMeta) vocab() *dataset.Vocab {
	return dataset.VocabFromWords(m.Vocab)
}

// newLanguageModel builds an untrained model with the shape recorded in m.
func newLanguageModel(rng *rand.Rand, m runMeta) (models.LanguageModel, error) {
	V, D, H := len(m.Vocab), m.WordvecSize, m.HiddenSize
	if V == 0 {
		return nil, fmt.Errorf("%w: no vocabulary", errMissingMeta)
	}
	switch m.Model {
	case config.SimpleRnnlm:
		return models.NewSimpleRnnlm(rng, V, D, H), nil
	case config.Rnnlm:
		return models.NewRnnlm(rng, V, D, H), nil
	case config.BetterRnnlm:
		return models.NewBetterRnnlm(rng, V, D, H, m.Dropout), nil
	default:
		return nil, fmt.Errorf("%s is not a language model", m.Model)
	}
}

// tokenizerFor parses the --tokenizer flag:
//
//	words                 lowercase words with "." split off
//	lines                 whitespace words with <eos> at each newline
//	tiktoken:<encoding>   subword pieces, e.g. tiktoken:cl100k_base
//	bpe:<merges.json>     byte-pair merges from a tokenizer file
func tokenizerFor(name string) (tokenizer.Tokenizer, error) {
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case "", "words":
		return tokenizer.Words{}, nil
	case "lines":
		return tokenizer.Lines{}, nil
	case "tiktoken":
		if arg == "" {
			arg = "cl100k_base"
		}
		return tokenizer.NewTikToken(arg)
	case "bpe":
		if arg == "" {
			return nil, errors.New("bpe tokenizer needs a merges file: bpe:<path>")
		}
		return tokenizer.LoadBPE(arg)
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}

// readCheckpoint reads a checkpoint and its run metadata.
func readCheckpoint(path string) (serialization.Checkpoint, runMeta, error) {
	ckpt, err := serialization.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ckpt, runMeta{}, &models.MissingCheckpointError{Path: path, Err: err}
	}
	if err != nil {
		return ckpt, runMeta{}, err
	}
	meta, err := decodeMeta(ckpt.Metadata)
	if err != nil {
		return ckpt, meta, fmt.Errorf("%s: %w", path, err)
	}
	return ckpt, meta, nil
}

// loadLanguageModel rebuilds the language model stored at path.
func loadLanguageModel(path string, seed uint64) (models.LanguageModel, runMeta, error) {
	_, meta, err := readCheckpoint(path)
	if err != nil {
		return nil, meta, err
	}
	m, err := newLanguageModel(tensor.NewRNG(seed), meta)
	if err != nil {
		return nil, meta, err
	}
	if _, err := models.LoadParams(m, path); err != nil {
		return nil, meta, err
	}
	return m, meta, nil
}

// loadWordVecs returns the first parameter of the checkpoint at path, which
// is the input embedding of every word2vec model and language model.
func loadWordVecs(path string) (*tensor.Tensor, runMeta, error) {
	ckpt, meta, err := readCheckpoint(path)
	if err != nil {
		return nil, meta, err
	}
	if len(ckpt.Tensors) == 0 || ckpt.Tensors[0].Rank() != 2 || ckpt.Tensors[0].Dim(0) != len(meta.Vocab) {
		return nil, meta, fmt.Errorf("%s: %s checkpoint holds no (V, H) word matrix", path, meta.Model)
	}
	return ckpt.Tensors[0], meta, nil
}
