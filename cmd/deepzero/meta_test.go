package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/tokenizer"
)

func TestRunMetaRoundTrip(t *testing.T) {
	in := runMeta{
		Model:       "BetterRnnlm",
		RunID:       "run-1",
		Dataset:     "ptb",
		Vocab:       []string{"a", "b", "<eos>"},
		WordvecSize: 4,
		HiddenSize:  4,
		Dropout:     0.5,
	}
	out, err := decodeMeta(in.encode())
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, 3, out.vocab().Len())
}

func TestDecodeMetaRejectsIncomplete(t *testing.T) {
	_, err := decodeMeta(map[string]string{})
	assert.ErrorIs(t, err, errMissingMeta)

	md := runMeta{Model: "Rnnlm", Vocab: []string{"a"}, WordvecSize: 2, HiddenSize: 2}.encode()
	md[metaVocabSize] = "7"
	_, err = decodeMeta(md)
	assert.ErrorIs(t, err, errMissingMeta)
}

func TestNewLanguageModelMatchesCheckpoint(t *testing.T) {
	path := t.TempDir() + "/lm.born"
	meta := runMeta{Model: "Rnnlm", Vocab: []string{"a", "b", "c"}, WordvecSize: 2, HiddenSize: 3}
	src, err := newLanguageModel(tensor.NewRNG(1), meta)
	require.NoError(t, err)
	require.NoError(t, models.SaveParams(src, path, models.WithMetadata(meta.encode())))

	dst, err := newLanguageModel(tensor.NewRNG(2), meta)
	require.NoError(t, err)
	ckpt, err := models.LoadParams(dst, path)
	require.NoError(t, err)
	assert.Equal(t, "Rnnlm", ckpt.Metadata[metaModel])
	assert.True(t, src.Params()[0].Equal(dst.Params()[0]))

	_, err = newLanguageModel(tensor.NewRNG(1), runMeta{Model: "CBOW", Vocab: []string{"a"}})
	assert.Error(t, err)
}

func TestTokenizerFor(t *testing.T) {
	tok, err := tokenizerFor("")
	require.NoError(t, err)
	assert.IsType(t, tokenizer.Words{}, tok)

	tok, err = tokenizerFor("lines")
	require.NoError(t, err)
	assert.IsType(t, tokenizer.Lines{}, tok)

	_, err = tokenizerFor("bpe")
	assert.Error(t, err)
	_, err = tokenizerFor("sentencepiece")
	assert.Error(t, err)
}
