package models_test

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/serialization"
	"github.com/born-ml/deepzero/internal/tensor"
)

func TestSaveLoadParamsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rnnlm.born")
	src := models.NewBetterRnnlm(tensor.NewRNG(1), 10, 4, 4, 0.5)
	require.NoError(t, models.SaveParams(src, path,
		models.WithMetadata(map[string]string{"dataset": "ptb"}),
		models.WithTrainingState(serialization.CheckpointMeta{Epoch: 3, Perplexity: 120.5}),
	))

	dst := models.NewBetterRnnlm(tensor.NewRNG(2), 10, 4, 4, 0.5)
	embed := dst.Params()[0]
	ckpt, err := models.LoadParams(dst, path)
	require.NoError(t, err)

	for i, p := range src.Params() {
		assert.True(t, p.Equal(dst.Params()[i]), "param %d", i)
	}
	assert.Same(t, embed, dst.Params()[0], "parameters are copied into the existing tensors")
	assert.Equal(t, "BetterRnnlm", ckpt.ModelType)
	assert.Equal(t, "ptb", ckpt.Metadata["dataset"])
	require.NotNil(t, ckpt.Meta)
	assert.Equal(t, 3, ckpt.Meta.Epoch)
}

func TestLoadParamsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.born")
	_, err := models.LoadParams(models.NewTwoLayerNet(tensor.NewRNG(1), 2, 3, 2), path)

	require.ErrorIs(t, err, models.ErrMissingCheckpoint)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), path)

	var missing *models.MissingCheckpointError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, path, missing.Path)
}

func TestLoadParamsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.born")
	require.NoError(t, models.SaveParams(models.NewTwoLayerNet(tensor.NewRNG(1), 2, 3, 2), path))

	wider := models.NewTwoLayerNet(tensor.NewRNG(1), 2, 4, 2)
	before := wider.Params()[0].Clone()
	_, err := models.LoadParams(wider, path)
	require.ErrorIs(t, err, models.ErrCheckpointMismatch)
	assert.True(t, before.Equal(wider.Params()[0]), "a failed load leaves the model untouched")

	_, err = models.LoadParams(models.NewSimpleCBOW(tensor.NewRNG(1), 3, 2), path)
	assert.ErrorIs(t, err, models.ErrCheckpointMismatch)
}

func TestDefaultCheckpointPath(t *testing.T) {
	t.Chdir(t.TempDir())
	m := models.NewRnnlm(tensor.NewRNG(1), 6, 3, 3)
	assert.Equal(t, "Rnnlm.born", models.DefaultCheckpointPath(m))

	require.NoError(t, models.SaveParams(m, ""))
	_, err := models.LoadParams(models.NewRnnlm(tensor.NewRNG(2), 6, 3, 3), "")
	require.NoError(t, err)
}
