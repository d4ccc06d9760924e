package serialization

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/tensor"
)

func sampleCheckpoint() Checkpoint {
	rng := tensor.NewRNG(11)
	return Checkpoint{
		ModelType: "TwoLayerNet",
		Tensors: []*tensor.Tensor{
			tensor.Randn(rng, 2, 10),
			tensor.Zeros(10),
			tensor.Randn(rng, 10, 3),
			tensor.New([]float64{1e-300, -0.0, 3.5}, 3),
		},
		Metadata: map[string]string{"dataset": "spiral"},
		Meta:     &CheckpointMeta{Epoch: 300, Loss: 0.12, OptimizerType: "SGD", LearningRate: 1},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.born")
	want := sampleCheckpoint()
	require.NoError(t, WriteFile(path, want))

	got, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "TwoLayerNet", got.ModelType)
	assert.Equal(t, "spiral", got.Metadata["dataset"])
	require.NotNil(t, got.Meta)
	assert.Equal(t, 300, got.Meta.Epoch)
	require.Len(t, got.Tensors, len(want.Tensors))
	for i := range want.Tensors {
		assert.Equal(t, want.Tensors[i].Shape(), got.Tensors[i].Shape(), "tensor %d", i)
		assert.Equal(t, want.Tensors[i].Data(), got.Tensors[i].Data(), "tensor %d is bit-identical", i)
	}
}

func TestReaderHeaderAndNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.born")
	require.NoError(t, WriteFile(path, sampleCheckpoint()))

	r, err := NewBornReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"param.0", "param.1", "param.2", "param.3"}, r.TensorNames())
	assert.Equal(t, FormatVersionV2, r.Header().FormatVersion)
	assert.NotZero(t, r.Flags()&FlagHasMetadata)
	assert.NotZero(t, r.Flags()&FlagHasCheckpoint)

	p2, err := r.ReadTensor("param.2")
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{10, 3}, p2.Shape())

	_, err = r.ReadTensor("param.9")
	assert.ErrorIs(t, err, ErrTensorNotFound)

	require.NoError(t, r.Close())
	_, err = r.ReadTensor("param.0")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDataAlignment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleCheckpoint()))

	r := bytes.NewReader(buf.Bytes())
	fixed := make([]byte, FixedHeaderSizeV2)
	_, err := r.Read(fixed)
	require.NoError(t, err)
	assert.Equal(t, MagicBytes, string(fixed[:4]))

	dataBytes := int64(2*10+10+10*3+3) * 8
	assert.Zero(t, (int64(buf.Len())-dataBytes)%HeaderAlignment, "data section starts on a 64-byte boundary")
}

func TestCorruptedDataFailsChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.born")
	require.NoError(t, WriteFile(path, sampleCheckpoint()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = NewBornReader(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	r, err := NewBornReaderWithOptions(path, ReaderOptions{SkipChecksumValidation: true})
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestInvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.born")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o600))

	_, err := NewBornReader(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestMissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.born"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestValidateHeader(t *testing.T) {
	good := TensorMeta{Name: "param.0", DType: DTypeFloat64, Shape: []int{2, 2}, Size: 32}

	tests := []struct {
		name    string
		tensors []TensorMeta
		errType string
	}{
		{"ok", []TensorMeta{good}, ""},
		{"dtype", []TensorMeta{{Name: "a", DType: "float32", Shape: []int{1}, Size: 4}}, "unsupported_dtype"},
		{"size", []TensorMeta{{Name: "a", DType: DTypeFloat64, Shape: []int{3}, Size: 8}}, "size_mismatch"},
		{"traversal", []TensorMeta{{Name: "../etc", DType: DTypeFloat64, Shape: []int{1}, Size: 8}}, "invalid_name"},
		{"out of bounds", []TensorMeta{{Name: "a", DType: DTypeFloat64, Shape: []int{8}, Size: 64}}, "out_of_bounds"},
		{"overlap", []TensorMeta{good, {Name: "b", DType: DTypeFloat64, Shape: []int{1}, Offset: 16, Size: 8}}, "offset_overlap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(&Header{Tensors: tt.tensors}, 40, ValidationStrict)
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.errType, verr.Kind)
		})
	}

	assert.NoError(t, ValidateHeader(&Header{Tensors: tests[1].tensors}, 0, ValidationNone))
}
