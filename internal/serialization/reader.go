package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/born-ml/deepzero/internal/tensor"
)

// ReaderOptions configures the behavior of BornReader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// BornReader reads checkpoints from .born files.
type BornReader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64
	opts       ReaderOptions
	closed     bool
}

// NewBornReader opens path with strict validation.
//
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
func NewBornReader(path string) (*BornReader, error) {
	return NewBornReaderWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewBornReaderWithOptions opens path with custom options.
func NewBornReaderWithOptions(path string, opts ReaderOptions) (*BornReader, error) {
	file, err := os.Open(path) //nolint:gosec // G304: checkpoint paths come from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &BornReader{file: file, opts: opts}
	if err := r.parseHeader(); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return r, nil
}

func (r *BornReader) parseHeader() error {
	fixedHeader := make([]byte, FixedHeaderSizeV2)
	if _, err := io.ReadFull(r.file, fixedHeader); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixedHeader[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixedHeader[4:8]); version != FormatVersionV2 {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersionV2)
	}
	r.flags = binary.LittleEndian.Uint32(fixedHeader[8:12])
	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	dataSize := binary.LittleEndian.Uint64(fixedHeader[24:32])
	var stored [32]byte
	copy(stored[:], fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}
	r.dataOffset = int64(FixedHeaderSizeV2) + int64(headerSize)
	r.dataOffset += alignPadding(r.dataOffset)

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if available := info.Size() - r.dataOffset; available < int64(dataSize) { //nolint:gosec // bounded by file size
		return &ValidationError{
			Kind:    "truncated",
			Details: fmt.Sprintf("data section has %d bytes, header says %d", available, dataSize),
		}
	}
	if err := ValidateHeader(&r.header, int64(dataSize), r.opts.ValidationLevel); err != nil { //nolint:gosec // checked above
		return fmt.Errorf("validation failed: %w", err)
	}

	if !r.opts.SkipChecksumValidation {
		data := make([]byte, dataSize)
		if _, err := r.file.ReadAt(data, r.dataOffset); err != nil {
			return fmt.Errorf("failed to read tensor data for checksum: %w", err)
		}
		if sha256.Sum256(data) != stored {
			return fmt.Errorf("%w: data section of %d bytes", ErrChecksumMismatch, dataSize)
		}
	}
	return nil
}

// Header returns the file header.
func (r *BornReader) Header() Header {
	return r.header
}

// Flags returns the flag word of the fixed header.
func (r *BornReader) Flags() uint32 {
	return r.flags
}

// TensorNames returns the tensor names in stored order.
func (r *BornReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *BornReader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range r.header.Tensors {
		if r.header.Tensors[i].Name == name {
			return &r.header.Tensors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// ReadTensor loads one tensor by name.
func (r *BornReader) ReadTensor(name string) (*tensor.Tensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader: %w", ErrClosed)
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, meta.Size)
	if _, err := r.file.ReadAt(raw, r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}
	data := make([]float64, len(raw)/float64Size)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*float64Size:]))
	}
	return tensor.New(data, meta.Shape...), nil
}

// ReadCheckpoint loads every tensor in stored order.
func (r *BornReader) ReadCheckpoint() (Checkpoint, error) {
	ckpt := Checkpoint{
		ModelType: r.header.ModelType,
		Metadata:  r.header.Metadata,
		Meta:      r.header.CheckpointMeta,
		CreatedAt: r.header.CreatedAt,
		Tensors:   make([]*tensor.Tensor, 0, len(r.header.Tensors)),
	}
	for _, meta := range r.header.Tensors {
		t, err := r.ReadTensor(meta.Name)
		if err != nil {
			return Checkpoint{}, err
		}
		ckpt.Tensors = append(ckpt.Tensors, t)
	}
	return ckpt, nil
}

// Close closes the reader and the underlying file.
func (r *BornReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// ReadFile opens path and loads its checkpoint.
func ReadFile(path string) (Checkpoint, error) {
	r, err := NewBornReader(path)
	if err != nil {
		return Checkpoint{}, err
	}
	defer func() { _ = r.Close() }()
	return r.ReadCheckpoint()
}
