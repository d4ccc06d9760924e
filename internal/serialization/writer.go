package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/born-ml/deepzero/internal/tensor"
)

// Version is written into every header.
const Version = "0.3.0"

// Checkpoint is the in-memory form of a .born file.
type Checkpoint struct {
	ModelType string
	Tensors   []*tensor.Tensor
	Metadata  map[string]string
	Meta      *CheckpointMeta

	// CreatedAt is set when reading; writers stamp the current time.
	CreatedAt time.Time
}

// BornWriter writes checkpoints to a .born file.
//
// Example:
//
//	w, err := serialization.NewBornWriter("model.born")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	err = w.WriteCheckpoint(serialization.Checkpoint{ModelType: "TwoLayerNet", Tensors: params})
type BornWriter struct {
	file   *os.File
	closed bool
}

// NewBornWriter creates a new .born file writer.
func NewBornWriter(path string) (*BornWriter, error) {
	file, err := os.Create(path) //nolint:gosec // G304: checkpoint paths come from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &BornWriter{file: file}, nil
}

// WriteCheckpoint writes ckpt to the file.
func (w *BornWriter) WriteCheckpoint(ckpt Checkpoint) error {
	if w.closed {
		return fmt.Errorf("writer: %w", ErrClosed)
	}
	return Encode(w.file, ckpt)
}

// Close closes the underlying file.
func (w *BornWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteFile writes ckpt to path, replacing any existing file.
func WriteFile(path string, ckpt Checkpoint) (err error) {
	w, err := NewBornWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return w.WriteCheckpoint(ckpt)
}

// Encode writes ckpt in v2 layout to out.
func Encode(out io.Writer, ckpt Checkpoint) error {
	header := Header{
		FormatVersion:  FormatVersionV2,
		Version:        Version,
		ModelType:      ckpt.ModelType,
		CreatedAt:      time.Now().UTC(),
		Tensors:        make([]TensorMeta, 0, len(ckpt.Tensors)),
		Metadata:       ckpt.Metadata,
		CheckpointMeta: ckpt.Meta,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var offset int64
	for i, t := range ckpt.Tensors {
		size := int64(t.Len()) * float64Size
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   ParamName(i),
			DType:  DTypeFloat64,
			Shape:  []int(t.Shape().Clone()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	data := make([]byte, offset)
	pos := 0
	for _, t := range ckpt.Tensors {
		for _, v := range t.Data() {
			binary.LittleEndian.PutUint64(data[pos:], math.Float64bits(v))
			pos += float64Size
		}
	}
	checksum := sha256.Sum256(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixedHeader := make([]byte, FixedHeaderSizeV2)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersionV2))
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil {
		flags |= FlagHasCheckpoint
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)
	// 0x0C-0x0F reserved
	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(data)))
	copy(fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	if _, err := out.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if padding := alignPadding(int64(FixedHeaderSizeV2) + int64(len(headerJSON))); padding > 0 {
		if _, err := out.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

func alignPadding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
