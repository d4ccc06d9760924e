package models

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/born-ml/deepzero/internal/serialization"
	"github.com/born-ml/deepzero/internal/tensor"
)

// CheckpointExt is the file extension of saved parameters.
const CheckpointExt = ".born"

// ErrMissingCheckpoint is matched by errors.Is when LoadParams finds no file.
var ErrMissingCheckpoint = errors.New("checkpoint not found")

// ErrCheckpointMismatch is returned when a checkpoint does not fit the model.
var ErrCheckpointMismatch = errors.New("checkpoint does not match model")

// MissingCheckpointError reports the path LoadParams tried to read.
type MissingCheckpointError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *MissingCheckpointError) Error() string {
	return fmt.Sprintf("checkpoint not found: %s", e.Path)
}

// Is matches ErrMissingCheckpoint.
func (e *MissingCheckpointError) Is(target error) bool {
	return target == ErrMissingCheckpoint
}

// Unwrap returns the underlying file system error.
func (e *MissingCheckpointError) Unwrap() error { return e.Err }

// DefaultCheckpointPath returns "<Name>.born".
func DefaultCheckpointPath(m Model) string {
	return m.Name() + CheckpointExt
}

// SaveOption adds information to a checkpoint.
type SaveOption func(*serialization.Checkpoint)

// WithMetadata attaches string metadata, such as the dataset name.
func WithMetadata(md map[string]string) SaveOption {
	return func(c *serialization.Checkpoint) { c.Metadata = md }
}

// WithTrainingState records training progress alongside the parameters.
func WithTrainingState(meta serialization.CheckpointMeta) SaveOption {
	return func(c *serialization.Checkpoint) { c.Meta = &meta }
}

// SaveParams writes m.Params() in order to path. An empty path means
// DefaultCheckpointPath(m).
func SaveParams(m Model, path string, opts ...SaveOption) error {
	if path == "" {
		path = DefaultCheckpointPath(m)
	}
	ckpt := serialization.Checkpoint{ModelType: m.Name(), Tensors: m.Params()}
	for _, opt := range opts {
		opt(&ckpt)
	}
	if err := serialization.WriteFile(path, ckpt); err != nil {
		return fmt.Errorf("save %s: %w", m.Name(), err)
	}
	return nil
}

// LoadParams copies the arrays stored at path into m.Params() in order. An
// empty path means DefaultCheckpointPath(m).
//
// The model keeps its own tensors: tied parameters stay tied because each
// stored array is copied into the existing tensor at the same position.
// A missing file yields a *MissingCheckpointError.
func LoadParams(m Model, path string) (*serialization.Checkpoint, error) {
	if path == "" {
		path = DefaultCheckpointPath(m)
	}
	ckpt, err := serialization.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingCheckpointError{Path: path, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := copyParams(m.Params(), ckpt.Tensors); err != nil {
		return nil, fmt.Errorf("load %s into %s (saved by %s): %w", path, m.Name(), ckpt.ModelType, err)
	}
	return &ckpt, nil
}

func copyParams(dst, src []*tensor.Tensor) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: %d stored arrays for %d parameters", ErrCheckpointMismatch, len(src), len(dst))
	}
	for i, p := range dst {
		if !p.Shape().Equal(src[i].Shape()) {
			return fmt.Errorf("%w: parameter %d has shape %v, stored %v", ErrCheckpointMismatch, i, p.Shape(), src[i].Shape())
		}
	}
	for i, p := range dst {
		p.CopyFrom(src[i])
	}
	return nil
}
