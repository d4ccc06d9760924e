package serialization

import (
	"errors"
	"fmt"
)

// Errors returned while reading checkpoints.
var (
	ErrChecksumMismatch   = errors.New("checkpoint checksum mismatch")
	ErrHeaderTooLarge     = errors.New("checkpoint header too large")
	ErrInvalidMagic       = errors.New("not a .born checkpoint")
	ErrUnsupportedVersion = errors.New("unsupported checkpoint version")
	ErrTensorNotFound     = errors.New("tensor not in checkpoint")
	ErrClosed             = errors.New("checkpoint file closed")
)

// ValidationError describes a malformed header or tensor table.
type ValidationError struct {
	Kind    string // e.g. "offset_overlap", "out_of_bounds", "truncated"
	Tensor  string
	Other   string // second tensor of an overlap
	Details string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Other != "":
		return fmt.Sprintf("invalid checkpoint (%s): %s overlaps %s: %s", e.Kind, e.Tensor, e.Other, e.Details)
	case e.Tensor != "":
		return fmt.Sprintf("invalid checkpoint (%s): %s: %s", e.Kind, e.Tensor, e.Details)
	default:
		return fmt.Sprintf("invalid checkpoint (%s): %s", e.Kind, e.Details)
	}
}
