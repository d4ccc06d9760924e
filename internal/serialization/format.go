package serialization

import (
	"fmt"
	"time"
)

// Format constants.
const (
	MagicBytes        = "BORN"
	FormatVersionV2   = 2    // v2: With SHA-256 checksum
	HeaderAlignment   = 64   // Align tensor data to 64 bytes
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffsetV2  = 0x20 // Checksum offset in v2 fixed header
	float64Size       = 8
)

// DTypeFloat64 is the only element type deepzero writes.
const DTypeFloat64 = "float64"

// Flags for the .born format.
const (
	FlagHasMetadata   uint32 = 1 << 2 // bit 2: custom metadata included
	FlagHasCheckpoint uint32 = 1 << 3 // bit 3: training state included
)

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion  int               `json:"format_version"`       // Version of the .born format
	Version        string            `json:"deepzero_version"`     // Version of deepzero that wrote the file
	ModelType      string            `json:"model_type"`           // Model name, e.g. "Rnnlm"
	CreatedAt      time.Time         `json:"created_at"`           // When the file was created
	Tensors        []TensorMeta      `json:"tensors"`              // Tensor metadata in parameter order
	Metadata       map[string]string `json:"metadata"`             // Custom metadata
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"` // Training state (optional)
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	Epoch         int     `json:"epoch"`          // Completed epochs
	Loss          float64 `json:"loss"`           // Last recorded loss
	Perplexity    float64 `json:"perplexity"`     // Best validation perplexity, if any
	OptimizerType string  `json:"optimizer_type"` // "SGD" or "Adam"
	LearningRate  float64 `json:"learning_rate"`  // Learning rate at save time
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`   // "param.<index>"
	DType  string `json:"dtype"`  // Always "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// ParamName returns the name stored for the i-th parameter.
func ParamName(i int) string {
	return fmt.Sprintf("param.%d", i)
}

func numElements(shape []int) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= int64(d)
	}
	return n
}
