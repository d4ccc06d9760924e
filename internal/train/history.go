package train

import (
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"

	"github.com/born-ml/deepzero/internal/optim"
)

// History records the metrics a trainer logged at each evaluation point.
type History struct {
	EvalInterval int       `json:"eval_interval"`
	Losses       []float64 `json:"losses,omitempty"`
	Perplexities []float64 `json:"perplexities,omitempty"`
}

// WriteJSON encodes the history to w.
func (h *History) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return nil
}

// BestKeeper implements the validate-then-checkpoint loop used for language
// models: when the validation metric improves the model is saved, otherwise
// the learning rate is divided by Decay.
type BestKeeper struct {
	Save      func() error
	Optimizer optim.Optimizer
	Decay     float64 // Learning-rate divisor on regression (default: 4)

	best    float64
	started bool
}

// Best returns the best metric observed so far, or +Inf before any.
func (k *BestKeeper) Best() float64 {
	if !k.started {
		return math.Inf(1)
	}
	return k.best
}

// Observe records a validation metric where lower is better.
func (k *BestKeeper) Observe(metric float64) (improved bool, err error) {
	if !k.started || metric < k.best {
		k.best, k.started = metric, true
		if k.Save != nil {
			if err := k.Save(); err != nil {
				return true, fmt.Errorf("failed to save checkpoint: %w", err)
			}
		}
		return true, nil
	}
	decay := k.Decay
	if decay == 0 {
		decay = 4
	}
	if k.Optimizer != nil {
		k.Optimizer.SetLR(k.Optimizer.GetLR() / decay)
	}
	return false, nil
}
