package train

import (
	"github.com/born-ml/deepzero/internal/tensor"
)

// Reduced is the deduplicated view of a model's (params, grads) lists.
//
// Params holds each distinct parameter once and Grads holds the summed
// gradient of all its occurrences. Grads entries for merged parameters are
// fresh tensors, so layer gradient buffers are never modified.
type Reduced struct {
	Params []*tensor.Tensor
	Grads  []*tensor.Tensor

	ties []transposeTie
}

// transposeTie records a dropped parameter that holds the transpose of a kept one.
type transposeTie struct {
	kept, dropped *tensor.Tensor
}

// Deduplicate merges aliased parameters before an optimizer step.
//
// It repeatedly scans for a pair (i < j) that is either
//   - the same tensor (shared weights): grads[i] += grads[j], drop j
//   - a 2-D tensor whose transpose equals params[j] elementwise (tied
//     transposed weights): grads[i] += grads[j]ᵀ, drop j
//
// and restarts the scan after every merge until no pair remains. Input slices
// are not modified.
//
// Example:
//
//	r := train.Deduplicate(model.Params(), model.Grads())
//	optimizer.Update(r.Params, r.Grads)
//	r.Sync()
func Deduplicate(params, grads []*tensor.Tensor) *Reduced {
	r := &Reduced{
		Params: append([]*tensor.Tensor(nil), params...),
		Grads:  append([]*tensor.Tensor(nil), grads...),
	}

	for r.mergeOne() {
	}
	return r
}

func (r *Reduced) mergeOne() bool {
	for i := 0; i < len(r.Params); i++ {
		for j := i + 1; j < len(r.Params); j++ {
			pi, pj := r.Params[i], r.Params[j]
			switch {
			case pi == pj:
				r.Grads[i] = tensor.Add(r.Grads[i], r.Grads[j])
			case isTransposeOf(pi, pj):
				r.Grads[i] = tensor.Add(r.Grads[i], tensor.Transpose(r.Grads[j]))
				r.ties = append(r.ties, transposeTie{kept: pi, dropped: pj})
			default:
				continue
			}
			r.Params = append(r.Params[:j], r.Params[j+1:]...)
			r.Grads = append(r.Grads[:j], r.Grads[j+1:]...)
			return true
		}
	}
	return false
}

// isTransposeOf reports whether b equals aᵀ for two 2-D tensors.
func isTransposeOf(a, b *tensor.Tensor) bool {
	if a.Rank() != 2 || b.Rank() != 2 {
		return false
	}
	rows, cols := a.Dim(0), a.Dim(1)
	if b.Dim(0) != cols || b.Dim(1) != rows {
		return false
	}
	ad, bd := a.Data(), b.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if ad[i*cols+j] != bd[j*rows+i] {
				return false
			}
		}
	}
	return true
}

// Sync rewrites every dropped transposed parameter from its kept partner.
//
// A transposed copy cannot share storage with its source, so after the
// optimizer has updated Params the dropped copies are stale until Sync runs.
func (r *Reduced) Sync() {
	for i := len(r.ties) - 1; i >= 0; i-- {
		tie := r.ties[i]
		tie.dropped.CopyFrom(tensor.Transpose(tie.kept))
	}
}
