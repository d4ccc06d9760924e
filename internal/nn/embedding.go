package nn

import (
	"github.com/born-ml/deepzero/internal/tensor"
)

// Embedding is a lookup table that maps word ids to dense vectors.
//
// Architecture:
//   - W: (V, D) learnable parameter
//   - Forward: ids of any shape S -> vectors of shape S + (D)
//   - Backward: dW is zeroed, then each upstream row is scatter-added into
//     the row it came from, so repeated ids accumulate
//
// Embedding returns nil from Backward because ids have no gradient.
//
// Example:
//
//	embed := nn.NewEmbedding(nn.Normal(rng, 0.01, 10000, 100))
//	vecs := embed.Forward(tensor.FromInts([]int{1, 5, 5}))
type Embedding struct {
	paramSet
	idx   []int
	shape tensor.Shape
}

// NewEmbedding wraps W (V, D).
func NewEmbedding(W *tensor.Tensor) *Embedding {
	return &Embedding{paramSet: newParamSet(W)}
}

// Forward gathers the rows of W selected by ids.
func (e *Embedding) Forward(ids *tensor.Tensor) *tensor.Tensor {
	e.idx = ids.Ints()
	e.shape = ids.Shape().Clone()
	out := tensor.TakeRows(e.params[0], e.idx)
	return out.Reshape(append(e.shape.Clone(), e.params[0].Dim(1))...)
}

// Backward zeroes dW and scatter-adds dout into the looked-up rows.
func (e *Embedding) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if e.idx == nil {
		panic(noCache("Embedding.Backward"))
	}
	dW := e.grads[0]
	dW.Zero()
	tensor.ScatterAddRows(dW, e.idx, dout.Reshape(len(e.idx), dW.Dim(1)))
	return nil
}

// EmbeddingDot scores hidden vectors against the embeddings of target ids:
// out[n] = Σ_d W[t[n], d]·h[n, d].
//
// It is the output side of negative-sampling word2vec, where it replaces a
// full (H, V) matrix product with one dot product per candidate word.
type EmbeddingDot struct {
	embed   *Embedding
	h       *tensor.Tensor
	targetW *tensor.Tensor
}

// NewEmbeddingDot wraps W (V, H).
func NewEmbeddingDot(W *tensor.Tensor) *EmbeddingDot {
	return &EmbeddingDot{embed: NewEmbedding(W)}
}

// Forward returns a (N) tensor of scores for h (N, H) and ids (N).
func (e *EmbeddingDot) Forward(h, ids *tensor.Tensor) *tensor.Tensor {
	targetW := e.embed.Forward(ids)
	if !targetW.Shape().Equal(h.Shape()) {
		panic(&tensor.ShapeError{Op: "EmbeddingDot.Forward", Got: h.Shape().Clone(), Want: targetW.Shape().Clone()})
	}
	e.h, e.targetW = h, targetW
	return tensor.SumLast(tensor.Mul(targetW, h))
}

// Backward propagates dout (N) into dW and returns dh (N, H).
func (e *EmbeddingDot) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if e.h == nil {
		panic(noCache("EmbeddingDot.Backward"))
	}
	n, hd := e.h.Dim(0), e.h.Dim(1)
	dTarget := tensor.Zeros(n, hd)
	dh := tensor.Zeros(n, hd)
	g := dout.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < hd; j++ {
			dTarget.Data()[i*hd+j] = g[i] * e.h.Data()[i*hd+j]
			dh.Data()[i*hd+j] = g[i] * e.targetW.Data()[i*hd+j]
		}
	}
	e.embed.Backward(dTarget)
	return dh
}

// Params returns the shared embedding matrix.
func (e *EmbeddingDot) Params() []*tensor.Tensor { return e.embed.Params() }

// Grads returns the embedding gradient buffer.
func (e *EmbeddingDot) Grads() []*tensor.Tensor { return e.embed.Grads() }
