package wordvec

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/deepzero/internal/tensor"
)

// ppmiEps keeps log2 finite for words that never co-occur.
const ppmiEps = 1e-8

// CoMatrix counts how often each pair of words appears within windowSize
// positions of each other. The result is (V, V) and symmetric.
func CoMatrix(corpus []int, vocabSize, windowSize int) *tensor.Tensor {
	C := tensor.Zeros(vocabSize, vocabSize)
	data := C.Data()
	for idx, wordID := range corpus {
		for i := 1; i <= windowSize; i++ {
			if left := idx - i; left >= 0 {
				data[wordID*vocabSize+corpus[left]]++
			}
			if right := idx + i; right < len(corpus) {
				data[wordID*vocabSize+corpus[right]]++
			}
		}
	}
	return C
}

// PPMI converts co-occurrence counts into positive pointwise mutual
// information:
//
//	M[i][j] = max(0, log2(C[i][j]·N / (S[i]·S[j])))
//
// where N is the sum of C and S its row sums. Words with no co-occurrences
// get all-zero rows.
func PPMI(C *tensor.Tensor) *tensor.Tensor {
	rows, cols := C.Dim(0), C.Dim(1)
	N := C.Sum()
	S := tensor.SumLast(C).Data()
	M := tensor.Zeros(rows, cols)
	src, dst := C.Data(), M.Data()
	for i := range rows {
		if S[i] == 0 {
			continue
		}
		for j := range cols {
			if S[j] == 0 {
				continue
			}
			pmi := math.Log2(src[i*cols+j]*N/(S[j]*S[i]) + ppmiEps)
			dst[i*cols+j] = max(0, pmi)
		}
	}
	return M
}

// SVD returns the first k left singular vectors of M as dense word
// vectors (rows, k). Columns are ordered by decreasing singular value.
func SVD(M *tensor.Tensor, k int) (*tensor.Tensor, error) {
	rows, cols := M.Dim(0), M.Dim(1)
	if k <= 0 || k > min(rows, cols) {
		return nil, fmt.Errorf("wordvec.SVD: k=%d outside [1, %d]", k, min(rows, cols))
	}

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(rows, cols, M.Data()), mat.SVDThin) {
		return nil, fmt.Errorf("wordvec.SVD: factorization of %dx%d matrix failed", rows, cols)
	}
	var U mat.Dense
	svd.UTo(&U)

	out := tensor.Zeros(rows, k)
	for i := range rows {
		for j := range k {
			out.Set(U.At(i, j), i, j)
		}
	}
	return out, nil
}
