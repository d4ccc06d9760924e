// Package wordvec works with learned or counted word vectors.
//
// It covers the count-based pipeline (co-occurrence matrix, PPMI and SVD
// reduction) and the queries shared by every word-vector source: cosine
// similarity, nearest neighbours and analogies.
//
// Example:
//
//	corpus, vocab := dataset.Preprocess(text)
//	C := wordvec.CoMatrix(corpus, vocab.Len(), 2)
//	W, err := wordvec.SVD(wordvec.PPMI(C), 100)
//	neighbors, err := wordvec.MostSimilar("you", vocab, W, 5)
package wordvec
