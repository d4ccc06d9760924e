package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/logger"
	"github.com/born-ml/deepzero/internal/tensor"
	"github.com/born-ml/deepzero/internal/wordvec"
)

func similarCmd() *cli.Command {
	return &cli.Command{
		Name:  "similar",
		Usage: "Query word vectors from a checkpoint or from counts over a text file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "checkpoint", Aliases: []string{"m"}, Usage: "word2vec or language model checkpoint"},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "text file for count-based vectors (PPMI + SVD)"},
			&cli.IntFlag{Name: "window-size", Value: 2, Usage: "co-occurrence window for --data"},
			&cli.IntFlag{Name: "wordvec-size", Value: 100, Usage: "SVD dimensions for --data"},
			&cli.StringSliceFlag{Name: "query", Aliases: []string{"q"}, Usage: "words to find neighbours for"},
			&cli.StringFlag{Name: "analogy", Usage: "a,b,c: find x in a:b = c:x"},
			&cli.IntFlag{Name: "top", Value: 5, Usage: "results per query"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			W, vocab, err := wordVectors(cmd)
			if err != nil {
				return err
			}
			log.Info("word vectors", "vocab", vocab.Len(), "dims", W.Dim(1))

			top := int(cmd.Int("top"))
			for _, q := range cmd.StringSlice("query") {
				neighbors, err := wordvec.MostSimilar(q, vocab, W, top)
				if err != nil {
					return err
				}
				printNeighbors("[query] "+q, neighbors)
			}
			if a := cmd.String("analogy"); a != "" {
				words := strings.Split(a, ",")
				if len(words) != 3 {
					return fmt.Errorf("--analogy wants three comma-separated words, got %q", a)
				}
				neighbors, err := wordvec.Analogy(words[0], words[1], words[2], vocab, W, top)
				if err != nil {
					return err
				}
				printNeighbors(fmt.Sprintf("[analogy] %s:%s = %s:?", words[0], words[1], words[2]), neighbors)
			}
			return nil
		},
	}
}

func wordVectors(cmd *cli.Command) (*tensor.Tensor, *dataset.Vocab, error) {
	if path := cmd.String("checkpoint"); path != "" {
		W, meta, err := loadWordVecs(path)
		if err != nil {
			return nil, nil, err
		}
		return W, meta.vocab(), nil
	}
	path := cmd.String("data")
	if path == "" {
		return nil, nil, fmt.Errorf("one of --checkpoint or --data is required")
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	corpus, vocab := dataset.Preprocess(string(text))
	C := wordvec.CoMatrix(corpus, vocab.Len(), int(cmd.Int("window-size")))
	W, err := wordvec.SVD(wordvec.PPMI(C), min(int(cmd.Int("wordvec-size")), vocab.Len()))
	if err != nil {
		return nil, nil, err
	}
	return W, vocab, nil
}

func printNeighbors(title string, neighbors []wordvec.Neighbor) {
	fmt.Println(title)
	for _, n := range neighbors {
		fmt.Printf(" %s: %.4f\n", n.Word, n.Similarity)
	}
}
