package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/deepzero/internal/generate"
	"github.com/born-ml/deepzero/internal/logger"
	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/tensor"
)

// samplingFlags are shared by generate and serve.
func samplingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{Name: "temperature", Aliases: []string{"t"}, Value: 1, Usage: "sampling temperature (0 = greedy)"},
		&cli.IntFlag{Name: "top-k", Usage: "sample from the K most likely words (0 = all)"},
		&cli.Uint64Flag{Name: "seed", Value: 1984, Usage: "random seed"},
	}
}

func newGenerator(cmd *cli.Command, m models.LanguageModel) *models.RnnlmGen {
	sampler := generate.NewSampler(generate.SamplingConfig{
		Temperature: cmd.Float("temperature"),
		TopK:        int(cmd.Int("top-k")),
	}, tensor.NewRNG(cmd.Uint64("seed")))
	if better, ok := m.(*models.BetterRnnlm); ok {
		return models.NewBetterRnnlmGen(better, sampler)
	}
	return models.NewRnnlmGen(m, sampler)
}

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Sample text from a trained language model",
		Flags: append(samplingFlags(),
			&cli.StringFlag{Name: "checkpoint", Aliases: []string{"m"}, Required: true, Usage: "language model checkpoint"},
			&cli.StringFlag{Name: "start", Value: "you", Usage: "start word, or space-separated prefix"},
			&cli.IntFlag{Name: "length", Aliases: []string{"n"}, Value: 100, Usage: "words to produce, prefix included"},
			&cli.StringSliceFlag{Name: "skip", Value: []string{"N", "<unk>", "$"}, Usage: "words never produced"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			m, meta, err := loadLanguageModel(cmd.String("checkpoint"), cmd.Uint64("seed"))
			if err != nil {
				return err
			}
			vocab := meta.vocab()
			gen := newGenerator(cmd, m)
			log.Info("loaded", "model", meta.Model, "run_id", meta.RunID, "vocab", vocab.Len())

			prefix, err := vocab.Encode(strings.Fields(cmd.String("start")), false)
			if err != nil {
				return err
			}
			if len(prefix) == 0 {
				return errors.New("--start needs at least one word")
			}
			var skip []int
			for _, w := range cmd.StringSlice("skip") {
				if id, ok := vocab.ID(w); ok {
					skip = append(skip, id)
				}
			}

			last := len(prefix) - 1
			if _, err := gen.Prime(prefix[:last]); err != nil {
				return err
			}
			ids, err := gen.Generate(prefix[last], skip, int(cmd.Int("length"))-last)
			ids = append(prefix[:last:last], ids...)
			text := strings.ReplaceAll(strings.Join(vocab.Decode(ids), " "), " <eos>", ".\n")
			fmt.Println(text)
			return err
		},
	}
}
