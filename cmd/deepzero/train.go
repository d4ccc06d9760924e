package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/deepzero/internal/config"
	"github.com/born-ml/deepzero/internal/logger"
	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/optim"
	"github.com/born-ml/deepzero/internal/serialization"
	"github.com/born-ml/deepzero/internal/train"
)

// run carries what every training task needs besides its settings.
type run struct {
	id         string
	log        logger.Logger
	tokenizer  string
	corpusSize int
}

type taskFunc func(ctx context.Context, s config.Settings, r run) error

func trainCmd() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Train a model and write a checkpoint",
		Commands: []*cli.Command{
			taskCmd(config.TaskSpiral, config.TwoLayerNet, "Classify the 3-arm spiral with a two-layer net", runSpiral),
			taskCmd(config.TaskWord2Vec, config.CBOW, "Learn word vectors from a text file (--data)", runWord2Vec),
			taskCmd(config.TaskRnnlm, config.Rnnlm, "Train a language model on a PTB directory (--data)", runRnnlm),
			taskCmd(config.TaskSeq2seq, config.PeekySeq2seq, "Train a seq2seq model on question_answer lines (--data)", runSeq2seq),
		},
	}
}

func trainFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model name (" + fmt.Sprint(config.Models()) + ")"},
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "dataset file or directory"},
		&cli.Uint64Flag{Name: "seed", Usage: "random seed"},
		&cli.IntFlag{Name: "epochs", Usage: "max epochs"},
		&cli.IntFlag{Name: "batch-size", Usage: "batch size"},
		&cli.IntFlag{Name: "eval-interval", Usage: "log every N iterations (0 disables)"},
		&cli.IntFlag{Name: "hidden-size", Usage: "hidden layer width"},
		&cli.IntFlag{Name: "wordvec-size", Usage: "embedding width"},
		&cli.IntFlag{Name: "window-size", Usage: "word2vec context window"},
		&cli.IntFlag{Name: "sample-size", Usage: "negative samples per target"},
		&cli.IntFlag{Name: "time-size", Usage: "truncated BPTT length"},
		&cli.FloatFlag{Name: "dropout", Usage: "dropout ratio"},
		&cli.BoolFlag{Name: "reverse", Usage: "reverse seq2seq questions"},
		&cli.StringFlag{Name: "optimizer", Usage: "sgd or adam"},
		&cli.FloatFlag{Name: "lr", Usage: "learning rate"},
		&cli.FloatFlag{Name: "max-grad", Usage: "gradient norm clip (0 disables)"},
		&cli.StringFlag{Name: "checkpoint", Aliases: []string{"o"}, Usage: "checkpoint path (default <Model>.born)"},
		&cli.StringFlag{Name: "history", Usage: "write the loss history as JSON to this path"},
		&cli.StringFlag{Name: "tokenizer", Value: "words", Usage: "word2vec tokenizer: words, lines, tiktoken:<encoding>, bpe:<path>"},
		&cli.IntFlag{Name: "corpus-size", Usage: "use only the first N training tokens (0 = all)"},
	}
}

func taskCmd(task, defaultModel, usage string, fn taskFunc) *cli.Command {
	return &cli.Command{
		Name:  task,
		Usage: usage,
		Flags: trainFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var fileCfg config.Config
			if path := cmd.String("config"); path != "" {
				var err error
				if fileCfg, err = config.Load(path); err != nil {
					return err
				}
			}
			cfg := config.Merge(fileCfg, flagConfig(cmd))
			if cfg.Model == nil {
				cfg.Model = config.Ptr(defaultModel)
			}
			s, err := config.Resolve(cfg)
			if err != nil {
				return err
			}
			if s.Task != task {
				return fmt.Errorf("model %s belongs to task %q, not %q", s.Model, s.Task, task)
			}

			log := logger.FromContext(ctx)
			if !cmd.Root().IsSet("log-level") && !cmd.Root().IsSet("log-format") && (cfg.LogLevel != "" || cfg.LogFormat != "") {
				log = logger.ForFormat(s.LogFormat, os.Stderr, logger.ParseLevel(s.LogLevel))
			}
			r := run{
				id:         uuid.NewString(),
				tokenizer:  cmd.String("tokenizer"),
				corpusSize: int(cmd.Int("corpus-size")),
			}
			r.log = log.With("run_id", r.id, "model", s.Model)
			r.log.Info("training", "task", task, "seed", s.Seed, "optimizer", s.Optimizer, "lr", s.LearningRate)
			return fn(ctx, s, r)
		},
	}
}

// flagConfig converts the flags given on the command line into a Config
// overlay; flags left at their defaults stay unset.
func flagConfig(cmd *cli.Command) config.Config {
	var c config.Config
	if cmd.IsSet("model") {
		c.Model = config.Ptr(cmd.String("model"))
	}
	if cmd.IsSet("seed") {
		c.Seed = config.Ptr(cmd.Uint64("seed"))
	}
	intFlags := map[string]**int{
		"epochs":        &c.MaxEpoch,
		"batch-size":    &c.BatchSize,
		"eval-interval": &c.EvalInterval,
		"hidden-size":   &c.HiddenSize,
		"wordvec-size":  &c.WordvecSize,
		"window-size":   &c.WindowSize,
		"sample-size":   &c.SampleSize,
		"time-size":     &c.TimeSize,
	}
	for name, dst := range intFlags {
		if cmd.IsSet(name) {
			*dst = config.Ptr(int(cmd.Int(name)))
		}
	}
	floatFlags := map[string]**float64{
		"dropout":  &c.Dropout,
		"lr":       &c.LearningRate,
		"max-grad": &c.MaxGrad,
	}
	for name, dst := range floatFlags {
		if cmd.IsSet(name) {
			*dst = config.Ptr(cmd.Float(name))
		}
	}
	if cmd.IsSet("reverse") {
		c.Reverse = config.Ptr(cmd.Bool("reverse"))
	}
	if cmd.IsSet("optimizer") {
		c.Optimizer = config.Ptr(cmd.String("optimizer"))
	}
	c.Data = cmd.String("data")
	c.Checkpoint = cmd.String("checkpoint")
	c.History = cmd.String("history")
	return c
}

func newOptimizer(s config.Settings) optim.Optimizer {
	if s.Optimizer == config.OptimizerAdam {
		return optim.NewAdam(optim.AdamConfig{LR: s.LearningRate})
	}
	return optim.NewSGD(optim.SGDConfig{LR: s.LearningRate})
}

func optimizerName(s config.Settings) string {
	if s.Optimizer == config.OptimizerAdam {
		return "Adam"
	}
	return "SGD"
}

// save writes the checkpoint and, when requested, the history.
func save(m models.Model, s config.Settings, r run, meta runMeta, state serialization.CheckpointMeta, h *train.History) error {
	meta.Model = s.Model
	meta.RunID = r.id
	state.OptimizerType = optimizerName(s)
	if err := models.SaveParams(m, s.Checkpoint,
		models.WithMetadata(meta.encode()),
		models.WithTrainingState(state),
	); err != nil {
		return err
	}
	r.log.Info("checkpoint saved", "path", s.Checkpoint)

	if s.History == "" || h == nil {
		return nil
	}
	f, err := os.Create(s.History)
	if err != nil {
		return fmt.Errorf("failed to create history file: %w", err)
	}
	defer f.Close()
	return h.WriteJSON(f)
}

func lastOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
