package main

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/deepzero/internal/api"
	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve generation and word-vector queries over HTTP",
		Flags: append(samplingFlags(),
			&cli.StringFlag{Name: "lm", Usage: "language model checkpoint for /v1/generate"},
			&cli.StringFlag{Name: "vectors", Usage: "word-vector checkpoint for /v1/similar and /v1/analogy"},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			opts := api.Options{Logger: log}

			var lmVocab *dataset.Vocab
			if path := cmd.String("lm"); path != "" {
				m, meta, err := loadLanguageModel(path, cmd.Uint64("seed"))
				if err != nil {
					return err
				}
				opts.Generator = newGenerator(cmd, m)
				lmVocab = meta.vocab()
				opts.Vocab = lmVocab
				log.Info("language model loaded", "model", meta.Model, "run_id", meta.RunID)
			}
			if path := cmd.String("vectors"); path != "" {
				W, meta, err := loadWordVecs(path)
				if err != nil {
					return err
				}
				if lmVocab != nil && !slices.Equal(lmVocab.Words(), meta.Vocab) {
					return errors.New("--lm and --vectors were trained on different vocabularies")
				}
				opts.WordVecs = W
				opts.Vocab = meta.vocab()
				log.Info("word vectors loaded", "model", meta.Model, "run_id", meta.RunID)
			}
			if opts.Generator == nil && opts.WordVecs == nil {
				return errors.New("nothing to serve: pass --lm and/or --vectors")
			}

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			api.NewServer(opts).Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
