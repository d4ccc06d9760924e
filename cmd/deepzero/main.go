// Command deepzero trains and serves the deepzero models.
//
//	deepzero train spiral
//	deepzero train rnnlm --data ./ptb --model BetterRnnlm
//	deepzero generate --checkpoint BetterRnnlm.born --start you
//	deepzero similar --checkpoint CBOW.born --query you
//	deepzero serve --lm Rnnlm.born --vectors CBOW.born
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/deepzero/internal/logger"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	app := &cli.Command{
		Name:  "deepzero",
		Usage: "Hand-differentiated neural networks: train, sample and query",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (text, json)",
				Value:       "text",
				Destination: &logFormat,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log := logger.ForFormat(logFormat, os.Stderr, logger.ParseLevel(logLevel))
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			trainCmd(),
			generateCmd(),
			similarCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
