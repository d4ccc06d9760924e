package main

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/deepzero/internal/serialization"
)

// version is set via -ldflags "-X main.version=...".
var version = ""

func resolveVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("version:           %s\n", resolveVersion())
			fmt.Printf("checkpoint format: v%d (writer %s)\n", serialization.FormatVersionV2, serialization.Version)
			return nil
		},
	}
}
