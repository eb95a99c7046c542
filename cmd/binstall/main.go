package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/scruffaluff/binstall/internal/cmd"
	"github.com/scruffaluff/binstall/internal/config"
	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/logging"
	"github.com/scruffaluff/binstall/internal/ui"
)

var version = "dev"

func main() {
	ctx := context.Background()

	ui.InitColors()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(core.ExitFailure)
	}

	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: cfg.Logging.Color == "never",
		Quiet:   cfg.Install.Quiet,
	})

	rootCmd := cmd.NewRootCmd(cfg, log, version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")

		var usageErr *cmd.UsageError
		if errors.As(err, &usageErr) {
			os.Exit(core.ExitUsage)
		}
		os.Exit(core.ExitFailure)
	}
}
