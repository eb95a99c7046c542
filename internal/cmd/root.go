package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scruffaluff/binstall/internal/config"
)

// UsageError marks CLI input errors so main can exit with the usage status.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// NewRootCmd creates the root command.
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "binstall",
		Short:        "Installer for standalone command-line tools",
		Long:         `Download and install versioned command-line tools (just, jq, uv, deno) to a user or system directory, and keep them discoverable on PATH.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				*log = log.Level(zerolog.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose trace output")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	// Add subcommands
	cmd.AddCommand(NewInstallCmd(cfg, log))
	cmd.AddCommand(NewUninstallCmd(cfg, log))
	cmd.AddCommand(NewListCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd())
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}

// exactToolArg validates the single positional tool argument, wrapping
// violations as usage errors.
func exactToolArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}
