package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scruffaluff/binstall/internal/config"
	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/db"
	"github.com/scruffaluff/binstall/internal/elevate"
	"github.com/scruffaluff/binstall/internal/helpers"
	"github.com/scruffaluff/binstall/internal/ui"
)

// NewUninstallCmd creates the uninstall command.
func NewUninstallCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "uninstall [tool]",
		Short: "Uninstall a tool",
		Long:  `Remove a previously installed tool and its manifest record.`,
		Args:  exactToolArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				color.Red("Error: failed to open manifest: %v", err)
				return fmt.Errorf("open manifest: %w", err)
			}
			defer database.Close()

			record, err := database.Get(ctx, tool)
			if err != nil {
				return fmt.Errorf("query manifest: %w", err)
			}
			if record == nil {
				color.Red("Error: %s is not installed", tool)
				return fmt.Errorf("%s is not installed", tool)
			}

			if !yes {
				confirmed, err := ui.ConfirmDangerousAction("uninstall", record.Path)
				if err != nil {
					return err
				}
				if !confirmed {
					color.Yellow("Uninstall cancelled.")
					return nil
				}
			}

			if err := removeBinary(ctx, record, log); err != nil {
				color.Red("Error: %v", err)
				return err
			}

			if err := database.Delete(ctx, tool); err != nil {
				color.Yellow("Warning: binary removed but manifest update failed: %v", err)
				log.Warn().Err(err).Str("tool", tool).Msg("manifest delete failed")
			}

			color.Green("✓ %s uninstalled", tool)
			log.Info().Str("tool", tool).Str("path", record.Path).Msg("uninstalled")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")

	return cmd
}

// removeBinary deletes the installed file, retrying through an elevation
// command when direct removal is denied.
func removeBinary(ctx context.Context, record *core.InstallRecord, log *zerolog.Logger) error {
	err := os.Remove(record.Path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if !os.IsPermission(err) {
		return fmt.Errorf("remove %s: %w", record.Path, err)
	}

	runner := helpers.NewOSCommandRunner()
	resolver := elevate.NewResolver(runner, log)
	elev, rerr := resolver.Resolve(ctx, record.Path, core.ScopeSystem, nil)
	if rerr != nil {
		return fmt.Errorf("remove %s: %w", record.Path, rerr)
	}

	if _, err := elevate.Run(ctx, runner, elev, "rm", "-f", record.Path); err != nil {
		return fmt.Errorf("remove %s: %w", record.Path, err)
	}
	return nil
}
