package cmd

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scruffaluff/binstall/internal/config"
	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/db"
	"github.com/scruffaluff/binstall/internal/workflow"
)

// NewInstallCmd creates the install command.
func NewInstallCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		destDir     string
		global      bool
		preserveEnv bool
		quiet       bool
		version     string
		timeoutSecs int
	)

	cmd := &cobra.Command{
		Use:   "install [tool]",
		Short: "Install a tool",
		Long:  `Download and install a command-line tool, resolving the latest version when none is given.`,
		Args:  exactToolArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]
			quiet = quiet || cfg.Install.Quiet
			preserveEnv = preserveEnv || cfg.Install.PreserveEnv

			scope := core.ScopeUser
			if global {
				scope = core.ScopeSystem
			}

			req := core.InstallRequest{
				Tool:        tool,
				Version:     version,
				DestDir:     destDir,
				Scope:       scope,
				PreserveEnv: preserveEnv,
				Quiet:       quiet,
			}

			log.Info().
				Str("tool", tool).
				Str("version", version).
				Str("scope", string(scope)).
				Msg("starting installation")

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSecs)*time.Second)
			defer cancel()

			wf := workflow.New(cfg, log, quiet)

			if !quiet {
				color.Cyan("→ Installing %s...", tool)
			}

			result, err := wf.Run(ctx, req)
			if err != nil {
				color.Red("Error: installation failed: %v", err)
				return err
			}

			for _, warning := range result.Warnings {
				color.Yellow("Warning: %s", warning)
			}

			// Record in the manifest; a failure here does not undo the install.
			if err := recordInstall(ctx, cfg, result, scope); err != nil {
				color.Yellow("Warning: could not record install: %v", err)
				log.Warn().Err(err).Msg("manifest update failed")
			}

			if !quiet {
				color.Green("✓ %s %s installed", result.Artifact.Tool, result.Artifact.Version)
				color.Cyan("  Path: %s", result.Artifact.Path)
				if result.EnvUpdated {
					color.Cyan("  PATH updated; restart your shell to pick it up")
				}
			}

			log.Info().
				Str("tool", result.Artifact.Tool).
				Str("version", result.Artifact.Version).
				Str("path", result.Artifact.Path).
				Msg("installation completed successfully")

			return nil
		},
	}

	cmd.Flags().StringVarP(&destDir, "dest", "d", "", "destination directory (default: OS- and scope-dependent)")
	cmd.Flags().BoolVarP(&global, "global", "g", false, "system-wide scope (implies elevation)")
	cmd.Flags().BoolVarP(&preserveEnv, "preserve-env", "p", false, "skip PATH/profile mutation")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	cmd.Flags().StringVarP(&version, "version", "v", "", "explicit version (default: resolve latest)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 600, "installation timeout in seconds")

	return cmd
}

func recordInstall(ctx context.Context, cfg *config.Config, result *workflow.Result, scope core.Scope) error {
	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		return err
	}
	defer database.Close()

	return database.Upsert(ctx, &core.InstallRecord{
		Tool:        result.Artifact.Tool,
		Version:     result.Artifact.Version,
		Path:        result.Artifact.Path,
		Scope:       string(scope),
		InstallDate: time.Now(),
	})
}
