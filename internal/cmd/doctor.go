package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/scruffaluff/binstall/internal/config"
	"github.com/scruffaluff/binstall/internal/fsops"
	"github.com/scruffaluff/binstall/internal/helpers"
	"github.com/scruffaluff/binstall/internal/pathenv"
	"github.com/scruffaluff/binstall/internal/platform"
	"github.com/scruffaluff/binstall/internal/ui"
)

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the install environment",
		Long:  `Check downloader and elevation command availability, destination writability, and PATH registration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := helpers.NewOSCommandRunner()
			fs := afero.NewOsFs()
			var issues int

			fmt.Fprintln(cmd.OutOrStdout(), "Platform")
			plat := platform.Current()
			if _, err := platform.Triple(plat); err != nil {
				ui.PrintWarning("%s: no release artifacts for this platform", plat.Key())
				issues++
			} else {
				ui.PrintSuccess("%s", plat.Key())
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\nDownloader backends")
			for _, name := range []string{"curl", "wget"} {
				if runner.CommandExists(name) {
					ui.PrintSuccess("%s: found", name)
				} else {
					ui.PrintWarning("%s: not found (native HTTP client is used first)", name)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\nElevation commands")
			found := false
			for _, name := range []string{"doas", "sudo"} {
				if runner.CommandExists(name) {
					ui.PrintSuccess("%s: found", name)
					found = true
				} else {
					ui.PrintWarning("%s: not found", name)
				}
			}
			if !found {
				ui.PrintWarning("system-scope installs will fail without an elevation command")
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\nDestinations")
			// Same probe as install: create the directory first, then test it.
			if err := fsops.EnsureDir(fs, cfg.Paths.UserBinDir, 0755); err != nil {
				ui.PrintWarning("%s: not writable", cfg.Paths.UserBinDir)
				issues++
			} else if err := fsops.CheckWritable(fs, cfg.Paths.UserBinDir); err != nil {
				ui.PrintWarning("%s: not writable", cfg.Paths.UserBinDir)
				issues++
			} else {
				ui.PrintSuccess("%s: writable", cfg.Paths.UserBinDir)
			}
			if pathenv.OnPath(cfg.Paths.UserBinDir, os.Getenv("PATH")) {
				ui.PrintSuccess("%s: on PATH", cfg.Paths.UserBinDir)
			} else {
				ui.PrintWarning("%s: not on PATH", cfg.Paths.UserBinDir)
			}

			if issues > 0 {
				return fmt.Errorf("doctor found %d issue(s)", issues)
			}
			ui.PrintSuccess("environment looks healthy")
			return nil
		},
	}

	return cmd
}
