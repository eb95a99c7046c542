package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scruffaluff/binstall/internal/config"
	"github.com/scruffaluff/binstall/internal/db"
	"github.com/scruffaluff/binstall/internal/tools"
	"github.com/scruffaluff/binstall/internal/ui"
)

// NewListCmd creates the list command.
func NewListCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput bool
		available  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed tools",
		Long:  `List tools recorded in the install manifest, or the tools available for installation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if available {
				return listAvailable(cmd, jsonOutput)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open manifest: %v", err)
				return fmt.Errorf("open manifest: %w", err)
			}
			defer database.Close()

			records, err := database.List(ctx)
			if err != nil {
				ui.PrintError("failed to list installs: %v", err)
				return fmt.Errorf("list installs: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				ui.PrintInfo("No tools installed")
				return nil
			}

			table := tablewriter.NewTable(cmd.OutOrStdout(),
				tablewriter.WithHeader([]string{"Tool", "Version", "Scope", "Installed", "Path"}),
				tablewriter.WithAlignment(tw.MakeAlign(5, tw.AlignLeft)),
				tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
			)

			for _, rec := range records {
				table.Append(
					rec.Tool,
					rec.Version,
					rec.Scope,
					rec.InstallDate.Format("2006-01-02"),
					rec.Path,
				)
			}

			return table.Render()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().BoolVarP(&available, "available", "a", false, "list installable tools instead of installed ones")

	return cmd
}

func listAvailable(cmd *cobra.Command, jsonOutput bool) error {
	all := tools.All()

	if jsonOutput {
		type entry struct {
			Name    string `json:"name"`
			Summary string `json:"summary"`
		}
		entries := make([]entry, 0, len(all))
		for _, d := range all {
			entries = append(entries, entry{Name: d.Name, Summary: d.Summary})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"Tool", "Description"}),
		tablewriter.WithAlignment(tw.MakeAlign(2, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)
	for _, d := range all {
		table.Append(d.Name, d.Summary)
	}
	return table.Render()
}
