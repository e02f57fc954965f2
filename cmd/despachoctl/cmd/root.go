// Package cmd provides the despachoctl commands. They run the grouping and
// VAT pipelines on JSON files, without a database.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Output goes to the command's writers so
// tests can capture it.
func NewRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "despachoctl",
		Short: "Group receipt documents and classify declaration VAT offline",
		Long: `despachoctl runs the dashboard pipelines on exported JSON files.

Example:
  despachoctl group --in documents.json
  despachoctl classify --in items.json --xlsx iva.xlsx
  despachoctl table --table mapping.yaml`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newGroupCmd(), newClassifyCmd(), newTableCmd(), newArchiveCmd())

	return root
}

func Execute() error {
	root := NewRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	return root.Execute()
}
