package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

func newTableCmd() *cobra.Command {
	var tablePath string

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Validate and print a nature code table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := vat.LoadTableFile(tablePath)
			if err != nil {
				return err
			}

			codes := make(map[string][]string)
			for _, e := range t.Entries() {
				codes[e.LineNumber] = append(codes[e.LineNumber], e.Code)
			}

			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Line", "Section", "Type", "Label", "Codes")

			for _, l := range t.Lines() {
				tbl.Row(l.Number, string(l.Section), string(l.VatType), l.Label, strings.Join(codes[l.Number], ", "))
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Table version %s\n%s\n", t.Version(), tbl.String())

			return err
		},
	}

	cmd.Flags().StringVar(&tablePath, "table", "", "nature code table (defaults to the built-in table)")

	return cmd
}
