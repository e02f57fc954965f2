package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/despacho/internal/archive"
	"github.com/MrJamesThe3rd/despacho/internal/config"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

const coverNoteName = "LEIA-ME.txt"

func newArchiveCmd() *cobra.Command {
	var (
		in    string
		out   string
		token string
	)

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Download the files of every bundle into a folder per receipt",
		Long: `archive groups the documents of --in and downloads each file into
<out>/<receipt number>/, then writes a cover note listing what was found.
The document store token defaults to DOCUMENTS_TOKEN.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}

				token = cfg.Documents.Token
			}

			docs, err := readDocuments(in)
			if err != nil {
				return err
			}

			g := receipt.Group(docs)
			for _, r := range g.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "rejected: %v\n", r)
			}

			items, err := archive.NewService(token).Download(cmd.Context(), g.Bundles, out)
			if err != nil {
				return err
			}

			note := archive.CoverNote(items)
			if err := os.WriteFile(filepath.Join(out, coverNoteName), []byte(note), 0o644); err != nil {
				return fmt.Errorf("writing cover note: %w", err)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), note)

			return err
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "JSON file with the documents")
	cmd.Flags().StringVar(&out, "out", "arquivo", "output directory")
	cmd.Flags().StringVar(&token, "token", "", "document store API token")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
