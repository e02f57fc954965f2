package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

type bundleOutput struct {
	ReceiptNumber    string     `json:"receipt_number"`
	Main             *uuid.UUID `json:"main"`
	Withholding      *uuid.UUID `json:"withholding"`
	Attachment       *uuid.UUID `json:"attachment"`
	HasWithholding   bool       `json:"has_withholding"`
	MostRecentUpload time.Time  `json:"most_recent_upload"`
}

func docID(d *receipt.Document) *uuid.UUID {
	if d == nil {
		return nil
	}

	return &d.ID
}

func newGroupCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Fold a JSON list of documents into receipt bundles",
		Long: `group reads a JSON array of documents and prints the bundles, most recent
upload first. Documents that cannot be grouped are reported on stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := readDocuments(in)
			if err != nil {
				return err
			}

			g := receipt.Group(docs)

			out := make([]bundleOutput, len(g.Bundles))
			for i, b := range g.Bundles {
				out[i] = bundleOutput{
					ReceiptNumber:    b.ReceiptNumber,
					Main:             docID(b.Main),
					Withholding:      docID(b.Withholding),
					Attachment:       docID(b.Attachment),
					HasWithholding:   b.HasWithholding,
					MostRecentUpload: b.MostRecentUpload,
				}
			}

			for _, r := range g.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "rejected: %v\n", r)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "JSON file with the documents")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
