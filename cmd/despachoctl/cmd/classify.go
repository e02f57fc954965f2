package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/despacho/internal/report"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

type bucketOutput struct {
	ID        vat.BucketID `json:"id"`
	Label     string       `json:"label"`
	Count     int          `json:"count"`
	TotalCost string       `json:"total_cost"`
	TotalVAT  string       `json:"total_vat"`
}

type reportOutput struct {
	TableVersion string         `json:"table_version"`
	Buckets      []bucketOutput `json:"buckets"`
	Unclassified []string       `json:"unclassified_codes"`
	Rejected     []string       `json:"rejected"`
	Balance      string         `json:"balance"`
}

func newClassifyCmd() *cobra.Command {
	var (
		in        string
		tablePath string
		xlsxPath  string
		summary   bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify declaration items into VAT return lines",
		Long: `classify reads a JSON array of declaration items, keeps those carrying VAT and
sums them per return line. The report is printed as JSON, or as a table with
--summary. --xlsx also writes the spreadsheet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := vat.LoadTableFile(tablePath)
			if err != nil {
				return err
			}

			items, err := readItems(in)
			if err != nil {
				return err
			}

			rep := vat.Classify(items, table)

			if codes := rep.UnknownCodes(); len(codes) > 0 {
				slog.Warn("unclassified nature codes", "codes", codes, "items", len(rep.Warnings))
			}

			if xlsxPath != "" {
				if err := writeXLSX(xlsxPath, rep); err != nil {
					return err
				}
			}

			if summary {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Summary(rep))
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(toReportOutput(rep))
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "JSON file with the declaration items")
	cmd.Flags().StringVar(&tablePath, "table", "", "nature code table (defaults to the built-in table)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the report to this XLSX file")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a text table instead of JSON")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func toReportOutput(rep *vat.Report) reportOutput {
	out := reportOutput{
		TableVersion: rep.TableVersion,
		Unclassified: rep.UnknownCodes(),
		Rejected:     make([]string, len(rep.Rejected)),
		Balance:      rep.Balance().StringFixed(2),
	}

	for _, b := range rep.Ordered() {
		out.Buckets = append(out.Buckets, bucketOutput{
			ID:        b.ID,
			Label:     b.Label,
			Count:     b.Count,
			TotalCost: b.TotalCost.StringFixed(2),
			TotalVAT:  b.TotalVAT.StringFixed(2),
		})
	}

	if out.Unclassified == nil {
		out.Unclassified = []string{}
	}

	for i, r := range rep.Rejected {
		out.Rejected[i] = r.Error()
	}

	return out
}

func writeXLSX(path string, rep *vat.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	meta := report.Meta{Tenant: "offline", GeneratedAt: time.Now().UTC()}

	if err := report.WriteXLSX(f, rep, meta); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
