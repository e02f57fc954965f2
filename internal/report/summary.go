package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

// Summary renders the buckets of rep as a bordered text table followed by
// per-section subtotals, overall totals, the balance and any unclassified codes.
func Summary(rep *vat.Report) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Line", "Label", "Section", "Items", "Total cost", "Total VAT")

	for _, b := range rep.Ordered() {
		t.Row(
			string(b.ID),
			label(b),
			string(b.Section),
			strconv.Itoa(b.Count),
			b.TotalCost.StringFixed(2),
			b.TotalVAT.StringFixed(2),
		)
	}

	cost, total := rep.Totals()

	var sb strings.Builder

	sb.WriteString(t.String())
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Table version: %s\n", rep.TableVersion)

	sections := rep.Sections()
	for _, section := range []vat.Section{vat.SectionOutput, vat.SectionCapital, vat.SectionNonCapital} {
		buckets := sections[section]
		if len(buckets) == 0 {
			continue
		}

		cost, total := decimal.Zero, decimal.Zero
		for _, b := range buckets {
			cost = cost.Add(b.TotalCost)
			total = total.Add(b.TotalVAT)
		}

		fmt.Fprintf(&sb, "Section %s: Cost: %s  VAT: %s\n", section, cost.StringFixed(2), total.StringFixed(2))
	}

	fmt.Fprintf(&sb, "Items: %d  Cost: %s  VAT: %s\n", rep.ItemCount(), cost.StringFixed(2), total.StringFixed(2))
	fmt.Fprintf(&sb, "Balance (output - input): %s\n", rep.Balance().StringFixed(2))

	if codes := rep.UnknownCodes(); len(codes) > 0 {
		fmt.Fprintf(&sb, "Unclassified nature codes: %s\n", strings.Join(codes, ", "))
	}

	if len(rep.Rejected) > 0 {
		fmt.Fprintf(&sb, "Rejected items: %d\n", len(rep.Rejected))
	}

	return sb.String()
}

func label(b *vat.Bucket) string {
	if b.LocalLabel != "" {
		return b.LocalLabel
	}

	return b.Label
}
