package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/despacho/internal/overview"
)

// OverviewModel shows the dashboard counters of the tenant.
type OverviewModel struct {
	CommonModel
	svc      *overview.Service
	tenantID uuid.UUID

	dash    *overview.Dashboard
	loading bool
	err     error
}

func NewOverviewModel(svc *overview.Service, tenantID uuid.UUID) OverviewModel {
	return OverviewModel{svc: svc, tenantID: tenantID, loading: true}
}

func (m OverviewModel) Title() string     { return "Overview" }
func (m OverviewModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m OverviewModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m OverviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadOverviewMsg:
		m.loading = false
		m.dash, m.err = msg.dash, msg.err

		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m OverviewModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading overview...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	d := m.dash

	var sb strings.Builder

	fmt.Fprintf(&sb, "Bundles:             %s\n", activeStyle(fmt.Sprint(d.Bundles)))
	fmt.Fprintf(&sb, "  with withholding:  %d\n", d.WithWithholding)
	fmt.Fprintf(&sb, "  missing main:      %d\n", d.MissingMain)

	if d.RejectedDocuments > 0 {
		fmt.Fprintf(&sb, "  ungrouped docs:    %s\n", errorStyle(fmt.Sprint(d.RejectedDocuments)))
	}

	if d.LatestUpload != nil {
		fmt.Fprintf(&sb, "Latest upload:       %s\n", d.LatestUpload.Local().Format("2006-01-02 15:04"))
	}

	fmt.Fprintf(&sb, "\nLine items with VAT: %d\n", d.Items)
	fmt.Fprintf(&sb, "Total VAT:           %s\n", FormatMoney(d.TotalVAT))
	fmt.Fprintf(&sb, "Balance:             %s\n", activeStyle(FormatMoney(d.Balance)))
	fmt.Fprintf(&sb, "Table version:       %s\n", d.TableVersion)

	if len(d.UnclassifiedCodes) > 0 {
		fmt.Fprintf(&sb, "Unclassified codes:  %s\n", errorStyle(strings.Join(d.UnclassifiedCodes, ", ")))
	}

	if len(d.RecentBundles) > 0 {
		sb.WriteString("\nRecent receipts:\n")

		for _, b := range d.RecentBundles {
			fmt.Fprintf(&sb, "  %-16s %s\n", b.ReceiptNumber, b.MostRecentUpload.Local().Format("2006-01-02 15:04"))
		}
	}

	sb.WriteString("\n" + m.ShortHelp())

	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}

type loadOverviewMsg struct {
	dash *overview.Dashboard
	err  error
}

func (m OverviewModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		d, err := m.svc.Dashboard(ctx, overview.Filter{TenantID: m.tenantID})

		return loadOverviewMsg{dash: d, err: err}
	}
}
