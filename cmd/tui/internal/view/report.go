package view

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/report"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

type reportState int

const (
	reportStatePeriod reportState = iota
	reportStateLoading
	reportStateShow
)

// ReportModel picks a period and shows the VAT return summary for it.
type ReportModel struct {
	CommonModel
	svc      *vat.Service
	tenantID uuid.UUID

	state  reportState
	picker PeriodPicker
	period PeriodSelectedMsg
	rep    *vat.Report

	err    error
	status string
}

func NewReportModel(svc *vat.Service, tenantID uuid.UUID) ReportModel {
	return ReportModel{
		svc:      svc,
		tenantID: tenantID,
		picker:   NewPeriodPicker(),
	}
}

func (m ReportModel) Title() string { return "VAT Report" }
func (m ReportModel) ShortHelp() string {
	if m.state == reportStateShow {
		return "Esc: change period | x: export XLSX | r: refresh"
	}

	return "Esc: back"
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PeriodSelectedMsg:
		m.period = msg
		m.state = reportStateLoading

		return m, m.loadCmd()

	case loadReportMsg:
		m.state = reportStateShow
		m.rep, m.err = msg.rep, msg.err

		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.status = "Saved " + msg.path
		}

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case reportStatePeriod:
			if msg.String() == "esc" && m.picker.IsSelecting() {
				return m, Back
			}
		case reportStateShow:
			switch msg.String() {
			case "esc":
				m.state = reportStatePeriod
				m.rep, m.err, m.status = nil, nil, ""

				return m, nil
			case "r":
				m.state = reportStateLoading
				return m, m.loadCmd()
			case "x":
				if m.rep != nil {
					return m, m.exportCmd()
				}
			}

			return m, nil
		}
	}

	if m.state == reportStatePeriod {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ReportModel) View() string {
	var body string

	switch m.state {
	case reportStatePeriod:
		body = m.picker.View()
	case reportStateLoading:
		body = "Building report..."
	case reportStateShow:
		if m.err != nil {
			body = errorStyle(fmt.Sprintf("Error: %v", m.err))
			break
		}

		body = fmt.Sprintf("Period: %s\n\n%s", activeStyle(m.period.Label), report.Summary(m.rep))
		if m.status != "" {
			body += "\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
		}

		body += "\n\n" + m.ShortHelp()
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

// Messages

type loadReportMsg struct {
	rep *vat.Report
	err error
}

func (m ReportModel) loadCmd() tea.Cmd {
	filter := declaration.ListFilter{
		TenantID:  m.tenantID,
		StartDate: m.period.Start,
		EndDate:   m.period.End,
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rep, err := m.svc.Report(ctx, filter)

		return loadReportMsg{rep: rep, err: err}
	}
}

type exportedMsg struct {
	path string
	err  error
}

func exportName(p PeriodSelectedMsg) string {
	name := "iva"
	if p.Start != nil {
		name += "_" + FormatDate(*p.Start)
	}

	if p.End != nil {
		name += "_" + FormatDate(*p.End)
	}

	return name + ".xlsx"
}

func (m ReportModel) exportCmd() tea.Cmd {
	rep := m.rep
	meta := report.Meta{
		Tenant:      m.tenantID.String(),
		StartDate:   m.period.Start,
		EndDate:     m.period.End,
		GeneratedAt: time.Now().UTC(),
	}
	path := exportName(m.period)

	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{err: err}
		}

		if err := report.WriteXLSX(f, rep, meta); err != nil {
			f.Close()
			return exportedMsg{err: err}
		}

		return exportedMsg{path: path, err: f.Close()}
	}
}
