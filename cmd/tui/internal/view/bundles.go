package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

type bundleState int

const (
	bundleStateBrowse bundleState = iota
	bundleStateEntry
)

// BundlesModel lists the receipt bundles of the tenant and lets the user enter
// a declaration line item for the selected receipt.
type BundlesModel struct {
	CommonModel
	receipts *receipt.Service
	items    *declaration.Service
	table    *vat.Table
	tenantID uuid.UUID

	state    bundleState
	grid     table.Model
	bundles  []receipt.Bundle
	rejected int
	form     *huh.Form

	loading bool
	err     error
	status  string

	// entry is shared by the model copies bubbletea makes while the form is open.
	entry *lineEntry
}

// lineEntry holds the huh form bindings.
type lineEntry struct {
	declarationNumber string
	declarationDate   string
	natureCode        string
	description       string
	unitCost          string
	quantity          string
	vat               string
}

func NewBundlesModel(receipts *receipt.Service, items *declaration.Service, t *vat.Table, tenantID uuid.UUID) BundlesModel {
	columns := []table.Column{
		{Title: "Receipt", Width: 16},
		{Title: "Main", Width: 6},
		{Title: "Withholding", Width: 12},
		{Title: "Attachment", Width: 11},
		{Title: "Last upload", Width: 18},
	}

	grid := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	grid.SetStyles(s)

	return BundlesModel{
		receipts: receipts,
		items:    items,
		table:    t,
		tenantID: tenantID,
		grid:     grid,
		loading:  true,
	}
}

func (m BundlesModel) Title() string { return "Receipt Bundles" }
func (m BundlesModel) ShortHelp() string {
	if m.state == bundleStateEntry {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Enter: add line item | r: refresh"
}

func (m BundlesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BundlesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBundlesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.bundles = msg.grouping.Bundles
		m.rejected = len(msg.grouping.Rejected)
		m.refreshTable()

		return m, nil

	case lineSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Saved line item %s for receipt %s", msg.item.NatureCode, msg.item.ReceiptNumber)
		}

		m.state = bundleStateBrowse
		m.form = nil
		m.grid.Focus()

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.grid.SetHeight(max(msg.Height-10, 5))

		return m, nil
	}

	switch m.state {
	case bundleStateBrowse:
		return m.updateBrowse(msg)
	case bundleStateEntry:
		return m.updateEntry(msg)
	}

	return m, nil
}

func (m BundlesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "enter":
			return m.enterEntryMode()
		}
	}

	var cmd tea.Cmd
	m.grid, cmd = m.grid.Update(msg)

	return m, cmd
}

func (m BundlesModel) selectedBundle() (receipt.Bundle, bool) {
	idx := m.grid.Cursor()
	if idx < 0 || idx >= len(m.bundles) {
		return receipt.Bundle{}, false
	}

	return m.bundles[idx], true
}

func (m BundlesModel) enterEntryMode() (tea.Model, tea.Cmd) {
	if _, ok := m.selectedBundle(); !ok {
		return m, nil
	}

	m.entry = &lineEntry{
		declarationDate: FormatDate(time.Now()),
		quantity:        "1",
	}

	m.form = newLineForm(m.entry, m.table)
	m.state = bundleStateEntry
	m.status = ""
	m.grid.Blur()

	return m, m.form.Init()
}

func natureOptions(t *vat.Table) []huh.Option[string] {
	entries := t.Entries()

	opts := make([]huh.Option[string], len(entries))
	for i, e := range entries {
		label := e.LocalLabel
		if label == "" {
			label = e.Label
		}

		opts[i] = huh.NewOption(fmt.Sprintf("%s · line %s · %s", e.Code, e.LineNumber, label), e.Code)
	}

	return opts
}

func newLineForm(e *lineEntry, t *vat.Table) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("declaration_number").
				Title("Declaration number").
				Value(&e.declarationNumber).
				Validate(notEmpty("declaration number")),

			huh.NewInput().
				Key("declaration_date").
				Title("Declaration date").
				Placeholder("YYYY-MM-DD").
				Value(&e.declarationDate).
				Validate(func(s string) error {
					_, err := time.Parse(time.DateOnly, s)
					if err != nil {
						return errors.New("use YYYY-MM-DD")
					}

					return nil
				}),

			huh.NewSelect[string]().
				Key("nature_code").
				Title("Nature code").
				Options(natureOptions(t)...).
				Value(&e.natureCode),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&e.description).
				Validate(notEmpty("description")),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("unit_cost").
				Title("Unit cost").
				Value(&e.unitCost).
				Validate(amount(false)),

			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&e.quantity).
				Validate(amount(false)),

			huh.NewInput().
				Key("vat").
				Title("VAT").
				Placeholder("empty when the declaration has none").
				Value(&e.vat).
				Validate(amount(true)),
		),
	).WithWidth(50).WithShowHelp(false)
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func amount(optional bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" && optional {
			return nil
		}

		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return errors.New("not a number")
		}

		if d.IsNegative() {
			return errors.New("cannot be negative")
		}

		return nil
	}
}

// params converts the form bindings. Values were validated by the form.
func (e lineEntry) params(tenantID uuid.UUID, receiptNumber string) (declaration.CreateParams, error) {
	parse := func(s string) (decimal.Decimal, error) {
		return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	}

	date, err := time.Parse(time.DateOnly, e.declarationDate)
	if err != nil {
		return declaration.CreateParams{}, err
	}

	unitCost, err := parse(e.unitCost)
	if err != nil {
		return declaration.CreateParams{}, fmt.Errorf("unit cost: %w", err)
	}

	quantity, err := parse(e.quantity)
	if err != nil {
		return declaration.CreateParams{}, fmt.Errorf("quantity: %w", err)
	}

	p := declaration.CreateParams{
		TenantID:          tenantID,
		NatureCode:        e.natureCode,
		Description:       strings.TrimSpace(e.description),
		UnitCost:          unitCost,
		Quantity:          quantity,
		DeclarationNumber: strings.TrimSpace(e.declarationNumber),
		DeclarationDate:   date,
		ReceiptNumber:     receiptNumber,
	}

	if strings.TrimSpace(e.vat) != "" {
		v, err := parse(e.vat)
		if err != nil {
			return declaration.CreateParams{}, fmt.Errorf("vat: %w", err)
		}

		p.VAT = &v
	}

	return p, nil
}

func (m BundlesModel) updateEntry(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.state = bundleStateBrowse
		m.form = nil
		m.grid.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m BundlesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading bundles...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("%s bundles", activeStyle(fmt.Sprint(len(m.bundles))))
	if m.rejected > 0 {
		header += fmt.Sprintf(" | %s documents could not be grouped", errorStyle(fmt.Sprint(m.rejected)))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.grid.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == bundleStateEntry && m.form != nil {
		b, _ := m.selectedBundle()

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(fmt.Sprintf("New line item\n\nReceipt: %s\n\n%s", b.ReceiptNumber, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + m.ShortHelp())
}

func mark(d *receipt.Document) string {
	if d == nil {
		return "-"
	}

	return "✓"
}

func (m *BundlesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.bundles))
	for _, b := range m.bundles {
		rows = append(rows, table.Row{
			b.ReceiptNumber,
			mark(b.Main),
			mark(b.Withholding),
			mark(b.Attachment),
			b.MostRecentUpload.Local().Format("2006-01-02 15:04"),
		})
	}

	m.grid.SetRows(rows)
}

// Messages

type loadBundlesMsg struct {
	grouping receipt.Grouping
	err      error
}

func (m BundlesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		g, err := m.receipts.Bundles(ctx, receipt.ListFilter{TenantID: m.tenantID})

		return loadBundlesMsg{grouping: g, err: err}
	}
}

type lineSavedMsg struct {
	item *declaration.LineItem
	err  error
}

func (m BundlesModel) saveCmd() tea.Cmd {
	b, ok := m.selectedBundle()
	if !ok || m.entry == nil {
		return nil
	}

	params, err := m.entry.params(m.tenantID, b.ReceiptNumber)
	if err != nil {
		return func() tea.Msg { return lineSavedMsg{err: err} }
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		item, err := m.items.Create(ctx, params)

		return lineSavedMsg{item: item, err: err}
	}
}
