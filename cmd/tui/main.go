package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/despacho/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/despacho/internal/config"
	"github.com/MrJamesThe3rd/despacho/internal/database"
	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	declarationStore "github.com/MrJamesThe3rd/despacho/internal/declaration/store"
	"github.com/MrJamesThe3rd/despacho/internal/overview"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
	receiptStore "github.com/MrJamesThe3rd/despacho/internal/receipt/store"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

type model struct {
	appName  string
	tenantID uuid.UUID

	receiptService     *receipt.Service
	declarationService *declaration.Service
	vatService         *vat.Service
	overviewService    *overview.Service

	currentView View

	overviewView view.OverviewModel
	bundlesView  view.BundlesModel
	reportView   view.ReportModel
}

type View int

const (
	ViewMenu     View = 0
	ViewOverview View = 1
	ViewBundles  View = 2
	ViewReport   View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	tenantID, err := uuid.Parse(cfg.Tenant)
	if err != nil {
		slog.Error("TENANT_ID must be a UUID", "error", err)
		os.Exit(1)
	}

	table, err := vat.LoadTableFile(cfg.VAT.TablePath)
	if err != nil {
		slog.Error("failed to load nature code table", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	receiptSvc := receipt.NewService(receiptStore.New(db), nil)
	declarationSvc := declaration.NewService(declarationStore.New(db))
	vatSvc := vat.NewService(declarationSvc, table, nil)

	return model{
		appName:            cfg.App.Name,
		tenantID:           tenantID,
		receiptService:     receiptSvc,
		declarationService: declarationSvc,
		vatService:         vatSvc,
		overviewService:    overview.NewService(receiptSvc, vatSvc),
		currentView:        ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewOverview
				m.overviewView = view.NewOverviewModel(m.overviewService, m.tenantID)

				return m, m.overviewView.Init()
			case "2":
				m.currentView = ViewBundles
				m.bundlesView = view.NewBundlesModel(m.receiptService, m.declarationService, m.vatService.Table(), m.tenantID)

				return m, m.bundlesView.Init()
			case "3":
				m.currentView = ViewReport
				m.reportView = view.NewReportModel(m.vatService, m.tenantID)

				return m, m.reportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewOverview:
		var newModel tea.Model
		newModel, cmd = m.overviewView.Update(msg)
		m.overviewView = newModel.(view.OverviewModel)
	case ViewBundles:
		var newModel tea.Model
		newModel, cmd = m.bundlesView.Update(msg)
		m.bundlesView = newModel.(view.BundlesModel)
	case ViewReport:
		var newModel tea.Model
		newModel, cmd = m.reportView.Update(msg)
		m.reportView = newModel.(view.ReportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("%s\n\n", m.appName) +
				"1. Overview\n" +
				"2. Receipt Bundles\n" +
				"3. VAT Report\n\n" +
				"q. Quit",
		)
	case ViewOverview:
		return m.overviewView.View()
	case ViewBundles:
		return m.bundlesView.View()
	case ViewReport:
		return m.reportView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
