package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/despacho/internal/config"
	"github.com/MrJamesThe3rd/despacho/internal/database"
	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	declarationStore "github.com/MrJamesThe3rd/despacho/internal/declaration/store"
	despachoHttp "github.com/MrJamesThe3rd/despacho/internal/http"
	declarationHandler "github.com/MrJamesThe3rd/despacho/internal/http/declaration"
	overviewHandler "github.com/MrJamesThe3rd/despacho/internal/http/overview"
	receiptHandler "github.com/MrJamesThe3rd/despacho/internal/http/receipt"
	vatHandler "github.com/MrJamesThe3rd/despacho/internal/http/vat"
	"github.com/MrJamesThe3rd/despacho/internal/importer"
	"github.com/MrJamesThe3rd/despacho/internal/importer/broker"
	"github.com/MrJamesThe3rd/despacho/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/despacho/internal/matching/store"
	"github.com/MrJamesThe3rd/despacho/internal/overview"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
	receiptStore "github.com/MrJamesThe3rd/despacho/internal/receipt/store"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.Secret == "" {
		slog.Error("AUTH_SECRET is required")
		os.Exit(1)
	}

	table, err := vat.LoadTableFile(cfg.VAT.TablePath)
	if err != nil {
		slog.Error("failed to load nature code table", "path", cfg.VAT.TablePath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger := slog.Default()

	var (
		receiptService     = receipt.NewService(receiptStore.New(db), logger)
		declarationService = declaration.NewService(declarationStore.New(db))
		vatService         = vat.NewService(declarationService, table, logger)
		matchingService    = matching.NewService(matchingStore.New(db), table)
		overviewService    = overview.NewService(receiptService, vatService)
		importService      = importer.NewService(map[importer.Format]importer.Importer{
			importer.FormatBroker: broker.NewParser(),
		})
	)

	var (
		receiptH     = receiptHandler.NewHandler(receiptService)
		declarationH = declarationHandler.NewHandler(declarationService, importService, matchingService)
		vatH         = vatHandler.NewHandler(vatService)
		overviewH    = overviewHandler.NewHandler(overviewService)
	)

	router := despachoHttp.New(despachoHttp.Options{
		AuthSecret:  []byte(cfg.Auth.Secret),
		CORSOrigins: cfg.Auth.CORSOrigins,
	}, receiptH, declarationH, vatH, overviewH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "table_version", table.Version())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
