package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/MrJamesThe3rd/despacho/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	var (
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		fatal("failed to create migration source", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.ConnectionString())
	if err != nil {
		fatal("failed to create migrator", err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			fatal("failed to get version", err)
		}

		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			fatal("failed to force version", err)
		}

		slog.Info("forced migration version", "version", *force)
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal("failed to run up migrations", err)
		}

		slog.Info("migrations applied")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal("failed to run down migrations", err)
		}

		slog.Info("migrations reverted")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal("failed to run migrations", err)
		}

		slog.Info("migration steps applied", "steps", *steps)
	default:
		fmt.Println("usage: migrate [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
