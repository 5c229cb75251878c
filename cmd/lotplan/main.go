package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alexanderramin/lotplan/internal/cli"
	"github.com/alexanderramin/lotplan/internal/config"
	"github.com/alexanderramin/lotplan/internal/db"
	"github.com/alexanderramin/lotplan/internal/holiday"
	"github.com/alexanderramin/lotplan/internal/metrics"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/alexanderramin/lotplan/internal/repository/postgres"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(configPath(os.Args[1:]))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	// Wire storage
	var (
		store repository.Store
		tx    repository.Transactor
	)
	switch cfg.DB.Driver {
	case "postgres":
		pg, err := postgres.Connect(ctx, cfg.DB.URL)
		if err != nil {
			return err
		}
		defer pg.Close()
		store, tx = pg.Repos(), pg
	default:
		database, err := db.OpenDB(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		store = repository.NewSQLiteStore(database)
		tx = repository.NewSQLiteTransactor(db.NewSQLiteUnitOfWork(database))
	}

	isInteractive := func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	opts := []service.Option{
		service.WithTransactor(tx),
		service.WithConfirmer(cli.NewConfirmer(isInteractive)),
		service.WithMaxConcurrency(cfg.Cascade.MaxConcurrency),
	}
	if cfg.Log.UseCaseEvents {
		opts = append(opts, service.WithObserver(service.NewSlogUseCaseObserver(logger)))
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		sink, err := metrics.NewPromSink(reg)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		opts = append(opts, service.WithRecorder(sink))
		gatherer = reg
	}

	// Holidays are looked up online only when enabled; otherwise no day is flagged.
	var provider holiday.Provider = holiday.StaticProvider{}
	if cfg.Holidays.Enabled {
		provider = holiday.NewHTTPProvider(holiday.HTTPConfig{
			HolidaysURL:  cfg.Holidays.HolidaysURL,
			VacationsURL: cfg.Holidays.VacationsURL,
			Zone:         cfg.Holidays.Zone,
			Timeout:      cfg.Holidays.Timeout,
			MaxRetries:   holiday.DefaultHTTPConfig().MaxRetries,
		})
	}

	app := &cli.App{
		Planning:      service.NewPlanningService(store, opts...),
		Links:         service.NewLinkService(store.Links, store.Interventions, opts...),
		Catalog:       service.NewCatalogService(store, opts...),
		Holidays:      holiday.NewCache(provider),
		View:          cli.ViewSettings{Months: cfg.View.Months, CellWidth: cfg.View.ColumnWidth},
		IsInteractive: isInteractive,
		Serve: cli.ServeSettings{
			APIAddr:  cfg.API.Addr,
			Gatherer: gatherer,
			Logger:   logger,
		},
	}
	if cfg.Metrics.Enabled {
		app.Serve.MetricsAddr = cfg.Metrics.Addr
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// configPath picks the config file from --config, then LOTPLAN_CONFIG, then
// ~/.lotplan/config.yaml when it exists. The flag is read ahead of cobra
// because the services must exist before the command tree is built.
func configPath(args []string) string {
	fs := pflag.NewFlagSet("lotplan", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	path := fs.String("config", "", "")
	_ = fs.Parse(args)

	if *path != "" {
		return *path
	}
	if env := os.Getenv("LOTPLAN_CONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	def := filepath.Join(home, ".lotplan", "config.yaml")
	if _, err := os.Stat(def); err == nil {
		return def
	}
	return ""
}
