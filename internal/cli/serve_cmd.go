package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/lotplan/internal/api"
	"github.com/alexanderramin/lotplan/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning commands over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, app, addr, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "API listen address (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Separate /metrics listen address (default from config)")
	return cmd
}

func runServe(ctx context.Context, app *App, addr, metricsAddr string) error {
	if addr == "" {
		addr = app.Serve.APIAddr
	}
	if metricsAddr == "" {
		metricsAddr = app.Serve.MetricsAddr
	}
	if addr == "" {
		return fmt.Errorf("no API address configured")
	}
	logger := app.Serve.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := api.New(api.Deps{
		Planning: app.Planning,
		Links:    app.Links,
		Gatherer: app.Serve.Gatherer,
		Logger:   logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", "addr", addr)
		return api.Serve(ctx, server, addr)
	})
	if metricsAddr != "" && metricsAddr != addr && app.Serve.Gatherer != nil {
		g.Go(func() error {
			logger.Info("metrics listening", "addr", metricsAddr)
			return metrics.Serve(ctx, metricsAddr, app.Serve.Gatherer, logger)
		})
	}
	return g.Wait()
}
