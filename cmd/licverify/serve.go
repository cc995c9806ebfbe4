package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/chris-regnier/licverify/internal/metrics"
	"github.com/chris-regnier/licverify/internal/server"
	"github.com/chris-regnier/licverify/internal/store"
	"github.com/chris-regnier/licverify/internal/telemetry"
	"github.com/chris-regnier/licverify/internal/verify"
)

var flagAddr string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the verification API",
		Long: `Load the verification table once and serve POST /verify, POST /batch and
GET /healthz until interrupted. A missing or unreadable table is logged and
replaced by an empty one, so every lookup reports "No record found".`,
		RunE: runServe,
	}

	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", "err", err)
		}
	}()

	inst, err := metrics.New(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	srv := server.New(cfg.Server,
		verify.New(loadTable(ctx, cfg, logger), verify.WithObserver(inst)),
		server.WithLogger(logger),
		server.WithMetrics(inst),
		server.WithSpool(store.NewSpool(cfg.Data.SpoolDir)),
	)
	return srv.Serve(ctx)
}
