package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/health"
	"github.com/DAAIDev/AgentBoxDev/internal/httpapi"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, port int) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if port > 0 {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.HealthSweepSchedule != "" {
		sweeper, err := health.NewSweeper(a.checker, cfg.HealthSweepSchedule, logger.Named("sweeper"))
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
		logger.Info("scheduled health sweep", zap.String("schedule", cfg.HealthSweepSchedule))
	}

	cors := httpapi.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	srv := httpapi.New(httpapi.Config{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		KeepaliveInterval: cfg.KeepaliveInterval,
		CORS:              cors,
	}, a.httpDeps())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
