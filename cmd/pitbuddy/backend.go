package main

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	backendapi "github.com/i474232898/pitbuddy/internal/api/backend"
	"github.com/i474232898/pitbuddy/internal/backend"
	"github.com/i474232898/pitbuddy/internal/config"
	"github.com/i474232898/pitbuddy/internal/f1/sources"
	"github.com/i474232898/pitbuddy/internal/scheduler"
)

func newBackendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "serves championship standings and the race schedule as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()
			return runBackend(cfg, l)
		},
	}
}

func runBackend(cfg *config.AppConfig, l *zap.Logger) error {
	upstream := sources.NewErgastClient(httpClientConfig(cfg, l), cfg.Endpoints.Ergast)
	stores := backend.NewStores(cfg.CacheMaxHistory, cfg.CacheMaxAge)
	service := backend.NewService(upstream, stores, cfg.Season, l)

	sched := scheduler.New(service, cfg.RefreshInterval, cfg.HTTPTimeout*3, l)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := newApp("pitbuddy-backend", nil, backendapi.ErrorHandler(l))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSAllowOrigins, ","),
		AllowCredentials: !lo.Contains(cfg.CORSAllowOrigins, "*"),
	}))
	backendapi.RegisterRoutes(app, service)

	l.Info("starting backend",
		zap.String("ergast", cfg.Endpoints.Ergast),
		zap.String("season", cfg.Season),
		zap.Duration("refresh_interval", cfg.RefreshInterval))

	if err := serve(app, cfg.BackendPort, l); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	return nil
}
