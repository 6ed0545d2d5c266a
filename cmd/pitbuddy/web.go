package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/pitbuddy/internal/api/http"
	"github.com/i474232898/pitbuddy/internal/config"
	"github.com/i474232898/pitbuddy/internal/f1"
	"github.com/i474232898/pitbuddy/internal/f1/sources"
)

func newWebCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "serves the schedule, standings, live timing and telemetry pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()
			return runWeb(cfg, l)
		},
	}
}

func runWeb(cfg *config.AppConfig, l *zap.Logger) error {
	httpCfg := httpClientConfig(cfg, l)

	openF1 := sources.NewOpenF1Client(httpCfg, cfg.Endpoints.OpenF1)
	backendClient := sources.NewBackendClient(httpCfg, cfg.Endpoints.Backend)

	var schedule f1.ScheduleSource = backendClient
	if cfg.ScheduleSource == config.ScheduleFromOpenF1 {
		year, err := cfg.SeasonYear(time.Now())
		if err != nil {
			return err
		}
		schedule = sources.MeetingSchedule{Client: openF1, Year: year}
	}

	service := f1.NewService(f1.Sources{
		Stats:     openF1,
		Schedule:  schedule,
		Standings: backendClient,
		Plots:     sources.NewPlotClient(httpCfg, cfg.Endpoints.Plot),
	}, f1.WithLogger(l.Named("f1")))

	app := newApp("pitbuddy-web", httpapi.NewViews(cfg.DisplayLocation), httpapi.ErrorHandler(l))
	httpapi.RegisterRoutes(app, service, l)

	l.Info("starting web",
		zap.String("openf1", cfg.Endpoints.OpenF1),
		zap.String("backend", cfg.Endpoints.Backend),
		zap.String("schedule_source", cfg.ScheduleSource))

	if err := serve(app, cfg.Port, l); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}
