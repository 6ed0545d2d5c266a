package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/pitbuddy/internal/config"
	"github.com/i474232898/pitbuddy/internal/f1/sources"
	applog "github.com/i474232898/pitbuddy/internal/log"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "pitbuddy",
	Short: "F1 schedule, standings and live timing pages",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "INFO: No .env file found or error loading it: %v\n", err)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (json, text); overrides LOG_FORMAT")

	rootCmd.AddCommand(newWebCmd())
	rootCmd.AddCommand(newBackendCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger.
func setup() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	l, err := applog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

// httpClientConfig is the shared outbound client for upstream calls.
func httpClientConfig(cfg *config.AppConfig, l *zap.Logger) sources.HTTPClientConfig {
	backoff := sources.DefaultBackoff
	backoff.MaxRetries = cfg.FetchMaxRetries
	return sources.HTTPClientConfig{
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
		Backoff: backoff,
		Logger:  l,
	}
}

// newApp creates a Fiber app with the common middleware and health endpoint.
func newApp(name string, views fiber.Views, errorHandler fiber.ErrorHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		Views:                 views,
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": name,
		})
	})

	return app
}

// serve runs app until SIGINT or SIGTERM and then shuts it down gracefully.
func serve(app *fiber.App, port string, l *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		l.Info("listening", zap.String("port", port))
		errCh <- app.Listen(":" + port)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		l.Warn("error during shutdown", zap.Error(err))
	}
	return nil
}
