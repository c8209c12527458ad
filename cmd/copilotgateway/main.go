package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/config"
	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/observability/metrics"
	"dev.copilot.gateway/internal/router"
	"dev.copilot.gateway/internal/version"
	"dev.copilot.gateway/internal/workspace"
)

var (
	envFile     = flag.String("env-file", ".env", "Path to .env file with gateway configuration")
	showVersion = flag.Bool("version", false, "Show version information")
	showHelp    = flag.Bool("help", false, "Show help message")
)

// AppConfig carries the parsed command line plus hooks tests use to
// drive run without real signals.
type AppConfig struct {
	ShowHelp       bool
	ShowVersion    bool
	EnvFile        string
	Logger         *logrus.Logger // nil means build one from the loaded config
	ShutdownSignal chan os.Signal // nil means trap SIGINT/SIGTERM
}

// DefaultAppConfig returns the default application configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		EnvFile: ".env",
	}
}

// run executes the application with the given configuration and blocks
// until shutdown. Returns an error if the gateway fails to start.
func run(appCfg *AppConfig) error {
	if appCfg.ShowHelp {
		printHelp()
		return nil
	}

	if appCfg.ShowVersion {
		printVersion()
		return nil
	}

	// Environment variables may also be set directly, so a missing
	// .env file is not an error.
	if err := godotenv.Load(appCfg.EnvFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading env file %s: %w", appCfg.EnvFile, err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := appCfg.Logger
	if logger == nil {
		logger = setupLogger(cfg.Logging)
	}

	// The gateway still starts when the CLI is absent. Health reports
	// degraded and chat requests return 503 until it is installed.
	if _, err := exec.LookPath(cfg.Copilot.CLIPath); err != nil {
		logger.WithError(err).Warn("Copilot CLI not found at startup")
	}

	collector := metrics.New()
	ws := workspace.NewManager(cfg.Workspace.MaxFileSize, logger)
	svc := copilot.NewService(cfg.Copilot, ws, nil, logger)
	srv := router.New(cfg, svc, collector, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	authMode := "api-key"
	if cfg.Auth.APIKey == "" {
		authMode = "disabled"
	}
	logger.WithFields(logrus.Fields{
		"addr":    srv.Addr(),
		"model":   cfg.Copilot.DefaultModel,
		"cli":     cfg.Copilot.CLIPath,
		"auth":    authMode,
		"version": version.Version,
	}).Info("Copilot gateway started")

	quit := appCfg.ShutdownSignal
	if quit == nil {
		quit = make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		logger.WithField("signal", fmt.Sprint(sig)).Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}

func main() {
	flag.Parse()

	appCfg := DefaultAppConfig()
	appCfg.ShowHelp = *showHelp
	appCfg.ShowVersion = *showVersion
	appCfg.EnvFile = *envFile

	if err := run(appCfg); err != nil {
		logrus.WithError(err).Fatal("Application failed")
	}
}

// setupLogger builds the process logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func printHelp() {
	fmt.Printf(`copilot-gateway - HTTP facade for the GitHub Copilot CLI

Usage:
  copilot-gateway [options]

Options:
  -env-file string
        Path to .env file with gateway configuration (default ".env")
  -version
        Show version information
  -help
        Show this help message

Configuration (environment variables):
  HOST, PORT                Listen address (default 0.0.0.0:8080)
  GIN_MODE                  debug, release or test (default release)
  API_KEY                   Gateway API key; empty disables auth (dev mode)
  COPILOT_PATH              CLI binary name or path (default copilot)
  COPILOT_MODEL             Default model (default claude-sonnet-4)
  COPILOT_TIMEOUT           CLI timeout (default 300s)
  COPILOT_MAX_CONCURRENT    Concurrent CLI invocation cap, 0 disables (default 4)
  GH_TOKEN / GITHUB_TOKEN   GitHub token forwarded to the CLI
  WORKSPACE_MAX_FILE_SIZE   Per-file collection cap in bytes (default 1048576)
  RATE_LIMIT_ENABLED        Per-client rate limiting (default false)
  RATE_LIMIT_REQUESTS_PER_MINUTE, RATE_LIMIT_BURST
  LOG_LEVEL, LOG_FORMAT     Logging level and format (text or json)

Endpoints:
  POST /api/chat     Single completion
  POST /api/stream   Streaming completion (SSE)
  GET  /api/health   Health probe (no auth required)
  GET  /api/models   Model catalog
  GET  /metrics      Prometheus metrics (no auth required)

Examples:
  copilot-gateway
  copilot-gateway -env-file /etc/copilot-gateway/.env
  API_KEY=secret PORT=9090 copilot-gateway
`)
}

func printVersion() {
	fmt.Println(version.Get().String())
}
