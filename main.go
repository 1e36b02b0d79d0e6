package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"sectorwatch/internal/config"
	"sectorwatch/internal/daemon"
)

func initLogger(cfg *config.Config) {
	var logLevel slog.Level
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	// A missing .env file is fine; variables may come from the environment
	_ = godotenv.Load(*envPath)

	if *configPath != "" {
		os.Setenv("SECTORWATCH_CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// Logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	d, err := daemon.New(cfg, nil)
	if err != nil {
		slog.Error("Failed to initialize daemon", "error", err)
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", d.Metrics().Handler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := d.Start(); err != nil {
		slog.Error("Failed to start daemon", "error", err)
		os.Exit(1)
	}

	slog.Info("Watching sectors",
		"data_dir", cfg.DataDir,
		"store", cfg.Store.Driver,
		"refresh_interval", cfg.RefreshInterval,
		"export_path", cfg.ExportPath,
	)

	// Wait for interrupt signal
	<-sigChan
	slog.Info("Received interrupt signal, shutting down...")

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
		cancel()
	}

	if err := d.Stop(); err != nil {
		slog.Error("Error stopping daemon", "error", err)
	}

	slog.Info("Shutdown complete")
}
