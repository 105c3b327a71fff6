package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/holterscan/holterscan/cmd"
	"github.com/holterscan/holterscan/internal/beatmatch"
	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/datastore"
	"github.com/holterscan/holterscan/internal/ecg"
	"github.com/holterscan/holterscan/internal/logging"
	"github.com/holterscan/holterscan/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		return 1
	}
	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	if settings.Main.Log.Enabled {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		closeLog, err := logging.SetFileOutput(settings.Main.Log, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
			return 1
		}
		defer func() {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
			}
		}()
	}

	if err := setupMetrics(settings); err != nil {
		fmt.Fprintf(os.Stderr, "error initializing metrics: %v\n", err)
		return 1
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Error("command failed", "error", err)
		return 1
	}
	return 0
}

// setupMetrics wires the Prometheus collectors into the pipeline
// packages and, when configured, serves /metrics for the lifetime of
// the process.
func setupMetrics(settings *conf.Settings) error {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}
	ecg.SetMetrics(metrics.ECG)
	beatmatch.SetMetrics(metrics.BeatMatch)
	datastore.SetMetrics(metrics.Datastore)

	if !settings.Main.Metrics.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	metrics.RegisterHandlers(mux)
	server := &http.Server{
		Addr:         settings.Main.Metrics.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("metrics endpoint failed", "addr", server.Addr, "error", err)
		}
	}()
	logging.Info("metrics endpoint listening", "addr", settings.Main.Metrics.Addr)
	return nil
}
