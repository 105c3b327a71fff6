// Package ecg logging setup.
package ecg

import (
	"log/slog"
	"sync"

	"github.com/holterscan/holterscan/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the package logger scoped to the ecg service.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("ecg")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "ecg")
		}
	})
	return serviceLogger
}
