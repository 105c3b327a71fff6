package beatmatch

import (
	"log/slog"
	"sync"

	"github.com/holterscan/holterscan/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the package logger scoped to the beatmatch service.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("beatmatch")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "beatmatch")
		}
	})
	return serviceLogger
}
