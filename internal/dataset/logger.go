package dataset

import (
	"log/slog"
	"sync"

	"github.com/holterscan/holterscan/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("dataset")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "dataset")
		}
	})
	return serviceLogger
}
