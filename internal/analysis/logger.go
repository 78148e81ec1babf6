// Package analysis drives the per-timepoint phase pipeline and the
// two-phase run coordination.
package analysis

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/mvirta/bodycomp-go/internal/logging"
)

// Package-level logger for analysis operations
var (
	logger         *slog.Logger
	loggerInitOnce sync.Once
	levelVar       = new(slog.LevelVar)
	closeLogger    func() error
)

// GetLogger returns the package logger, initializing the service log
// file on first use. Thread-safe through sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		var err error
		logFilePath := filepath.Join("logs", "analysis.log")
		levelVar.Set(slog.LevelInfo)
		logger, closeLogger, err = logging.NewFileLogger(logFilePath, "analysis", levelVar)
		if err != nil {
			// Fallback: log the error and use a disabled handler so
			// callers never hit a nil logger.
			log.Printf("Failed to initialize analysis file logger at %s: %v. Using console logging.", logFilePath, err)
			fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: levelVar})
			logger = slog.New(fbHandler).With("service", "analysis")
			closeLogger = func() error { return nil }
		}
	})
	return logger
}

// SetLogger replaces the package logger, used by tests.
func SetLogger(l *slog.Logger) {
	loggerInitOnce.Do(func() {})
	logger = l
	closeLogger = func() error { return nil }
}

// CloseLogger closes the log file and releases resources
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
