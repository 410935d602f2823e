package debug

import (
	"time"

	"go.uber.org/zap"
)

// Timing logs the start of operation and returns a func that logs its
// completion with the elapsed time. Both lines are debug level.
func Timing(logger *zap.Logger, operation string) func() {
	if logger == nil || !logger.Core().Enabled(zap.DebugLevel) {
		return func() {}
	}

	start := time.Now()
	logger.Debug("starting", zap.String("op", operation))

	return func() {
		logger.Debug("completed",
			zap.String("op", operation),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// Output logs a formatted debug line when debug logging is enabled.
func Output(logger *zap.Logger, format string, args ...interface{}) {
	if logger == nil {
		return
	}
	logger.Sugar().Debugf(format, args...)
}
