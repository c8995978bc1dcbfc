// Package utils contains small helpers shared by the engines and commands.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowOperation is the duration above which an operation is logged at warn level.
const slowOperation = 10 * time.Second

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func (e *Engine) Run() {
//	    defer utils.OperationTimer("backtest", e.log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		event := log.Debug()
		if duration > slowOperation {
			event = log.Warn()
		}
		event.
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		return duration
	}
}
