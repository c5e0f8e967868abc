package control

import (
	"context"
	"log/slog"

	"github.com/san-kum/fuzzytank/internal/fuzzy"
)

// SlogTracer adapts a logger to the trace hook. Events are logged at debug
// level with the stage as the message.
func SlogTracer(logger *slog.Logger) fuzzy.Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "control")
	return func(stage string, args ...any) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		logger.Debug(stage, args...)
	}
}

// MultiTracer fans events out to every non-nil tracer.
func MultiTracer(tracers ...fuzzy.Tracer) fuzzy.Tracer {
	return func(stage string, args ...any) {
		for _, t := range tracers {
			if t != nil {
				t(stage, args...)
			}
		}
	}
}
