// Package errtrack is the error-tracking collaborator boundary. Reporters
// never error and never block the caller.
package errtrack

import (
	"context"
	"log/slog"
)

// Reporter captures diagnostic events (missing credentials, integration
// failures) for an external tracking system.
type Reporter interface {
	CaptureEvent(ctx context.Context, message string, extra map[string]any)
}

// LogReporter writes captured events to the structured log. It stands in for
// a hosted tracker in environments without one.
type LogReporter struct {
	logger *slog.Logger
}

func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) CaptureEvent(ctx context.Context, message string, extra map[string]any) {
	args := make([]any, 0, len(extra)*2+2)
	args = append(args, "log_type", "errtrack")
	for k, v := range extra {
		args = append(args, k, v)
	}
	r.logger.WarnContext(ctx, message, args...)
}
