package notify

import (
	"context"
	"log/slog"
)

// Log writes events to a logger. It stands in for a broker when none is
// configured.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Notifier that logs every event at INFO.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, event string, payload any) error {
	l.logger.InfoContext(ctx, "event", "type", event, "payload", payload)
	return nil
}
