package telegram

import (
	"context"

	"github.com/wonny/pennyscan/pkg/logger"
)

// LogNotifier writes reports to the logger instead of a chat (dry-run, Telegram disabled)
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Component("notifier")}
}

// Notify logs text at info level
func (n *LogNotifier) Notify(_ context.Context, text string) error {
	n.logger.WithField("text", text).Info("Report (not delivered)")
	return nil
}
