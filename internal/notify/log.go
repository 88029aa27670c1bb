package notify

import (
	"context"
	"strings"

	"github.com/akl7777777/ippure-info/internal/model"
)

type Logger interface {
	Info(s string)
}

// Log writes notifications to the logger. It is used when no
// notification URL is configured.
type Log struct {
	logger Logger
}

func NewLog(logger Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, notification model.Notification) error {
	l.logger.Info("[notify] " + notification.Category + ": " + notification.Title +
		" | " + strings.ReplaceAll(notification.Content, "\n", " / "))
	return nil
}
