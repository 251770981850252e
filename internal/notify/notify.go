// Package notify delivers the transient, user-facing messages produced by the
// job store: the successes and failures a client shows as toasts.
package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	UserID  string    `json:"userId"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Log writes notifications to the structured log.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n Notification) error {
	fields := []zap.Field{
		zap.String("user_id", n.UserID),
		zap.String("level", string(n.Level)),
		zap.String("message", n.Message),
	}
	if n.Level == LevelError {
		l.logger.Warn("notification", fields...)
	} else {
		l.logger.Info("notification", fields...)
	}
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
