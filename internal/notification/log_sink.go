package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes alerts to the log. It is the default sink when no broker is
// configured.
type LogSink struct {
	logger    *zap.Logger
	recipient string
}

func NewLogSink(recipient string, logger ...*zap.Logger) *LogSink {
	l := zap.L().Named("notification.log")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.log")
	}
	return &LogSink{logger: l, recipient: recipient}
}

func (s *LogSink) SendAlert(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Error("critical alert",
		zap.String("to", s.recipient),
		zap.String("subject", "CRITICAL ERROR 500"),
		zap.String("request_id", alert.RequestID),
		zap.String("method", alert.Method),
		zap.String("path", alert.Path),
		zap.String("message", alert.Message),
		zap.String("stack_trace", alert.StackTrace),
		zap.Time("occurred_at", alert.OccurredAt),
	)
	return nil
}
