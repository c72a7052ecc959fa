package mediator

import (
	"context"
	"fmt"
	"time"

	"go-ees/internal/shared/contextutil"

	"go.uber.org/zap"
)

// Validator is the contract of the validation stage: nil for a valid request,
// an error carrying every failure otherwise.
type Validator interface {
	Validate(ctx context.Context, req any) error
}

// ValidationBehavior runs v before the handler and short-circuits with v's
// error. The handler never sees an invalid request.
func ValidationBehavior(v Validator) Behavior {
	return func(next Next) Next {
		return func(ctx context.Context, req any) (any, error) {
			if err := v.Validate(ctx, req); err != nil {
				return nil, err
			}
			return next(ctx, req)
		}
	}
}

// LoggingBehavior logs every request with its duration. Failures are logged at
// debug level only; reporting them is the transport boundary's job.
func LoggingBehavior(logger ...*zap.Logger) Behavior {
	l := zap.L().Named("mediator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("mediator")
	}

	return func(next Next) Next {
		return func(ctx context.Context, req any) (any, error) {
			log := contextutil.GetLogger(ctx, l)
			name := fmt.Sprintf("%T", req)
			start := time.Now()

			res, err := next(ctx, req)

			if err != nil {
				log.Debug("request failed",
					zap.String("request", name),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				return res, err
			}
			log.Debug("request handled",
				zap.String("request", name),
				zap.Duration("duration", time.Since(start)),
			)
			return res, nil
		}
	}
}
