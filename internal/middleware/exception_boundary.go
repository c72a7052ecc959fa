package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go-ees/internal/notification"
	"go-ees/internal/shared/apperror"
	"go-ees/internal/shared/contextutil"
	"go-ees/internal/shared/response"
	"go-ees/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	DefaultAlertTimeout = 5 * time.Second

	validationFailedMessage = "One or more validation errors occurred."
)

type exceptionBoundary struct {
	sink         notification.Sink
	alertTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// ExceptionBoundary renders the errors handlers attach with c.Error, and
// recovers panics.
//
// A *validation.Error becomes 400 with the failure list and a client
// *apperror.AppError keeps its own status. Anything else becomes a generic
// 500 and exactly one alert is sent to sink. Sink failures are logged and
// dropped.
func ExceptionBoundary(sink notification.Sink, alertTimeout time.Duration, logger ...*zap.Logger) gin.HandlerFunc {
	l := zap.L().Named("middleware.exception_boundary")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("middleware.exception_boundary")
	}
	if alertTimeout <= 0 {
		alertTimeout = DefaultAlertTimeout
	}

	b := &exceptionBoundary{
		sink:         sink,
		alertTimeout: alertTimeout,
		now:          time.Now,
		logger:       l,
	}
	return b.handle
}

func (b *exceptionBoundary) handle(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.systemFailure(c, fmt.Errorf("panic: %v", r), string(debug.Stack()))
		}
	}()

	c.Next()

	if len(c.Errors) == 0 {
		return
	}
	b.render(c, c.Errors.Last().Err)
}

func (b *exceptionBoundary) render(c *gin.Context, err error) {
	log := contextutil.GetLogger(c.Request.Context(), b.logger)

	var verr *validation.Error
	if errors.As(err, &verr) {
		log.Info("request failed validation", zap.Any("failures", verr.Failures))
		b.write(c, http.StatusBadRequest, apperror.CodeValidation, validationFailedMessage, verr.Failures)
		return
	}

	if apperror.IsClientError(err) {
		httpErr := apperror.ToHTTP(err)
		log.Info("request rejected",
			zap.Int("status", httpErr.Status),
			zap.String("code", httpErr.Code),
			zap.Error(err),
		)
		b.write(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	b.systemFailure(c, err, "")
}

func (b *exceptionBoundary) systemFailure(c *gin.Context, err error, stack string) {
	ctx := c.Request.Context()
	log := contextutil.GetLogger(ctx, b.logger)
	rid := contextutil.GetRequestID(ctx)

	log.Error("unhandled request failure",
		zap.String("request_id", rid),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("stack_trace", stack),
		zap.Error(err),
	)

	b.write(c,
		apperror.ErrInternal.HTTPStatus,
		apperror.ErrInternal.Code,
		apperror.ErrInternal.Message,
		nil,
	)

	if b.sink == nil {
		return
	}

	alertCtx, cancel := context.WithTimeout(ctx, b.alertTimeout)
	defer cancel()

	if sendErr := b.sink.SendAlert(alertCtx, notification.Alert{
		Message:    err.Error(),
		StackTrace: stack,
		RequestID:  rid,
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		OccurredAt: b.now().UTC(),
	}); sendErr != nil {
		log.Warn("send critical alert failed",
			zap.String("request_id", rid),
			zap.Error(sendErr),
		)
	}
}

func (b *exceptionBoundary) write(c *gin.Context, status int, code, message string, details any) {
	if c.Writer.Written() {
		c.Abort()
		return
	}
	response.Abort(c, status, code, message, details)
}
