package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type evaluatedAtKey struct{}

func withEvaluatedAt(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, evaluatedAtKey{}, t)
}

// EvaluatedAt is the instant the current validation run started. Outside a
// run it falls back to the wall clock.
func EvaluatedAt(ctx context.Context) time.Time {
	if t, ok := ctx.Value(evaluatedAtKey{}).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// notFuture passes when the time is at or before the evaluation instant.
func notFuture(ctx context.Context, fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(EvaluatedAt(ctx))
}

// FieldCheck validates one value against a go-playground tag chain. Only the
// first failing tag of the chain is reported.
type FieldCheck struct {
	Field string
	Value any
	Tag   string
}

func Field(name string, value any, tag string) FieldCheck {
	return FieldCheck{Field: name, Value: value, Tag: tag}
}

// Fields runs the checks in order and reports one failure per failing field.
func (s *Stage) Fields(ctx context.Context, checks ...FieldCheck) []Failure {
	var failures []Failure
	for _, c := range checks {
		err := s.validate.VarCtx(ctx, c.Value, c.Tag)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			failures = append(failures, Failure{Field: c.Field, Message: message(verrs[0])})
			continue
		}
		failures = append(failures, Failure{Field: c.Field, Message: "is invalid"})
	}
	return failures
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "email", "emaildomain":
		return "must be a valid email address with a domain"
	case "notfuture":
		return "cannot be in the future"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return "is invalid"
	}
}
