// Package validation runs the rule sets registered for a request before it
// reaches its handler.
//
// Every rule set registered for the request's concrete type is evaluated, in
// parallel, and all failures are collected. A request with no rule sets passes
// through untouched.
package validation

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/sync/errgroup"
)

// Failure is one violated rule.
type Failure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by Stage.Validate when at least one rule failed. It always
// carries the complete failure list.
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RuleSet checks one request. It must be a pure function of the request and
// the context, since sets for the same request run concurrently.
type RuleSet[Req any] func(ctx context.Context, req Req) []Failure

type anyRuleSet func(ctx context.Context, req any) []Failure

var emailDomainPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Stage holds the rule sets per request type and the validator engine shared
// by field checks. Register everything before the first Validate call.
type Stage struct {
	mu       sync.RWMutex
	rules    map[reflect.Type][]anyRuleSet
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Stage)

// WithClock replaces time.Now as the source of the evaluation instant.
func WithClock(now func() time.Time) Option {
	return func(s *Stage) {
		s.now = now
	}
}

func NewStage(opts ...Option) *Stage {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("emaildomain", func(fl validator.FieldLevel) bool {
		return emailDomainPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidationCtx("notfuture", notFuture)

	s := &Stage{
		rules:    make(map[reflect.Type][]anyRuleSet),
		validate: v,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRules registers rule sets for requests of type Req.
func AddRules[Req any](s *Stage, sets ...RuleSet[Req]) {
	typ := reflect.TypeOf((*Req)(nil)).Elem()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range sets {
		set := set
		s.rules[typ] = append(s.rules[typ], func(ctx context.Context, req any) []Failure {
			typed, ok := req.(Req)
			if !ok {
				return []Failure{{Field: "", Message: fmt.Sprintf("unexpected request type %T", req)}}
			}
			return set(ctx, typed)
		})
	}
}

// Check runs every rule set registered for req's type and returns the
// flattened failures in registration order.
func (s *Stage) Check(ctx context.Context, req any) []Failure {
	s.mu.RLock()
	sets := s.rules[reflect.TypeOf(req)]
	s.mu.RUnlock()

	if len(sets) == 0 {
		return nil
	}

	ctx = withEvaluatedAt(ctx, s.now().UTC())

	results := make([][]Failure, len(sets))
	var g errgroup.Group
	for i, set := range sets {
		i, set := i, set
		g.Go(func() error {
			results[i] = set(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	var failures []Failure
	for _, r := range results {
		failures = append(failures, r...)
	}
	return failures
}

// Validate is Check folded into an error: nil when the request is valid,
// *Error otherwise.
func (s *Stage) Validate(ctx context.Context, req any) error {
	failures := s.Check(ctx, req)
	if len(failures) == 0 {
		return nil
	}
	return &Error{Failures: failures}
}
