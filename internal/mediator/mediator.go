// Package mediator routes commands and queries to their single handler.
//
// Handlers are registered on a Builder with a concrete request and response
// type. Build checks the table once at startup: a request type registered twice,
// or an expected request type with no handler, fails Build instead of failing a
// live request. Behaviors wrap every handler in the order they were added, the
// first one being the outermost.
package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrDuplicateHandler     = errors.New("mediator: more than one handler registered for request")
	ErrHandlerNotRegistered = errors.New("mediator: no handler registered for request")
	ErrUnexpectedResponse   = errors.New("mediator: unexpected response type")
)

// Next invokes the rest of the pipeline for a request.
type Next func(ctx context.Context, req any) (any, error)

// Behavior decorates the rest of the pipeline, e.g. validation or logging.
type Behavior func(next Next) Next

// HandlerFunc fulfils one request type.
type HandlerFunc[Req any, Res any] func(ctx context.Context, req Req) (Res, error)

// Sender is what the transport layer depends on.
type Sender interface {
	Send(ctx context.Context, req any) (any, error)
}

type Builder struct {
	routes     map[reflect.Type]Next
	duplicates []reflect.Type
	behaviors  []Behavior
}

func NewBuilder() *Builder {
	return &Builder{routes: make(map[reflect.Type]Next)}
}

// Use appends behaviors. They apply to every handler, regardless of when the
// handler was registered.
func (b *Builder) Use(behaviors ...Behavior) *Builder {
	b.behaviors = append(b.behaviors, behaviors...)
	return b
}

// Register adds the handler for Req. Registering the same Req twice is
// reported by Build.
func Register[Req any, Res any](b *Builder, h HandlerFunc[Req, Res]) {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	if _, exists := b.routes[reqType]; exists {
		b.duplicates = append(b.duplicates, reqType)
		return
	}

	b.routes[reqType] = func(ctx context.Context, req any) (any, error) {
		typed, ok := req.(Req)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrHandlerNotRegistered, req)
		}
		return h(ctx, typed)
	}
}

// Build validates the registration table and freezes it. expected lists zero
// values of every request type the caller will send.
func (b *Builder) Build(expected ...any) (*Mediator, error) {
	var errs []error
	for _, typ := range b.duplicates {
		errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateHandler, typ))
	}
	for _, req := range expected {
		typ := reflect.TypeOf(req)
		if _, ok := b.routes[typ]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrHandlerNotRegistered, typ))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	m := &Mediator{routes: make(map[reflect.Type]Next, len(b.routes))}
	for typ, handle := range b.routes {
		for i := len(b.behaviors) - 1; i >= 0; i-- {
			handle = b.behaviors[i](handle)
		}
		m.routes[typ] = handle
	}
	return m, nil
}

// Mediator is immutable after Build and safe for concurrent use.
type Mediator struct {
	routes map[reflect.Type]Next
}

// Send runs req through the behaviors and its handler and returns the
// handler's result unchanged.
func (m *Mediator) Send(ctx context.Context, req any) (any, error) {
	handle, ok := m.routes[reflect.TypeOf(req)]
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotRegistered, req)
	}
	return handle(ctx, req)
}

// Registered reports whether a handler exists for req's type.
func (m *Mediator) Registered(req any) bool {
	_, ok := m.routes[reflect.TypeOf(req)]
	return ok
}

// SendAs is Send with the response asserted to Res.
func SendAs[Res any](ctx context.Context, s Sender, req any) (Res, error) {
	var zero Res

	res, err := s.Send(ctx, req)
	if err != nil {
		return zero, err
	}

	typed, ok := res.(Res)
	if !ok {
		return zero, fmt.Errorf("%w: %T returned %T, want %T", ErrUnexpectedResponse, req, res, zero)
	}
	return typed, nil
}
