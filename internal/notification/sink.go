// Package notification delivers critical alerts to the technical team.
package notification

import (
	"context"
	"errors"
	"time"
)

// Alert describes one unhandled failure.
type Alert struct {
	Message    string    `json:"message"`
	StackTrace string    `json:"stack_trace,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Method     string    `json:"method,omitempty"`
	Path       string    `json:"path,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

//go:generate mockgen -source=sink.go -destination=mock/sink_mock.go -package=mock
type Sink interface {
	// SendAlert delivers the alert or returns why it could not. It must honour
	// ctx cancellation.
	SendAlert(ctx context.Context, alert Alert) error
}

type multiSink struct {
	sinks []Sink
}

// Multi fans an alert out to every sink. All sinks are attempted; their
// errors are joined.
func Multi(sinks ...Sink) Sink {
	flat := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			flat = append(flat, s)
		}
	}
	return &multiSink{sinks: flat}
}

func (m *multiSink) SendAlert(ctx context.Context, alert Alert) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.SendAlert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
