// Package service holds the record-keeping use cases: the invoice draft
// lifecycle, the customer ledger, the reminder queue, payments and the
// read-only dashboard queries.
package service

import (
	"context"
	"time"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Option configures a service
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type correlationKey struct{}

// WithCorrelationID tags events published under ctx with id, usually the
// conversation that caused them
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, if any
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// publisher sends events to an optional dispatcher. Subscriber failures are
// logged and never reach the caller.
type publisher struct {
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

func (p publisher) publish(ctx context.Context, eventType event.Type, subjectID string, payload map[string]interface{}) {
	if p.dispatcher == nil {
		return
	}

	var evt *event.Event
	if id := CorrelationID(ctx); id != "" {
		evt = event.NewEventWithCorrelation(eventType, subjectID, payload, id)
	} else {
		evt = event.NewEvent(eventType, subjectID, payload)
	}

	if err := p.dispatcher.Dispatch(ctx, evt); err != nil {
		p.logger.Error("Event subscriber failed", "event_type", eventType, "subject_id", subjectID, "error", err)
	}
}
