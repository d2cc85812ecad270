// Package tracer defines a minimal tracing interface so auth components can
// emit spans without depending on OpenTelemetry APIs directly.
package tracer

import "context"

// Attribute is a string key/value pair attached to spans.
type Attribute struct {
	Key   string
	Value string
}

// String builds an Attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Tracer starts spans around credential operations.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one traced operation. End records err when non-nil.
type Span interface {
	End(err error)
	AddEvent(name string, attrs ...Attribute)
}

// Noop is the default tracer when none is configured.
type Noop struct{}

func (Noop) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                      {}
func (noopSpan) AddEvent(string, ...Attribute) {}
