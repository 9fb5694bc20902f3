// Package tracer is a thin tracing abstraction so outbound calls can be
// traced without spreading OpenTelemetry APIs through service code.
//
//	ctx, span := tr.Start(ctx, tracer.SpanIssuanceReplay,
//	    tracer.String(tracer.AttrCredentialID, id),
//	)
//	defer func() { span.End(err) }()
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

const (
	SpanIssuanceReplay = "issuance.replay"
	SpanIssuanceLookup = "issuance.lookup"
)

const (
	AttrCredentialID  = "credential.id"
	AttrHTTPStatus    = "http.status_code"
	AttrAlreadyIssued = "credential.already_issued"
	AttrCircuitState  = "circuit.state"
	AttrLatencyMs     = "upstream.latency_ms"
)

// NoopTracer does nothing. Used in tests and when tracing is disabled.
type NoopTracer struct{}

func NewNoop() *NoopTracer {
	return &NoopTracer{}
}

func (t *NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                     {}
func (noopSpan) SetAttributes(...Attribute)    {}
func (noopSpan) AddEvent(string, ...Attribute) {}

var (
	_ Tracer = (*NoopTracer)(nil)
	_ Span   = noopSpan{}
)
