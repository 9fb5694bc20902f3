// Package events publishes credential lifecycle events to Kafka.
//
// Publishing is fire-and-forget: a failed publish is logged and never
// changes the outcome of the request that produced the event.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"kubecred/internal/platform/kafka/producer"
	"kubecred/pkg/requestcontext"
)

// Type names an event on the credential topic.
type Type string

const (
	TypeCredentialIssued   Type = "credential_issued"
	TypeCredentialVerified Type = "credential_verified"
)

// Event is the JSON payload written to the topic. Records are keyed by CredentialID.
type Event struct {
	Type           Type      `json:"type"`
	CredentialID   string    `json:"credentialId"`
	HolderName     string    `json:"holderName,omitempty"`
	CredentialType string    `json:"credentialType,omitempty"`
	WorkerID       string    `json:"workerId"`
	Timestamp      time.Time `json:"timestamp"`
	AlreadyIssued  *bool     `json:"alreadyIssued,omitempty"`
	Result         string    `json:"result,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	RequestID      string    `json:"requestId,omitempty"`
}

// Producer is the subset of the Kafka producer used here.
type Producer interface {
	ProduceAsync(msg *producer.Message) error
}

// Publisher writes events to a single topic.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(p Producer, topic string, opts ...Option) *Publisher {
	pub := &Publisher{
		producer: p,
		topic:    topic,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(pub)
	}
	return pub
}

// Emit serializes and hands the event to the producer.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode event",
			"error", err,
			"event_type", event.Type,
			"credential_id", event.CredentialID,
		)
		return
	}

	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.CredentialID),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(event.Type),
		},
	}
	if err := p.producer.ProduceAsync(msg); err != nil {
		p.logger.WarnContext(ctx, "failed to publish event",
			"error", err,
			"event_type", event.Type,
			"credential_id", event.CredentialID,
		)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}
