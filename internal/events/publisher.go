package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/metrics"
)

const (
	// StreamName is the name of the conversation audit stream.
	StreamName = "AGENT_CONVERSATIONS"

	// SubjectPrefix is the prefix for all audit subjects.
	SubjectPrefix = "agents"
)

// EventType tags an audit event.
type EventType string

const (
	EventConversationStarted EventType = "started"
	EventExchangeCompleted   EventType = "exchange"
	EventConversationEnded   EventType = "concluded"
)

// AuditEvent is the serialized audit record.
type AuditEvent struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Type           EventType       `json:"type"`
	Exchange       *model.Exchange `json:"exchange,omitempty"`
	Conclusion     string          `json:"conclusion,omitempty"`
	TotalExchanges int             `json:"total_exchanges,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Publisher writes audit events to the JetStream stream.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over the client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the audit stream exists.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Conversation exchange and conclusion audit trail",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject for an event.
func Subject(conversationID string, t EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, conversationID, t)
}

// ConversationStarted records the opening of a conversation.
func (p *Publisher) ConversationStarted(ctx context.Context, conversationID string) error {
	return p.publish(ctx, &AuditEvent{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Type:           EventConversationStarted,
		CreatedAt:      time.Now(),
	})
}

// ExchangeCompleted records one completed round.
func (p *Publisher) ExchangeCompleted(ctx context.Context, conversationID string, exchange *model.Exchange) error {
	return p.publish(ctx, &AuditEvent{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Type:           EventExchangeCompleted,
		Exchange:       exchange,
		CreatedAt:      time.Now(),
	})
}

// ConversationConcluded records the forced conclusion.
func (p *Publisher) ConversationConcluded(ctx context.Context, conversationID, conclusion string, totalExchanges int) error {
	return p.publish(ctx, &AuditEvent{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Type:           EventConversationEnded,
		Conclusion:     conclusion,
		TotalExchanges: totalExchanges,
		CreatedAt:      time.Now(),
	})
}

func (p *Publisher) publish(ctx context.Context, event *AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.client.JetStream().Publish(ctx, Subject(event.ConversationID, event.Type), data)
	if err != nil {
		metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "failure").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}
	metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "success").Inc()
	return nil
}
