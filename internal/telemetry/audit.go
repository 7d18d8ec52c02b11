package telemetry

import (
	"context"
	"log"
	"strconv"
	"time"

	"chat-sidebar/internal/observability"
)

// AuditEmitter publishes audit log envelopes for user-visible changes.
type AuditEmitter struct {
	publisher   observability.Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level  string `json:"level"`
	Text   string `json:"text"`
	ChatID string `json:"chat_id,omitempty"`
}

func NewAuditEmitter(publisher observability.Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes an audit line. A nil emitter or publisher drops it.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *int64) {
	e.EmitChat(ctx, level, text, requestID, userID, "")
}

// EmitChat publishes an audit line about a single chat.
func (e *AuditEmitter) EmitChat(ctx context.Context, level, text, requestID string, userID *int64, chatID string) {
	if e == nil || e.publisher == nil {
		return
	}

	var user *string
	if userID != nil {
		value := strconv.FormatInt(*userID, 10)
		user = &value
	}

	log.Printf("audit emit: level=%s request_id=%s user_id=%v chat_id=%s text=%q", level, requestID, userID, chatID, text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        user,
		Payload: AuditPayload{
			Level:  level,
			Text:   text,
			ChatID: chatID,
		},
	}

	headers := observability.BuildHeaders(requestID, observability.TraceIDFromContext(ctx))
	if err := e.publisher.PublishJSON(ctx, e.routingKey, envelope, headers); err != nil {
		observability.IncAMQPPublishError()
		log.Printf("audit publish failed: %v", err)
	}
}
