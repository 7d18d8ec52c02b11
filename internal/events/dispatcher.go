// Package events fans persisted chat changes out to live sidebar sessions
// and to the event bus.
package events

import (
	"context"
	"log"

	"chat-sidebar/internal/models"
	"chat-sidebar/internal/observability"
)

// Notifier is told about every persisted chat change.
type Notifier interface {
	Notify(ctx context.Context, userID int, event models.ChatEvent)
}

// Broadcaster delivers an event to every live session of a user.
type Broadcaster interface {
	BroadcastChatEvent(userID int, event models.ChatEvent)
}

// Dispatcher forwards events to a Broadcaster and the event bus.
type Dispatcher struct {
	hub Broadcaster
}

// NewDispatcher constructs a Dispatcher. hub may be nil.
func NewDispatcher(hub Broadcaster) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// Notify broadcasts event and publishes it as chat_events.<type>.
func (d *Dispatcher) Notify(ctx context.Context, userID int, event models.ChatEvent) {
	if d.hub != nil {
		d.hub.BroadcastChatEvent(userID, event)
	}

	chatID := event.ChatID
	if chatID == "" && event.Chat != nil {
		chatID = event.Chat.ID
	}
	payload := map[string]interface{}{
		"user_id": userID,
		"chat_id": chatID,
		"chat":    event.Chat,
	}
	envelope := observability.NewEnvelope("chat_events", event.Type, payload)
	if err := observability.PublishEvent(ctx, "chat_events."+event.Type, envelope, observability.HeadersFromContext(ctx)); err != nil {
		log.Printf("chat event publish failed type=%s chat_id=%s: %v", event.Type, chatID, err)
	}
}
