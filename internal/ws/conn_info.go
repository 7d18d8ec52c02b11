package ws

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chat-sidebar/internal/observability"
)

const (
	wsKind       = "sidebar"
	wsRoutingKey = "ws_events.sidebar"
)

type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	return uuid.NewString()
}

// publishWSEvent reports a connection lifecycle event on the bus and in
// metrics.
func publishWSEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	duration := int64(0)
	if name != "ws_connect" {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        wsKind,
			"event":       name,
			"conn_id":     info.ConnID,
			"duration_ms": duration,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	envelope := observability.NewEnvelope("ws_events", name, payload)
	_ = observability.PublishEvent(ctx, wsRoutingKey, envelope, observability.BuildHeaders(info.RequestID, info.TraceID))
	observability.IncWSEvent(wsKind, name)
}
