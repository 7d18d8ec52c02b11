package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"chat-sidebar/internal/chatstore"
	"chat-sidebar/internal/events"
	"chat-sidebar/internal/middleware"
	"chat-sidebar/internal/observability"
	"chat-sidebar/internal/repositories"
	"chat-sidebar/internal/toolbar"
)

// Options tunes the sessions opened by SidebarHandler.
type Options struct {
	GestureRate  rate.Limit
	GestureBurst int
	StoreTimeout time.Duration
}

// SidebarHandler upgrades sidebar websocket connections.
type SidebarHandler struct {
	ctx      context.Context
	hub      *Hub
	chatRepo repositories.ChatRepository
	notifier events.Notifier
	catalog  toolbar.Catalog
	opts     Options
}

// NewSidebarHandler constructs a SidebarHandler. Sessions end when ctx is
// done, so ctx should live as long as the server.
func NewSidebarHandler(ctx context.Context, hub *Hub, chatRepo repositories.ChatRepository, notifier events.Notifier, catalog toolbar.Catalog, opts Options) *SidebarHandler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SidebarHandler{ctx: ctx, hub: hub, chatRepo: chatRepo, notifier: notifier, catalog: catalog, opts: opts}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and serves the sidebar until it closes.
func (h *SidebarHandler) Handle(c *gin.Context) {
	userID, err := middleware.UserIDFromRequest(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	open := true
	if raw := c.Query("open"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid open flag"})
			return
		}
		open = parsed
	}

	_, span := otel.Tracer("chat-sidebar/ws").Start(c.Request.Context(), "ws.handshake")
	spanCtx := span.SpanContext()
	span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	// hijacked connections outlive the request, so sessions hang off the server context
	ctx := observability.WithRequestID(trace.ContextWithSpanContext(h.ctx, spanCtx), requestID)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     spanCtx.TraceID().String(),
		ConnectedAt: time.Now(),
	}

	store := chatstore.New(h.chatRepo, userID,
		chatstore.WithNotifier(h.notifier),
		chatstore.WithTimeout(h.opts.StoreTimeout),
	)
	session := NewSession(conn, info, store, SessionConfig{
		Open:         open,
		ActiveChatID: c.Query("chat_id"),
		Catalog:      h.catalog,
		GestureRate:  h.opts.GestureRate,
		GestureBurst: h.opts.GestureBurst,
	})

	h.hub.Add(userID, session, info)
	observability.IncWSActive(wsKind)
	publishWSEvent(ctx, "ws_connect", info, "")

	go func() {
		err := session.Run(ctx)
		h.hub.Remove(userID, session)
		observability.DecWSActive(wsKind)
		publishCtx := context.WithoutCancel(ctx)

		reason := ""
		if err != nil {
			reason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishWSEvent(publishCtx, "ws_error", info, reason)
			}
		}
		publishWSEvent(publishCtx, "ws_disconnect", info, reason)
	}()
}
