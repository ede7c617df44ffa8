package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"messenger-service/internal/auth"
	"messenger-service/internal/observability"
)

// Handler upgrades websocket connections and owns their lifecycle: auth,
// registration, presence transitions and teardown.
type Handler struct {
	hub           *Hub
	presence      *PresenceTracker
	dispatcher    *Dispatcher
	authenticator auth.Authenticator
	log           *slog.Logger
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub, presence *PresenceTracker, dispatcher *Dispatcher, authenticator auth.Authenticator, log *slog.Logger) *Handler {
	return &Handler{
		hub:           hub,
		presence:      presence,
		dispatcher:    dispatcher,
		authenticator: authenticator,
		log:           log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle authenticates the bearer credential and registers the connection.
// A missing or invalid credential rejects the upgrade before registration.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.authenticator.VerifyToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, h.hub, h.dispatcher, info, h.log)

	first := h.hub.Register(client)
	if first {
		h.presence.Online(ctx, userID)
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	observability.PublishConnEvent(ctx, observability.ConnEvent{
		Event:     "ws_connect",
		ConnID:    info.ConnID,
		UserID:    info.UserID,
		DeviceID:  info.DeviceID,
		IP:        info.IP,
		RequestID: info.RequestID,
		TraceID:   info.TraceID,
	})
	h.log.Info("websocket connected", "user_id", userID, "conn_id", info.ConnID, "first", first)

	go client.WritePump()
	go func() {
		client.ReadPump(ctx)

		last := h.hub.Unregister(client)
		if last {
			h.presence.Offline(ctx, userID)
		}

		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		observability.PublishConnEvent(ctx, observability.ConnEvent{
			Event:      "ws_disconnect",
			ConnID:     info.ConnID,
			UserID:     info.UserID,
			DeviceID:   info.DeviceID,
			IP:         info.IP,
			RequestID:  info.RequestID,
			TraceID:    info.TraceID,
			DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
		})
		h.log.Info("websocket disconnected", "user_id", userID, "conn_id", info.ConnID, "last", last,
			"duration_ms", time.Since(info.ConnectedAt).Milliseconds())
	}()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
