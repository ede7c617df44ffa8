package observability

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// EventEnvelope is the JSON shape published to the events exchange.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}

// ConnEvent describes a websocket lifecycle event for publishing.
type ConnEvent struct {
	Event      string
	ConnID     string
	UserID     int64
	DeviceID   string
	IP         string
	RequestID  string
	TraceID    string
	DurationMS int64
	Reason     string
}

// PublishConnEvent publishes a connection lifecycle event, best effort.
func PublishConnEvent(ctx context.Context, ev ConnEvent) {
	payload := map[string]any{
		"ws": map[string]any{
			"event":       ev.Event,
			"conn_id":     ev.ConnID,
			"duration_ms": ev.DurationMS,
			"reason":      ev.Reason,
		},
		"identity": map[string]any{
			"user_id":   ev.UserID,
			"device_id": ev.DeviceID,
			"ip":        ev.IP,
		},
	}

	_ = PublishEvent(ctx, "ws_events", EventEnvelope{
		EventType: "ws_events",
		EventName: ev.Event,
		Payload:   payload,
	}, BuildHeaders(ev.RequestID, ev.TraceID))
}

// BuildHeaders assembles tracing headers for published events.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

// DeviceIDFromRequest extracts the client device id header.
func DeviceIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-Device-Id")
}

// RequestIDFromRequest extracts the request id header.
func RequestIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-Request-Id")
}

// IPFromRequest resolves the client address, honoring X-Forwarded-For.
func IPFromRequest(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
