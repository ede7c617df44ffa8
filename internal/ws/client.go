package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"messenger-service/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one live websocket connection owned by an authenticated user.
type Client struct {
	conn       *websocket.Conn
	hub        *Hub
	dispatcher *Dispatcher
	log        *slog.Logger
	userID     int64
	info       ConnInfo
	send       chan models.Event
	stop       chan struct{}

	// joined is the set of chat rooms this connection sits in; guarded by
	// the hub's lock.
	joined map[int64]struct{}
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, hub *Hub, dispatcher *Dispatcher, info ConnInfo, log *slog.Logger) *Client {
	return &Client{
		conn:       conn,
		hub:        hub,
		dispatcher: dispatcher,
		log:        log,
		userID:     info.UserID,
		info:       info,
		send:       make(chan models.Event, sendBuffer),
		stop:       make(chan struct{}),
		joined:     make(map[int64]struct{}),
	}
}

// UserID returns the owning user's id.
func (c *Client) UserID() int64 { return c.userID }

// queue enqueues an event without blocking. A full queue means the consumer
// is too slow; the event is dropped and the client reconciles via history
// fetch on reconnect.
func (c *Client) queue(event models.Event) bool {
	select {
	case c.send <- event:
		return true
	default:
		c.log.Warn("send queue full, dropping event", "conn_id", c.info.ConnID, "event", event.Type)
		return false
	}
}

// WritePump serializes queued events onto the connection and keeps it alive
// with pings. It exits when the send loop fails or the client stops.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			payload, err := json.Marshal(event)
			if err != nil {
				c.log.Error("serialize event failed", "err", err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.stop:
			return
		}
	}
}

// ReadPump reads client events and hands them to the dispatcher. It returns
// when the connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.conn.Close()
		close(c.stop)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("websocket read", "conn_id", c.info.ConnID, "err", err)
			}
			return
		}

		var event models.ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			c.queue(models.Event{
				Type:    models.EventError,
				Payload: models.ErrorPayload{Message: "invalid event format"},
			})
			continue
		}

		c.dispatcher.Dispatch(ctx, c, event)
	}
}
