package live

import (
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/services/reconcile"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one dashboard websocket connection
type Client struct {
	hub   *Hub
	orgID string
	conn  *websocket.Conn
	out   chan *reconcile.CallEvent
	done  chan struct{}
}

// NewClient wraps an upgraded connection and registers it with the hub
func NewClient(hub *Hub, orgID string, conn *websocket.Conn) *Client {
	client := &Client{
		hub:   hub,
		orgID: orgID,
		conn:  conn,
		out:   make(chan *reconcile.CallEvent, 32),
		done:  make(chan struct{}),
	}
	hub.register <- client
	return client
}

// send queues an event for the write pump, dropping it if the client is slow
func (c *Client) send(event *reconcile.CallEvent) {
	select {
	case c.out <- event:
	default:
		logger.Base().Debug("Dropping event for slow live client",
			zap.String("organization_id", c.orgID))
	}
}

func (c *Client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.conn.Close()
}

// WritePump streams queued events to the connection. Runs in its own
// goroutine per client and exits when the connection breaks.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.unregister <- c
	}()

	for {
		select {
		case <-c.done:
			return
		case event := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes (and discards) inbound frames so pings and close frames
// are processed. Runs in its own goroutine per client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
	}()
	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
