package hub

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	outboxSize = 256
)

// Client binds one websocket to the multiplexer. It owns both pumps: the
// read pump feeds frames into HandleEvent, the write pump drains the
// session outbox. The write pump is the connection's only writer.
type Client struct {
	conn    *websocket.Conn
	mux     *Multiplexer
	session *Session
}

// NewClient registers a fresh session for the connection. The caller must
// invoke Run to start the pumps.
func NewClient(conn *websocket.Conn, mux *Multiplexer) *Client {
	session := &Session{
		ConnectionID: uuid.NewString(),
		Outbox:       make(chan []byte, outboxSize),
	}
	mux.Connect(session)
	return &Client{conn: conn, mux: mux, session: session}
}

// ConnectionID returns the server-assigned connection identifier.
func (c *Client) ConnectionID() string {
	return c.session.ConnectionID
}

// Run starts the write pump and blocks on the read pump until the peer
// goes away, then runs disconnect cleanup.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	// The outbox is never closed: the router may be mid-send from another
	// goroutine. Closing the conn instead makes the write pump exit on its
	// next write or ping.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), fireTimeout)
		defer cancel()
		c.mux.Disconnect(cleanupCtx, c.session.ConnectionID)
		c.conn.Close()
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithField("conn_id", c.session.ConnectionID).
					WithError(err).Warn("Websocket closed unexpectedly")
			}
			return
		}
		c.mux.HandleEvent(ctx, c.session.ConnectionID, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.session.Outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
