package chathub

import (
	"context"
	"sync"
	"time"

	"linkup/backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize must fit a base64 data-URI image attachment.
	maxMessageSize = 1 << 20

	sendBufferSize = 256
)

// WebSocketClient binds one websocket connection to a session and
// implements the Client interface.
type WebSocketClient struct {
	gateway *Gateway
	user    *models.User
	thread  *models.Thread
	conn    *websocket.Conn
	send    chan []byte
	log     *zap.Logger

	closeOnce sync.Once
}

// NewWebSocketClient wraps an upgraded connection. The caller is
// expected to Register the client before Run so the backlog frame is
// queued ahead of any live traffic.
func NewWebSocketClient(gateway *Gateway, user *models.User, thread *models.Thread, conn *websocket.Conn, log *zap.Logger) *WebSocketClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketClient{
		gateway: gateway,
		user:    user,
		thread:  thread,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		log:     log,
	}
}

func (c *WebSocketClient) GetUserID() string             { return c.user.ID }
func (c *WebSocketClient) GetThreadID() uint             { return c.thread.ID }
func (c *WebSocketClient) GetSendChannel() chan<- []byte { return c.send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the outbound channel; the write pump then sends a
// close frame and drops the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump reads inbound frames and hands them to the gateway one at
// a time. Its deferred cleanup is the guaranteed unregister step: it
// runs on clean closes and on network drops alike.
func (c *WebSocketClient) readPump() {
	ctx := context.Background()
	defer func() {
		c.gateway.Disconnect(ctx, c, c.user)
		c.conn.Close()
		c.Close()
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug("websocket read error", zap.String("user_id", c.user.ID), zap.Error(err))
			}
			break
		}
		// Synchronous handling: the next frame is not read until
		// this one is fully processed.
		c.gateway.HandleFrame(ctx, c, c.user, raw)
	}
}

// writePump drains the send channel into the connection and keeps
// the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
