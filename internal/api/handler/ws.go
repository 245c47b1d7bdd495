package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"linkup/backend/internal/chathub"
	"linkup/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin; tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket handles GET /ws/chat/:threadID. The handshake is
// accepted first; rejected sessions then get a structured error
// frame and a distinguishing close code, mirroring the connection
// contract the clients already speak.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	threadID, err := strconv.ParseUint(c.Param("threadID"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid thread id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	// Browsers cannot set an Authorization header on the websocket
	// handshake, so a token query parameter is accepted as well.
	token := bearerToken(c)
	if token == "" {
		token = c.Query("token")
	}

	user, err := h.Gateway.Authenticate(token)
	if err != nil {
		h.reject(conn, "User is not authorized", models.CloseUnauthenticated)
		return
	}

	thread, err := h.Gateway.ValidateMembership(user, uint(threadID))
	if err != nil {
		if errors.Is(err, chathub.ErrForbidden) {
			h.reject(conn, "Invalid thread_id", models.CloseForbidden)
		} else {
			h.reject(conn, "Internal error", websocket.CloseInternalServerErr)
		}
		return
	}

	client := chathub.NewWebSocketClient(h.Gateway, user, thread, conn, h.Log)

	// Register queues the backlog frame before the pumps start, so
	// the client sees prior messages before any live one.
	h.Gateway.Register(context.Background(), client, user, thread)
	client.Run()
}

// reject sends an error frame followed by a close frame carrying the
// given code, then drops the connection. No session is registered.
func (h *Handler) reject(conn *websocket.Conn, message string, code int) {
	deadline := time.Now().Add(5 * time.Second)
	conn.SetWriteDeadline(deadline)
	conn.WriteJSON(models.ErrorFrame{Error: message})
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, message), deadline)
	conn.Close()
}
