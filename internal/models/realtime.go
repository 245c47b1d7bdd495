package models

import "encoding/json"

// Close codes sent before terminating a rejected connection. They
// sit in the RFC 6455 private-use range (4000-4999) so clients can
// tell the two rejection causes apart.
const (
	// CloseUnauthenticated: missing, malformed, or unknown token.
	CloseUnauthenticated = 4401
	// CloseForbidden: thread does not exist or the authenticated
	// user is not one of its participants.
	CloseForbidden = 4403
)

// Outbound frame types.
const (
	FrameTypeMessage = "message"
	FrameTypeUnread  = "unread_messages"
)

// EventTimeFormat is the timestamp layout used on the wire.
const EventTimeFormat = "2006-01-02 15:04:05"

// InboundFrame is what a connected client sends: a text body, a
// data-URI encoded image, or both.
type InboundFrame struct {
	Message string `json:"message"`
	Image   string `json:"image"`
}

// Empty reports whether the frame carries neither a body nor an
// image.
func (f InboundFrame) Empty() bool {
	return f.Message == "" && f.Image == ""
}

// SenderInfo identifies the message author on the wire.
type SenderInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MessageView is the wire form of a persisted message.
type MessageView struct {
	ID        uint       `json:"id"`
	Message   *string    `json:"message"`
	Image     *string    `json:"image"`
	Sender    SenderInfo `json:"sender"`
	Timestamp string     `json:"timestamp"`
	IsRead    bool       `json:"is_read"`
}

// NewMessageView renders a persisted message for delivery.
func NewMessageView(msg *ChatMessage, sender *User) MessageView {
	return MessageView{
		ID:        msg.ID,
		Message:   msg.Body,
		Image:     msg.ImageURL,
		Sender:    SenderInfo{ID: sender.ID, Username: sender.Username},
		Timestamp: msg.CreatedAt.Format(EventTimeFormat),
		IsRead:    msg.IsRead,
	}
}

// ErrorFrame is sent for rejected frames and rejected connections.
type ErrorFrame struct {
	Error string `json:"error"`
}

// BacklogFrame carries the one-shot unread snapshot pushed right
// after a successful connect, before any live frame.
type BacklogFrame struct {
	Type     string        `json:"type"`
	Messages []MessageView `json:"messages"`
}

// MessageFrame is a live message event delivered to both the sender
// (echo) and, when viewing, the recipient.
type MessageFrame struct {
	Type string `json:"type"`
	MessageView
}

// RouteEvent is the envelope published on the redis bridge so
// sibling instances can deliver a payload to their local sessions.
type RouteEvent struct {
	Origin  string          `json:"origin"`
	UserIDs []string        `json:"user_ids"`
	Payload json.RawMessage `json:"payload"`
}
