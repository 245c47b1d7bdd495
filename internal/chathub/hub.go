package chathub

import (
	"sync"

	"go.uber.org/zap"
)

// Hub is the delivery router: it maps a user id to the routing group
// of live sessions registered under that key and multicasts payloads
// to them. The design supports at most one session per user, but a
// second connection for the same user simply joins the group without
// evicting the first.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[Client]struct{}
	log    *zap.Logger
}

// NewHub builds an empty router.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		groups: make(map[string]map[Client]struct{}),
		log:    log,
	}
}

// Join registers the session under its user's routing key.
func (h *Hub) Join(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := c.GetUserID()
	group, ok := h.groups[userID]
	if !ok {
		group = make(map[Client]struct{})
		h.groups[userID] = group
	}
	group[c] = struct{}{}
	h.log.Debug("session joined", zap.String("user_id", userID), zap.Int("sessions", len(group)))
}

// Leave removes the session from its routing group; removing the
// last session drops the group. Unknown sessions are ignored.
func (h *Hub) Leave(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := c.GetUserID()
	group, ok := h.groups[userID]
	if !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, userID)
	}
}

// Multicast delivers the payload to every live session under the
// key. A key with no members is a silent no-op: the recipient is
// offline and the message waits as backlog. The hub mutex serializes
// dispatch, so delivery order within one group equals call order.
func (h *Hub) Multicast(userID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.groups[userID] {
		select {
		case c.GetSendChannel() <- payload:
		default:
			// The session's write pump has fallen too far behind.
			h.log.Warn("dropping frame for slow session", zap.String("user_id", userID))
		}
	}
}

// Sessions reports how many live sessions are registered under the
// key.
func (h *Hub) Sessions(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[userID])
}
