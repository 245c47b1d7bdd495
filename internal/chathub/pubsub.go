package chathub

import (
	"context"
	"encoding/json"

	"linkup/backend/internal/models"
	"linkup/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge replays route events published by sibling instances into
// the local hub, so a recipient connected to another process still
// gets live delivery.
type Bridge struct {
	hub        *Hub
	rdb        *redis.Client
	instanceID string
	log        *zap.Logger
}

// NewBridge wires the bridge for this process. instanceID must match
// the gateway's so locally published events are not delivered twice.
func NewBridge(hub *Hub, rdb *redis.Client, instanceID string, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{hub: hub, rdb: rdb, instanceID: instanceID, log: log}
}

// Run subscribes to the shared event channel and blocks until the
// context is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, storage.EventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.RouteEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn("failed to decode route event", zap.Error(err))
				continue
			}
			if event.Origin == b.instanceID {
				// Already multicast locally by the gateway.
				continue
			}
			for _, userID := range event.UserIDs {
				b.hub.Multicast(userID, event.Payload)
			}
		}
	}
}
