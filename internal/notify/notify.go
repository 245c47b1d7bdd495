// Package notify bridges durable events to the in-app notification
// feed and the external push sink. Record creation is unconditional;
// the push is opt-in and best-effort, and its failures never reach
// the caller.
package notify

import (
	"linkup/backend/internal/models"

	"go.uber.org/zap"
)

// Pusher is the external push-notification sink.
type Pusher interface {
	Push(user *models.User, title, body string) error
}

// Store is the slice of the persistence layer the bridge needs.
type Store interface {
	SaveNotification(n *models.Notification) error
	UsersByTopic(topic string) ([]models.User, error)
}

// Bridge wires notification records and the push sink together.
type Bridge struct {
	store  Store
	pusher Pusher
	log    *zap.Logger
}

// NewBridge constructs the bridge. A nil pusher disables push
// delivery entirely; in-app records are still created.
func NewBridge(store Store, pusher Pusher, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{store: store, pusher: pusher, log: log}
}

// Notify persists the in-app record, then invokes the push sink when
// the user's profile opts in.
func (b *Bridge) Notify(user *models.User, title, content string, contentID *uint) (*models.Notification, error) {
	record := &models.Notification{
		UserID:    user.ID,
		Title:     title,
		Content:   content,
		ContentID: contentID,
	}
	if err := b.store.SaveNotification(record); err != nil {
		return nil, err
	}

	if user.PushOptIn && b.pusher != nil {
		if err := b.pusher.Push(user, title, content); err != nil {
			b.log.Warn("push notification failed",
				zap.String("user_id", user.ID),
				zap.Error(err))
		}
	}
	return record, nil
}

// Broadcast fans a durable content event (news, events) out to every
// user subscribed to the topic. Per-user failures are logged and do
// not stop the fan-out.
func (b *Bridge) Broadcast(topic, title, content string, contentID *uint) error {
	users, err := b.store.UsersByTopic(topic)
	if err != nil {
		return err
	}
	for i := range users {
		if _, err := b.Notify(&users[i], title, content, contentID); err != nil {
			b.log.Error("failed to create notification",
				zap.String("user_id", users[i].ID),
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
	return nil
}
