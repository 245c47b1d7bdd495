package storage

import (
	"context"
	"encoding/json"
	"errors"

	"linkup/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventChannel is the redis pub/sub channel carrying routed events
// between instances.
const EventChannel = "chat:events"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrThreadNotFound = errors.New("thread not found")
)

// Storage is the persistence boundary used by the gateway, the REST
// handlers, and the notification bridge.
type Storage interface {
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	SaveUser(user *models.User) error
	UsersByTopic(topic string) ([]models.User, error)

	GetThreadByID(id uint) (*models.Thread, error)
	GetOrCreateThread(user1ID, user2ID string) (*models.Thread, error)
	ThreadsForUser(userID string) ([]models.Thread, error)

	SaveMessage(thread *models.Thread, msg *models.ChatMessage) error
	LastMessage(threadID uint) (*models.ChatMessage, error)
	MarkMessageRead(messageID uint) error
	UnreadMessages(threadID uint, excludeSenderID string) ([]models.ChatMessage, error)
	MarkThreadRead(threadID uint) error
	MessagesForThread(threadID uint, limit, offset int) ([]models.ChatMessage, error)

	SaveNotification(n *models.Notification) error

	PublishEvent(event models.RouteEvent) error
}

// Service implements Storage on PostgreSQL (gorm) plus redis for the
// pub/sub bridge.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
	Log   *zap.Logger
}

// NewStorageService constructs the Service. The redis client may be
// nil for single-instance deployments and tests; PublishEvent is
// then a no-op.
func NewStorageService(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
		Log:   log,
	}
}

// PublishEvent publishes a routed event on the shared channel so
// sibling instances can deliver it to their local sessions.
func (s *Service) PublishEvent(event models.RouteEvent) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, EventChannel, payload).Err()
}
