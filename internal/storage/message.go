package storage

import (
	"errors"
	"time"

	"linkup/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SaveMessage validates and persists a chat message, then bumps the
// owning thread's update time. The message's ID and CreatedAt are
// filled by the database.
func (s *Service) SaveMessage(thread *models.Thread, msg *models.ChatMessage) error {
	if err := msg.Validate(thread); err != nil {
		return err
	}
	msg.ThreadID = thread.ID

	if err := s.DB.Create(msg).Error; err != nil {
		s.Log.Error("failed to save message",
			zap.Uint("thread_id", thread.ID),
			zap.String("sender_id", msg.SenderID),
			zap.Error(err))
		return err
	}

	// Thread ordering in the list view follows the latest message.
	if err := s.DB.Model(&models.Thread{}).
		Where("id = ?", thread.ID).
		Update("updated_at", time.Now()).Error; err != nil {
		s.Log.Warn("failed to touch thread", zap.Uint("thread_id", thread.ID), zap.Error(err))
	}
	return nil
}

// LastMessage returns the thread's newest message with its sender
// preloaded, or nil when the thread is still empty.
func (s *Service) LastMessage(threadID uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.DB.
		Where("thread_id = ?", threadID).
		Preload("Sender").
		Order("created_at desc").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.Log.Error("failed to load last message", zap.Uint("thread_id", threadID), zap.Error(err))
		return nil, err
	}
	return &msg, nil
}

// MarkMessageRead flips a single message's read flag.
func (s *Service) MarkMessageRead(messageID uint) error {
	return s.DB.Model(&models.ChatMessage{}).
		Where("id = ?", messageID).
		Update("is_read", true).Error
}

// UnreadMessages returns the full unread backlog for a reader in a
// thread: every message not sent by excludeSenderID that is still
// unread, oldest first, with senders preloaded. One-shot snapshot,
// not a stream.
func (s *Service) UnreadMessages(threadID uint, excludeSenderID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.DB.
		Where("thread_id = ? AND is_read = ? AND sender_id <> ?", threadID, false, excludeSenderID).
		Preload("Sender").
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		s.Log.Error("failed to load unread backlog", zap.Uint("thread_id", threadID), zap.Error(err))
		return nil, err
	}
	return messages, nil
}

// MarkThreadRead marks every message in the thread as read. The
// gateway applies this only under the asymmetric connect-time
// policy: the reader's counterpart is online and viewing while the
// reader was not yet online themselves.
func (s *Service) MarkThreadRead(threadID uint) error {
	return s.DB.Model(&models.ChatMessage{}).
		Where("thread_id = ?", threadID).
		Update("is_read", true).Error
}

// MessagesForThread returns a page of the thread's history, oldest
// first.
func (s *Service) MessagesForThread(threadID uint, limit, offset int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	q := s.DB.
		Where("thread_id = ?", threadID).
		Preload("Sender").
		Order("created_at asc").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&messages).Error; err != nil {
		s.Log.Error("failed to load thread history", zap.Uint("thread_id", threadID), zap.Error(err))
		return nil, err
	}
	return messages, nil
}
