package storage

import (
	"linkup/backend/internal/models"

	"go.uber.org/zap"
)

// SaveNotification persists an in-app notification record.
func (s *Service) SaveNotification(n *models.Notification) error {
	if err := s.DB.Create(n).Error; err != nil {
		s.Log.Error("failed to save notification",
			zap.String("user_id", n.UserID),
			zap.Error(err))
		return err
	}
	return nil
}
