package storage

import (
	"errors"

	"linkup/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetUserByID looks up a user by primary key.
func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.Log.Error("failed to load user", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername looks up a user by their unique username.
func (s *Service) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveUser upserts a user row.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// UsersByTopic returns every user subscribed to the given broadcast
// topic.
func (s *Service) UsersByTopic(topic string) ([]models.User, error) {
	var users []models.User
	if err := s.DB.Where("? = ANY(topics)", topic).Find(&users).Error; err != nil {
		s.Log.Error("failed to query users by topic", zap.String("topic", topic), zap.Error(err))
		return nil, err
	}
	return users, nil
}
