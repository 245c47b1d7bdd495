package storage

import (
	"errors"

	"linkup/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetThreadByID loads a thread by primary key.
func (s *Service) GetThreadByID(id uint) (*models.Thread, error) {
	var thread models.Thread
	err := s.DB.First(&thread, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		s.Log.Error("failed to load thread", zap.Uint("thread_id", id), zap.Error(err))
		return nil, err
	}
	return &thread, nil
}

// GetOrCreateThread returns the thread for the unordered pair
// {user1ID, user2ID}, creating it when none exists. Argument order
// does not matter: the pair is normalized before the lookup.
func (s *Service) GetOrCreateThread(user1ID, user2ID string) (*models.Thread, error) {
	thread := models.Thread{User1ID: user1ID, User2ID: user2ID}
	thread.NormalizePair()

	err := s.DB.
		Where("user1_id = ? AND user2_id = ?", thread.User1ID, thread.User2ID).
		FirstOrCreate(&thread).Error
	if err != nil {
		// A concurrent connect may have inserted the same pair and
		// tripped the unique index; re-read before giving up.
		var existing models.Thread
		if ferr := s.DB.
			Where("user1_id = ? AND user2_id = ?", thread.User1ID, thread.User2ID).
			First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		s.Log.Error("failed to get or create thread", zap.Error(err))
		return nil, err
	}
	return &thread, nil
}

// ThreadsForUser returns every thread the user participates in,
// most recently updated first, with both participants preloaded.
func (s *Service) ThreadsForUser(userID string) ([]models.Thread, error) {
	var threads []models.Thread
	err := s.DB.
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Preload("User1").
		Preload("User2").
		Order("updated_at desc").
		Find(&threads).Error
	if err != nil {
		s.Log.Error("failed to list threads", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return threads, nil
}
