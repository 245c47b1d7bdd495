package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSameParticipants is returned when a thread would pair a user
// with themselves.
var ErrSameParticipants = errors.New("thread participants must be two distinct users")

// ErrMissingParticipant is returned when a thread is created without
// both participant ids.
var ErrMissingParticipant = errors.New("thread requires both participants")

// Thread is the two-party conversation container. The unordered pair
// {User1ID, User2ID} is unique across all threads: NormalizePair
// sorts the ids before insert, so the composite unique index covers
// both argument orders.
type Thread struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	User1ID string `gorm:"not null;uniqueIndex:idx_thread_pair" json:"user1"`
	User2ID string `gorm:"not null;uniqueIndex:idx_thread_pair" json:"user2"`
	User1   User   `gorm:"foreignKey:User1ID;constraint:OnDelete:CASCADE" json:"-"`
	User2   User   `gorm:"foreignKey:User2ID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated"`
}

// NormalizePair orders the participant ids so {A,B} and {B,A} map to
// the same row.
func (t *Thread) NormalizePair() {
	if t.User2ID < t.User1ID {
		t.User1ID, t.User2ID = t.User2ID, t.User1ID
	}
}

// BeforeCreate validates the pair and normalizes its order.
func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.User1ID == "" || t.User2ID == "" {
		return ErrMissingParticipant
	}
	if t.User1ID == t.User2ID {
		return ErrSameParticipants
	}
	t.NormalizePair()
	return nil
}

// HasParticipant reports whether userID is one of the thread's two
// participants.
func (t *Thread) HasParticipant(userID string) bool {
	return userID != "" && (t.User1ID == userID || t.User2ID == userID)
}

// Counterpart returns the other participant's id, or "" when userID
// is not a participant.
func (t *Thread) Counterpart(userID string) string {
	switch userID {
	case t.User1ID:
		return t.User2ID
	case t.User2ID:
		return t.User1ID
	}
	return ""
}
