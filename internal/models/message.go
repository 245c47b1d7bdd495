package models

import (
	"errors"
	"time"
)

// ErrEmptyMessage is returned when neither a body nor an image is
// supplied; such a message is never persisted.
var ErrEmptyMessage = errors.New("message requires a body or an image")

// ErrNotParticipant is returned when the sender is not one of the
// thread's two participants.
var ErrNotParticipant = errors.New("sender is not a participant of the thread")

// ChatMessage is a single message inside a thread. It is owned by
// the thread (cascade-deleted with it) and only the read flag is
// ever mutated after creation.
type ChatMessage struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ThreadID uint   `gorm:"not null;index" json:"thread_id"`
	Thread   Thread `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SenderID string `gorm:"not null;index" json:"sender_id"`
	Sender   User   `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`

	// Body is the text content; ImageURL points at a stored blob.
	// At least one of the two is present.
	Body     *string `gorm:"type:text" json:"message"`
	ImageURL *string `gorm:"type:text" json:"image"`

	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate enforces the persistence invariants against the owning
// thread.
func (m *ChatMessage) Validate(thread *Thread) error {
	if !hasText(m.Body) && !hasText(m.ImageURL) {
		return ErrEmptyMessage
	}
	if thread == nil || !thread.HasParticipant(m.SenderID) {
		return ErrNotParticipant
	}
	return nil
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}

// StringPtr is a small helper for optional text columns; it maps ""
// to nil so empty fields are stored as NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
