package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is the account identity referenced by threads and messages.
// Credential storage and token issuance live outside this service;
// the row here is what the identity lookup resolves a token into.
type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Topics the user subscribed to for broadcast content (news,
	// events). Stored as a PostgreSQL text array.
	Topics pq.StringArray `gorm:"type:text[]" json:"-"`

	// PushOptIn mirrors the profile's push-notification switch.
	PushOptIn bool `json:"-"`
	// TelegramChatID links the account to a Telegram chat for the
	// push sink. Zero means no link.
	TelegramChatID int64 `gorm:"index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate is a GORM hook that assigns a UUID when the ID is not
// set by the caller.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
