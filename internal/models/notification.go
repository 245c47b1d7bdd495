package models

import "time"

// Notification is an in-app feed record. Creating the record is
// unconditional; invoking the external push sink is a separate,
// best-effort step.
type Notification struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	User      User    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title     string  `gorm:"size:100" json:"title"`
	Content   string  `gorm:"type:text;not null" json:"content"`
	ContentID *uint   `json:"content_id"`
	IsRead    bool    `gorm:"not null;default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
