package models

import "time"

// Session stores issued bearer tokens (for logout, invalidation, single-session mode).
type Session struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"size:1024;uniqueIndex;not null"`
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
