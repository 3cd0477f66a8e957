package models

import "time"

// Limit is a spending cap for one (owner, year, month).
type Limit struct {
	ID        uint    `gorm:"primaryKey"`
	UUID      string  `gorm:"size:36;uniqueIndex;not null"`
	Year      int     `gorm:"uniqueIndex:idx_limit_owner_month,priority:2;not null"`
	Month     int     `gorm:"uniqueIndex:idx_limit_owner_month,priority:3;not null"`
	Limit     float64 `gorm:"column:limit_amount;not null"`
	OwnerID   uint    `gorm:"uniqueIndex:idx_limit_owner_month,priority:1;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
