package models

import "time"

// User represents an account holder. Admins may manage other users' data.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	UUID         string    `gorm:"size:36;uniqueIndex;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	IsActive     bool      `gorm:"not null"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	Disabled     bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Sessions     []Session     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Expenditures []Expenditure `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	DayStats     []DayStat     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Limits       []Limit       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}
