package models

import "time"

// Category of an expenditure.
type Category string

const (
	CategoryNormal   Category = "normal"
	CategoryCyclical Category = "cyclical"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryNormal || c == CategoryCyclical
}

// Expenditure is a single spending record. Date is always UTC midnight.
type Expenditure struct {
	ID        uint      `gorm:"primaryKey"`
	UUID      string    `gorm:"size:36;uniqueIndex;not null"`
	Name      string    `gorm:"size:300;not null"`
	Cost      float64   `gorm:"not null"`
	Date      time.Time `gorm:"index:idx_expenditure_owner_date,priority:2;not null"`
	Place     string    `gorm:"size:300;not null"`
	Category  Category  `gorm:"size:16;not null;default:normal"`
	OwnerID   uint      `gorm:"index:idx_expenditure_owner_date,priority:1;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
