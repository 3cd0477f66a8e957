package models

import "time"

// DayStat is derived data: the total cost of one owner's expenditures on one date.
// It is rebuilt from the expenditures table, never edited by clients.
type DayStat struct {
	ID        uint      `gorm:"primaryKey"`
	UUID      string    `gorm:"size:36;uniqueIndex;not null"`
	TotalCost float64   `gorm:"not null;default:0"`
	Date      time.Time `gorm:"uniqueIndex:idx_day_stat_owner_date,priority:2;not null"`
	OwnerID   uint      `gorm:"uniqueIndex:idx_day_stat_owner_date,priority:1;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
