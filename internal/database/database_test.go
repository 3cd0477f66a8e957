package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Isild/home-budget-backend/internal/config"
	"github.com/Isild/home-budget-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestInitAndMigrate(t *testing.T) {
	db, err := Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "nested", "test.db"),
	})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "sessions", "expenditures", "day_stats", "limits", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
}

func TestUniqueLimitPerMonth(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	user := models.User{UUID: "u-1", Email: "a@b.c", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, db.Create(&models.Limit{UUID: "l-1", Year: 2023, Month: 1, Limit: 10, OwnerID: user.ID}).Error)
	err = db.Create(&models.Limit{UUID: "l-2", Year: 2023, Month: 1, Limit: 20, OwnerID: user.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "second limit for the same month must violate the unique index")
}

func TestUniqueDayStatPerDate(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	user := models.User{UUID: "u-1", Email: "a@b.c", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.DayStat{UUID: "d-1", Date: day, OwnerID: user.ID}).Error)
	assert.Error(t, db.Create(&models.DayStat{UUID: "d-2", Date: day, OwnerID: user.ID}).Error)
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}
