package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LimitInput struct {
	Year  int
	Month int
	Limit float64
}

type LimitQuery struct {
	Page    int
	Limit   int
	Year    int  // 0 = any year
	OwnerID uint // 0 = all owners
}

// LimitService keeps at most one spending limit per owner and month.
type LimitService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLimitService(db *gorm.DB, log *zap.Logger) *LimitService {
	return &LimitService{db: db, log: log.Named("limits")}
}

// UpsertByMonth creates the limit of (owner, year, month) or overwrites its amount.
func (s *LimitService) UpsertByMonth(ctx context.Context, in LimitInput, ownerID uint) (*models.Limit, error) {
	if err := util.ValidateMonth(in.Month); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	l := models.Limit{
		UUID:    uuid.NewString(),
		Year:    in.Year,
		Month:   in.Month,
		Limit:   in.Limit,
		OwnerID: ownerID,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"limit_amount", "updated_at"}),
	}).Create(&l).Error
	if err != nil {
		return nil, fmt.Errorf("upsert limit: %w", err)
	}

	// 冲突更新时返回的 uuid/id 不可信，重新读取
	var stored models.Limit
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? AND year = ? AND month = ?", ownerID, in.Year, in.Month).
		First(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload limit: %w", err)
	}
	return &stored, nil
}

// Update moves existing to in.Year/in.Month. ErrLimitConflict when another limit of the
// same owner already uses that month.
func (s *LimitService) Update(ctx context.Context, existing *models.Limit, in LimitInput) (*models.Limit, error) {
	if err := util.ValidateMonth(in.Month); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Limit{}).
		Where("owner_id = ? AND year = ? AND month = ? AND id <> ?", existing.OwnerID, in.Year, in.Month, existing.ID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check limit conflict: %w", err)
	}
	if count > 0 {
		return nil, ErrLimitConflict
	}

	existing.Year = in.Year
	existing.Month = in.Month
	existing.Limit = in.Limit
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLimitConflict
		}
		return nil, fmt.Errorf("update limit: %w", err)
	}
	return existing, nil
}

func (s *LimitService) List(ctx context.Context, q LimitQuery) ([]models.Limit, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Limit{})
	if q.OwnerID != 0 {
		base = base.Where("owner_id = ?", q.OwnerID)
	}
	if q.Year != 0 {
		base = base.Where("year = ?", q.Year)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count limits: %w", err)
	}

	var list []models.Limit
	if err := base.Session(&gorm.Session{}).
		Order("year ASC, month ASC, id ASC").
		Limit(q.Limit).
		Offset(util.Offset(q.Page, q.Limit)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list limits: %w", err)
	}
	return list, total, nil
}

// Get returns the owner's limit, nil when absent or owned by someone else.
func (s *LimitService) Get(ctx context.Context, id string, ownerID uint) (*models.Limit, error) {
	return s.findOne(s.db.WithContext(ctx).Where("uuid = ? AND owner_id = ?", id, ownerID))
}

// GetAny looks the limit up regardless of owner.
func (s *LimitService) GetAny(ctx context.Context, id string) (*models.Limit, error) {
	return s.findOne(s.db.WithContext(ctx).Where("uuid = ?", id))
}

func (s *LimitService) findOne(q *gorm.DB) (*models.Limit, error) {
	var l models.Limit
	err := q.First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get limit: %w", err)
	}
	return &l, nil
}

func (s *LimitService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("uuid = ?", id).Delete(&models.Limit{})
	if res.Error != nil {
		return fmt.Errorf("delete limit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
