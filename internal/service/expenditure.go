package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Isild/home-budget-backend/internal/jobs"
	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExpenditureInput struct {
	Name     string
	Cost     float64
	Date     time.Time
	Place    string
	Category models.Category
}

type ExpenditureQuery struct {
	Page     int
	Limit    int
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	OwnerID  uint // 0 = all owners
}

// ExpenditureService stores expenditures. Every write schedules a day-stat
// recompute for the touched dates; the caller does not wait for it.
type ExpenditureService struct {
	db   *gorm.DB
	jobs jobs.Dispatcher
	log  *zap.Logger
}

func NewExpenditureService(db *gorm.DB, dispatcher jobs.Dispatcher, log *zap.Logger) *ExpenditureService {
	return &ExpenditureService{db: db, jobs: dispatcher, log: log.Named("expenditures")}
}

func (s *ExpenditureService) Create(ctx context.Context, in ExpenditureInput, ownerID uint) (*models.Expenditure, error) {
	e := models.Expenditure{
		UUID:     uuid.NewString(),
		Name:     in.Name,
		Cost:     in.Cost,
		Date:     util.TruncateDay(in.Date),
		Place:    in.Place,
		Category: in.Category,
		OwnerID:  ownerID,
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create expenditure: %w", err)
	}

	s.recompute(ctx, e.OwnerID, e.Date)
	return &e, nil
}

// Update replaces every field of existing. Both the old and the new date are recomputed.
func (s *ExpenditureService) Update(ctx context.Context, existing *models.Expenditure, in ExpenditureInput) (*models.Expenditure, error) {
	oldDate := existing.Date

	existing.Name = in.Name
	existing.Cost = in.Cost
	existing.Date = util.TruncateDay(in.Date)
	existing.Place = in.Place
	existing.Category = in.Category

	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update expenditure: %w", err)
	}

	s.recompute(ctx, existing.OwnerID, existing.Date)
	if !oldDate.Equal(existing.Date) {
		s.recompute(ctx, existing.OwnerID, oldDate)
	}
	return existing, nil
}

func (s *ExpenditureService) Get(ctx context.Context, id string) (*models.Expenditure, error) {
	var e models.Expenditure
	err := s.db.WithContext(ctx).Where("uuid = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expenditure: %w", err)
	}
	return &e, nil
}

func (s *ExpenditureService) filtered(ctx context.Context, q ExpenditureQuery) *gorm.DB {
	base := s.db.WithContext(ctx).Model(&models.Expenditure{})
	if q.OwnerID != 0 {
		base = base.Where("owner_id = ?", q.OwnerID)
	}
	if q.Search != "" {
		like := util.ContainsPattern(q.Search)
		base = base.Where(`(name LIKE ? ESCAPE '\' OR place LIKE ? ESCAPE '\')`, like, like)
	}
	if q.DateFrom != nil {
		base = base.Where("date >= ?", util.TruncateDay(*q.DateFrom))
	}
	if q.DateTo != nil {
		base = base.Where("date <= ?", util.TruncateDay(*q.DateTo))
	}
	return base
}

// List returns one page ordered by date ascending and the total match count.
func (s *ExpenditureService) List(ctx context.Context, q ExpenditureQuery) ([]models.Expenditure, int64, error) {
	base := s.filtered(ctx, q)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count expenditures: %w", err)
	}

	var list []models.Expenditure
	if err := base.Session(&gorm.Session{}).
		Order("date ASC, id ASC").
		Limit(q.Limit).
		Offset(util.Offset(q.Page, q.Limit)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list expenditures: %w", err)
	}
	return list, total, nil
}

// ListAll returns every match without paging (export).
func (s *ExpenditureService) ListAll(ctx context.Context, q ExpenditureQuery) ([]models.Expenditure, error) {
	var list []models.Expenditure
	if err := s.filtered(ctx, q).Order("date ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list expenditures: %w", err)
	}
	return list, nil
}

func (s *ExpenditureService) Delete(ctx context.Context, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNotFound
	}

	if err := s.db.WithContext(ctx).Delete(e).Error; err != nil {
		return fmt.Errorf("delete expenditure: %w", err)
	}

	s.recompute(ctx, e.OwnerID, e.Date)
	return nil
}

// recompute enqueues a day-stat rebuild. A failed enqueue is logged, the write itself
// already succeeded.
func (s *ExpenditureService) recompute(ctx context.Context, ownerID uint, date time.Time) {
	job := jobs.RecomputeJob{OwnerID: ownerID, Date: util.TruncateDay(date)}
	// 请求结束后 ctx 会被取消，任务不能跟着失效
	if err := s.jobs.Enqueue(context.WithoutCancel(ctx), job); err != nil {
		s.log.Error("enqueue day stat recompute", zap.String("key", job.Key()), zap.Error(err))
	}
}
