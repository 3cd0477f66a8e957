package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Isild/home-budget-backend/internal/jobs"
	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DayStatQuery struct {
	OwnerID  uint // 0 = all owners
	Page     int
	Limit    int
	DateFrom *time.Time
	DateTo   *time.Time
}

// GroupBy selects the period of a stats aggregation.
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByMonth GroupBy = "month"
	GroupByYear  GroupBy = "year"
)

// ParseGroupBy accepts "", "day", "month" and "year"; empty means day.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "", GroupByDay:
		return GroupByDay, nil
	case GroupByMonth, GroupByYear:
		return GroupBy(s), nil
	}
	return "", fmt.Errorf("%w: unknown group_by %q", ErrValidation, s)
}

// StatGroup is one aggregated period. Month and Day are zero when coarser than the grouping.
type StatGroup struct {
	Period    string  `json:"period"`
	Year      int     `json:"year"`
	Month     int     `json:"month,omitempty"`
	Day       int     `json:"day,omitempty"`
	TotalCost float64 `json:"total_cost"`
}

// MonthCost is rendered as {"<month>": cost, "limit": limit}.
type MonthCost struct {
	Month int
	Cost  float64
	Limit float64
}

func (m MonthCost) MarshalJSON() ([]byte, error) {
	cost, err := json.Marshal(m.Cost)
	if err != nil {
		return nil, err
	}
	limit, err := json.Marshal(m.Limit)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"`)
	buf.WriteString(strconv.Itoa(m.Month))
	buf.WriteString(`":`)
	buf.Write(cost)
	buf.WriteString(`,"limit":`)
	buf.Write(limit)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type MonthLimitReport struct {
	TotalCost  float64     `json:"total_cost"`
	Year       int         `json:"year"`
	TotalLimit float64     `json:"total_limit"`
	MonthCosts []MonthCost `json:"month_costs"`
}

// DayStatService keeps the per-day totals in sync with the expenditures table.
type DayStatService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewDayStatService(db *gorm.DB, log *zap.Logger) *DayStatService {
	return &DayStatService{db: db, log: log.Named("day_stats"), now: time.Now}
}

// Recompute rebuilds the stat of (ownerID, date) from the expenditures on that date.
// The row is removed when no expenditure is left. Safe to run any number of times.
func (s *DayStatService) Recompute(ctx context.Context, ownerID uint, date time.Time) error {
	date = util.TruncateDay(date)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var costs []float64
		if err := tx.Model(&models.Expenditure{}).
			Where("owner_id = ? AND date = ?", ownerID, date).
			Pluck("cost", &costs).Error; err != nil {
			return fmt.Errorf("sum costs: %w", err)
		}

		if len(costs) == 0 {
			if err := tx.Where("owner_id = ? AND date = ?", ownerID, date).Delete(&models.DayStat{}).Error; err != nil {
				return fmt.Errorf("delete day stat: %w", err)
			}
			return nil
		}

		total := decimal.Zero
		for _, c := range costs {
			total = total.Add(decimal.NewFromFloat(c))
		}

		stat := models.DayStat{
			UUID:      uuid.NewString(),
			TotalCost: total.InexactFloat64(),
			Date:      date,
			OwnerID:   ownerID,
		}
		// uuid 保持首次创建时的值，只覆盖金额
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_cost", "updated_at"}),
		}).Create(&stat).Error
		if err != nil {
			return fmt.Errorf("upsert day stat: %w", err)
		}
		return nil
	})
}

// HandleJob adapts Recompute to the jobs package.
func (s *DayStatService) HandleJob(ctx context.Context, job jobs.RecomputeJob) error {
	return s.Recompute(ctx, job.OwnerID, job.Date)
}

func (s *DayStatService) Get(ctx context.Context, id string) (*models.DayStat, error) {
	var stat models.DayStat
	err := s.db.WithContext(ctx).Where("uuid = ?", id).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day stat: %w", err)
	}
	return &stat, nil
}

func (s *DayStatService) filtered(ctx context.Context, q DayStatQuery) *gorm.DB {
	base := s.db.WithContext(ctx).Model(&models.DayStat{})
	if q.OwnerID != 0 {
		base = base.Where("owner_id = ?", q.OwnerID)
	}
	if q.DateFrom != nil {
		base = base.Where("date >= ?", util.TruncateDay(*q.DateFrom))
	}
	if q.DateTo != nil {
		base = base.Where("date <= ?", util.TruncateDay(*q.DateTo))
	}
	return base
}

func (s *DayStatService) List(ctx context.Context, q DayStatQuery) ([]models.DayStat, int64, error) {
	base := s.filtered(ctx, q)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count day stats: %w", err)
	}

	var list []models.DayStat
	if err := base.Session(&gorm.Session{}).
		Order("date ASC, id ASC").
		Limit(q.Limit).
		Offset(util.Offset(q.Page, q.Limit)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list day stats: %w", err)
	}
	return list, total, nil
}

// Group aggregates the matching day stats per period, ascending, and returns one page
// of groups plus the number of groups.
func (s *DayStatService) Group(ctx context.Context, q DayStatQuery, by GroupBy) ([]StatGroup, int64, error) {
	var stats []models.DayStat
	if err := s.filtered(ctx, q).Order("date ASC").Find(&stats).Error; err != nil {
		return nil, 0, fmt.Errorf("load day stats: %w", err)
	}

	// 按时间顺序聚合，同一周期的记录相邻
	var (
		groups []StatGroup
		sums   []decimal.Decimal
	)
	for _, st := range stats {
		g := newStatGroup(st.Date, by)
		if n := len(groups); n > 0 && groups[n-1].Period == g.Period {
			sums[n-1] = sums[n-1].Add(decimal.NewFromFloat(st.TotalCost))
			continue
		}
		groups = append(groups, g)
		sums = append(sums, decimal.NewFromFloat(st.TotalCost))
	}
	for i := range groups {
		groups[i].TotalCost = sums[i].Round(2).InexactFloat64()
	}

	total := int64(len(groups))
	start := util.Offset(q.Page, q.Limit)
	if start < 0 || start >= len(groups) {
		return []StatGroup{}, total, nil
	}
	end := len(groups)
	if q.Limit > 0 && q.Limit < end-start {
		end = start + q.Limit
	}
	return groups[start:end], total, nil
}

func newStatGroup(d time.Time, by GroupBy) StatGroup {
	d = d.UTC()
	switch by {
	case GroupByYear:
		return StatGroup{Period: d.Format("2006"), Year: d.Year()}
	case GroupByMonth:
		return StatGroup{Period: d.Format("2006-01"), Year: d.Year(), Month: int(d.Month())}
	default:
		return StatGroup{Period: d.Format(util.DateLayout), Year: d.Year(), Month: int(d.Month()), Day: d.Day()}
	}
}

// MonthLimitReport compares the owner's monthly spending in year with the monthly limits.
// year <= 0 means the current year.
func (s *DayStatService) MonthLimitReport(ctx context.Context, ownerID uint, year int) (*MonthLimitReport, error) {
	if year <= 0 {
		year = s.now().Year()
	}
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var stats []models.DayStat
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? AND date >= ? AND date < ?", ownerID, from, to).
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("load day stats: %w", err)
	}

	var limits []models.Limit
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? AND year = ?", ownerID, year).
		Find(&limits).Error; err != nil {
		return nil, fmt.Errorf("load limits: %w", err)
	}

	monthCost := map[int]decimal.Decimal{}
	for _, st := range stats {
		m := int(st.Date.UTC().Month())
		monthCost[m] = monthCost[m].Add(decimal.NewFromFloat(st.TotalCost))
	}

	monthLimit := map[int]decimal.Decimal{}
	totalLimit := decimal.Zero
	for _, l := range limits {
		v := decimal.NewFromFloat(l.Limit)
		monthLimit[l.Month] = v
		totalLimit = totalLimit.Add(v)
	}

	months := make([]int, 0, len(monthCost))
	for m := range monthCost {
		months = append(months, m)
	}
	sort.Ints(months)

	report := &MonthLimitReport{
		Year:       year,
		TotalLimit: totalLimit.Round(2).InexactFloat64(),
		MonthCosts: make([]MonthCost, 0, len(months)),
	}
	totalCost := decimal.Zero
	for _, m := range months {
		cost := monthCost[m].Round(2)
		totalCost = totalCost.Add(cost)
		report.MonthCosts = append(report.MonthCosts, MonthCost{
			Month: m,
			Cost:  cost.InexactFloat64(),
			Limit: monthLimit[m].Round(2).InexactFloat64(),
		})
	}
	report.TotalCost = totalCost.Round(2).InexactFloat64()
	return report, nil
}
