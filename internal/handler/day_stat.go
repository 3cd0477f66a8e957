package handler

import (
	"strconv"

	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DayStatHandler 每日支出统计（只读）
type DayStatHandler struct {
	DayStats *service.DayStatService
	Users    *service.UserService
	PageSize int
	Log      *zap.Logger
}

func NewDayStatHandler(dayStats *service.DayStatService, users *service.UserService, pageSize int, log *zap.Logger) *DayStatHandler {
	return &DayStatHandler{
		DayStats: dayStats,
		Users:    users,
		PageSize: pageSize,
		Log:      log.Named("handler.day_stats"),
	}
}

func (h *DayStatHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.list(c, ownerFilter(user))
}

func (h *DayStatHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stat, err := h.DayStats.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	if stat == nil {
		notFound(c, "Expenditure day stat not found")
		return
	}
	if err := authorizeOwner(user, stat.OwnerID); err != nil {
		forbidden(c)
		return
	}
	util.Success(c, toDayStatResp(stat))
}

// ListForUser 支持 group_by=day|month|year
func (h *DayStatHandler) ListForUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	owner, ok := pathUser(c, h.Users, user, h.Log)
	if !ok {
		return
	}
	h.list(c, owner.ID)
}

func (h *DayStatHandler) list(c *gin.Context, ownerID uint) {
	from, to, ok := dateRange(c)
	if !ok {
		validationFailed(c)
		return
	}
	page, limit := util.PageParams(c, h.PageSize)
	q := service.DayStatQuery{OwnerID: ownerID, Page: page, Limit: limit, DateFrom: from, DateTo: to}

	// 不分组时返回原始日统计记录
	if groupBy := c.Query("group_by"); groupBy != "" {
		by, err := service.ParseGroupBy(groupBy)
		if err != nil {
			validationFailed(c)
			return
		}
		groups, total, err := h.DayStats.Group(c.Request.Context(), q, by)
		if err != nil {
			Fail(c, h.Log, err)
			return
		}
		util.Success(c, util.NewPage(groups, page, limit, total))
		return
	}

	stats, total, err := h.DayStats.List(c.Request.Context(), q)
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, util.NewPage(mapSlice(stats, toDayStatResp), page, limit, total))
}

// MonthLimit 按月支出与限额对比（?year=，默认今年）
func (h *DayStatHandler) MonthLimit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	owner, ok := pathUser(c, h.Users, user, h.Log)
	if !ok {
		return
	}

	year := 0
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y <= 0 {
			validationFailed(c)
			return
		}
		year = y
	}

	report, err := h.DayStats.MonthLimitReport(c.Request.Context(), owner.ID, year)
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, report)
}

