package handler

import (
	"errors"
	"strconv"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgLimitNotFound = "Limit not found"

// LimitHandler 每月支出限额
type LimitHandler struct {
	Limits   *service.LimitService
	Users    *service.UserService
	PageSize int
	Log      *zap.Logger
}

func NewLimitHandler(limits *service.LimitService, users *service.UserService, pageSize int, log *zap.Logger) *LimitHandler {
	return &LimitHandler{
		Limits:   limits,
		Users:    users,
		PageSize: pageSize,
		Log:      log.Named("handler.limits"),
	}
}

type limitReq struct {
	Year  int      `json:"year" binding:"required,gte=1"`
	Month int      `json:"month" binding:"required,gte=1,lte=12"`
	Limit *float64 `json:"limit" binding:"required,gte=0"`
}

func bindLimit(c *gin.Context) (service.LimitInput, bool) {
	var req limitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c)
		return service.LimitInput{}, false
	}
	return service.LimitInput{Year: req.Year, Month: req.Month, Limit: *req.Limit}, true
}

// Create 同一月份已存在时覆盖金额
func (h *LimitHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	in, ok := bindLimit(c)
	if !ok {
		return
	}
	owner, ok := targetOwner(c, h.Users, user, h.Log)
	if !ok {
		return
	}

	l, err := h.Limits.UpsertByMonth(c.Request.Context(), in, owner.ID)
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Created(c, toLimitResp(l))
}

func (h *LimitHandler) load(c *gin.Context, user *models.User) (*models.Limit, bool) {
	l, err := h.Limits.GetAny(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		Fail(c, h.Log, err)
		return nil, false
	}
	if l == nil {
		notFound(c, msgLimitNotFound)
		return nil, false
	}
	if err := authorizeOwner(user, l.OwnerID); err != nil {
		forbidden(c)
		return nil, false
	}
	return l, true
}

func (h *LimitHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	l, ok := h.load(c, user)
	if !ok {
		return
	}
	util.Success(c, toLimitResp(l))
}

func (h *LimitHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	in, ok := bindLimit(c)
	if !ok {
		return
	}
	l, ok := h.load(c, user)
	if !ok {
		return
	}

	if _, err := h.Limits.Update(c.Request.Context(), l, in); err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.NoContent(c)
}

func (h *LimitHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	l, ok := h.load(c, user)
	if !ok {
		return
	}

	if err := h.Limits.Delete(c.Request.Context(), l.UUID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c, msgLimitNotFound)
			return
		}
		Fail(c, h.Log, err)
		return
	}
	util.NoContent(c)
}

func (h *LimitHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.list(c, ownerFilter(user))
}

func (h *LimitHandler) ListForUser(c *gin.Context) {
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

func (h *LimitHandler) list(c *gin.Context, ownerID uint) {
	year := 0
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			validationFailed(c)
			return
		}
		year = y
	}
	page, limit := util.PageParams(c, h.PageSize)

	list, total, err := h.Limits.List(c.Request.Context(), service.LimitQuery{
		Page:    page,
		Limit:   limit,
		Year:    year,
		OwnerID: ownerID,
	})
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, util.NewPage(mapSlice(list, toLimitResp), page, limit, total))
}
