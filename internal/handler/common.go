package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgValidation   = "Validation error"
	msgForbidden    = "Permissions denied"
	msgServerError  = "Something went wrong, please contact administration."
	msgUserNotFound = "User not found"
)

// currentUser 取出 AuthMiddleware 放入的用户
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Could not validate credentials")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Could not validate credentials")
		return nil, false
	}
	return user, true
}

// authorizeOwner 非管理员只能操作自己的数据
func authorizeOwner(user *models.User, ownerID uint) error {
	if user.IsAdmin || user.ID == ownerID {
		return nil
	}
	return service.ErrForbidden
}

// ownerFilter 管理员看全部（0），普通用户只看自己
func ownerFilter(user *models.User) uint {
	if user.IsAdmin {
		return 0
	}
	return user.ID
}

func validationFailed(c *gin.Context) {
	util.Error(c, http.StatusUnprocessableEntity, util.CodeValidation, msgValidation)
}

func notFound(c *gin.Context, msg string) {
	util.Error(c, http.StatusNotFound, util.CodeNotFound, msg)
}

func forbidden(c *gin.Context) {
	util.Error(c, http.StatusForbidden, util.CodeForbidden, msgForbidden)
}

// Fail 把 service 层错误转换为 HTTP 状态码和业务码；未知错误记录日志并返回 500
func Fail(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		validationFailed(c)
	case errors.Is(err, service.ErrEmailTaken):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Email already registered")
	case errors.Is(err, service.ErrTokenInvalid):
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Token has expired")
	case errors.Is(err, service.ErrInvalidCredentials):
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Could not validate credentials")
	case errors.Is(err, service.ErrInactiveUser):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Inactive user")
	case errors.Is(err, service.ErrForbidden):
		forbidden(c)
	case errors.Is(err, service.ErrNotFound):
		notFound(c, "Not found")
	case errors.Is(err, service.ErrLimitConflict):
		util.Error(c, http.StatusConflict, util.CodeConflict, "Cannot change month limit because it is used in given year.")
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, msgServerError)
	}
}

// dateRange 解析 date_from / date_to（YYYY-MM-DD，闭区间）
func dateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	from, err := util.ParseOptionalDate(c.Query("date_from"))
	if err != nil {
		return nil, nil, false
	}
	to, err = util.ParseOptionalDate(c.Query("date_to"))
	if err != nil {
		return nil, nil, false
	}
	return from, to, true
}

// ---------- 响应结构 ----------

type userResp struct {
	UUID     string `json:"uuid"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

func toUserResp(u *models.User) userResp {
	return userResp{UUID: u.UUID, Email: u.Email, IsActive: u.IsActive, IsAdmin: u.IsAdmin}
}

type expenditureResp struct {
	UUID     string  `json:"uuid"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`
	Date     string  `json:"date"`
	Place    string  `json:"place"`
}

func toExpenditureResp(e *models.Expenditure) expenditureResp {
	return expenditureResp{
		UUID:     e.UUID,
		Name:     e.Name,
		Category: string(e.Category),
		Cost:     e.Cost,
		Date:     e.Date.UTC().Format(util.DateLayout),
		Place:    e.Place,
	}
}

type dayStatResp struct {
	UUID      string  `json:"uuid"`
	TotalCost float64 `json:"total_cost"`
	Date      string  `json:"date"`
}

func toDayStatResp(s *models.DayStat) dayStatResp {
	return dayStatResp{UUID: s.UUID, TotalCost: s.TotalCost, Date: s.Date.UTC().Format(util.DateLayout)}
}

type limitResp struct {
	UUID  string  `json:"uuid"`
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Limit float64 `json:"limit"`
}

func toLimitResp(l *models.Limit) limitResp {
	return limitResp{UUID: l.UUID, Year: l.Year, Month: l.Month, Limit: l.Limit}
}

// mapSlice 把模型切片转换为响应切片
func mapSlice[M any, R any](in []M, f func(*M) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
