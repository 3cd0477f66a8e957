package handler

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgExpenditureNotFound = "Expenditure not found"

// ExpenditureHandler 负责支出相关接口
type ExpenditureHandler struct {
	Expenditures *service.ExpenditureService
	Users        *service.UserService
	PageSize     int
	Log          *zap.Logger
}

func NewExpenditureHandler(expenditures *service.ExpenditureService, users *service.UserService, pageSize int, log *zap.Logger) *ExpenditureHandler {
	return &ExpenditureHandler{
		Expenditures: expenditures,
		Users:        users,
		PageSize:     pageSize,
		Log:          log.Named("handler.expenditures"),
	}
}

// ---------- 请求结构 ----------

type expenditureReq struct {
	Name     string   `json:"name" binding:"required,min=3,max=300"`
	Category string   `json:"category" binding:"required,oneof=normal cyclical"`
	Cost     *float64 `json:"cost" binding:"required,gte=0"`
	Date     string   `json:"date" binding:"required"`
	Place    string   `json:"place" binding:"required,min=3,max=300"`
}

// bindExpenditure 绑定并校验请求体；失败时已写入 422
func bindExpenditure(c *gin.Context) (service.ExpenditureInput, bool) {
	var req expenditureReq
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c)
		return service.ExpenditureInput{}, false
	}
	date, err := util.ParseDate(req.Date)
	if err != nil {
		validationFailed(c)
		return service.ExpenditureInput{}, false
	}
	category := models.Category(req.Category)
	if !category.Valid() {
		validationFailed(c)
		return service.ExpenditureInput{}, false
	}
	// 长度按去掉首尾空白后的字符数计算
	name, place := strings.TrimSpace(req.Name), strings.TrimSpace(req.Place)
	if !textLenOK(name) || !textLenOK(place) {
		validationFailed(c)
		return service.ExpenditureInput{}, false
	}

	return service.ExpenditureInput{
		Name:     name,
		Cost:     *req.Cost,
		Date:     date,
		Place:    place,
		Category: category,
	}, true
}

func textLenOK(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 3 && n <= 300
}

// targetOwner 解析 ?user_uuid=（管理员代他人创建），默认当前用户
func targetOwner(c *gin.Context, users *service.UserService, user *models.User, log *zap.Logger) (*models.User, bool) {
	id := c.Query("user_uuid")
	if id == "" || id == user.UUID {
		return user, true
	}
	if !user.IsAdmin {
		forbidden(c)
		return nil, false
	}
	owner, err := users.FindByUUID(c.Request.Context(), id)
	if err != nil {
		Fail(c, log, err)
		return nil, false
	}
	if owner == nil {
		notFound(c, msgUserNotFound)
		return nil, false
	}
	return owner, true
}

// pathUser 解析 /users/:uuid，非管理员只能访问自己
func pathUser(c *gin.Context, users *service.UserService, user *models.User, log *zap.Logger) (*models.User, bool) {
	id := c.Param("uuid")
	if !user.IsAdmin && id != user.UUID {
		forbidden(c)
		return nil, false
	}
	if id == user.UUID {
		return user, true
	}
	owner, err := users.FindByUUID(c.Request.Context(), id)
	if err != nil {
		Fail(c, log, err)
		return nil, false
	}
	if owner == nil {
		notFound(c, msgUserNotFound)
		return nil, false
	}
	return owner, true
}

// ---------- 记一笔 ----------

func (h *ExpenditureHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	in, ok := bindExpenditure(c)
	if !ok {
		return
	}
	owner, ok := targetOwner(c, h.Users, user, h.Log)
	if !ok {
		return
	}

	e, err := h.Expenditures.Create(c.Request.Context(), in, owner.ID)
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Created(c, toExpenditureResp(e))
}

// load 按 uuid 读取并校验归属；失败时已写入响应
func (h *ExpenditureHandler) load(c *gin.Context, user *models.User) (*models.Expenditure, bool) {
	e, err := h.Expenditures.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		Fail(c, h.Log, err)
		return nil, false
	}
	if e == nil {
		notFound(c, msgExpenditureNotFound)
		return nil, false
	}
	if err := authorizeOwner(user, e.OwnerID); err != nil {
		forbidden(c)
		return nil, false
	}
	return e, true
}

func (h *ExpenditureHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	e, ok := h.load(c, user)
	if !ok {
		return
	}
	util.Success(c, toExpenditureResp(e))
}

// Update 全量替换，返回 204
func (h *ExpenditureHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	in, ok := bindExpenditure(c)
	if !ok {
		return
	}
	e, ok := h.load(c, user)
	if !ok {
		return
	}

	if _, err := h.Expenditures.Update(c.Request.Context(), e, in); err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.NoContent(c)
}

func (h *ExpenditureHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	e, ok := h.load(c, user)
	if !ok {
		return
	}

	if err := h.Expenditures.Delete(c.Request.Context(), e.UUID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c, msgExpenditureNotFound)
			return
		}
		Fail(c, h.Log, err)
		return
	}
	util.NoContent(c)
}

// List 管理员看全部，普通用户只看自己的
func (h *ExpenditureHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.list(c, ownerFilter(user))
}

// ListForUser /users/:uuid/expenditures/
func (h *ExpenditureHandler) ListForUser(c *gin.Context) {
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

func (h *ExpenditureHandler) list(c *gin.Context, ownerID uint) {
	from, to, ok := dateRange(c)
	if !ok {
		validationFailed(c)
		return
	}
	page, limit := util.PageParams(c, h.PageSize)

	list, total, err := h.Expenditures.List(c.Request.Context(), service.ExpenditureQuery{
		Page:     page,
		Limit:    limit,
		Search:   strings.TrimSpace(c.Query("search")),
		DateFrom: from,
		DateTo:   to,
		OwnerID:  ownerID,
	})
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, util.NewPage(mapSlice(list, toExpenditureResp), page, limit, total))
}
