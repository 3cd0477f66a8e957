package handler

import (
	"errors"

	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 用户管理（管理员）
type UserHandler struct {
	Users    *service.UserService
	PageSize int
	Log      *zap.Logger
}

func NewUserHandler(users *service.UserService, pageSize int, log *zap.Logger) *UserHandler {
	return &UserHandler{Users: users, PageSize: pageSize, Log: log.Named("handler.users")}
}

type createUserReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive *bool  `json:"is_active"`
}

func (h *UserHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !user.IsAdmin {
		forbidden(c)
		return
	}

	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	created, err := h.Users.Create(c.Request.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
		IsActive: active,
	})
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Created(c, toUserResp(created))
}

func (h *UserHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !user.IsAdmin {
		forbidden(c)
		return
	}

	page, limit := util.PageParams(c, h.PageSize)
	users, total, err := h.Users.List(c.Request.Context(), service.ListUsersQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
	})
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, util.NewPage(mapSlice(users, toUserResp), page, limit, total))
}

// Get 管理员或本人
func (h *UserHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id := c.Param("uuid")
	if !user.IsAdmin && user.UUID != id {
		forbidden(c)
		return
	}

	target, err := h.Users.FindByUUID(c.Request.Context(), id)
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	if target == nil {
		notFound(c, msgUserNotFound)
		return
	}
	util.Success(c, toUserResp(target))
}

func (h *UserHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !user.IsAdmin {
		forbidden(c)
		return
	}

	if err := h.Users.Delete(c.Request.Context(), c.Param("uuid")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c, msgUserNotFound)
			return
		}
		Fail(c, h.Log, err)
		return
	}
	util.NoContent(c)
}
