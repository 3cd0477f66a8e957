package handler

import (
	"net/http"
	"strings"

	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 负责登录/注册相关接口
type AuthHandler struct {
	Auth  *service.AuthService
	Users *service.UserService
	Log   *zap.Logger
}

// NewAuthHandler 构造函数
func NewAuthHandler(auth *service.AuthService, users *service.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Users: users, Log: log.Named("handler.auth")}
}

// ---------- 登录 ----------

// OAuth2 password 表单：username 即邮箱
type loginReq struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBind(&req); err != nil {
		validationFailed(c)
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	if _, err := h.Auth.Authenticate(user, req.Password); err != nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Incorrect username or password")
		return
	}

	token, err := h.Auth.IssueToken(c.Request.Context(), user)
	if err != nil {
		Fail(c, h.Log, err)
		return
	}

	util.Success(c, util.Response{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Logout 删除当前用户的 token
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Auth.Revoke(c.Request.Context(), user); err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{"message": "Successfully logged out."})
}

// ---------- 注册 ----------

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c)
		return
	}

	if _, err := h.Users.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		Fail(c, h.Log, err)
		return
	}

	util.Created(c, util.Response{
		"message": "Account has been successfully created, please check your email and confirm your registration.",
	})
}

// ResetPassword 发送重置密码邮件（?email=）
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		validationFailed(c)
		return
	}
	if err := h.Users.SendPasswordReset(c.Request.Context(), email); err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{
		"message": "Email with link to reset password was sent, please check your email.",
	})
}

// ---------- 修改密码 ----------

type changePasswordReq struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=1"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c)
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		Fail(c, h.Log, err)
		return
	}
	// 校验旧密码
	if _, err := h.Auth.Authenticate(user, req.Password); err != nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Incorrect username or password")
		return
	}

	if err := h.Users.ChangePassword(c.Request.Context(), user, req.NewPassword); err != nil {
		Fail(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{"message": "Password has been successfully changed."})
}

// Me 返回当前登录用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.Success(c, toUserResp(user))
}
