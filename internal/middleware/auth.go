package middleware

import (
	"net/http"
	"strings"

	"github.com/Isild/home-budget-backend/internal/handler"
	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenCookie is the cookie name checked when no Authorization header is sent.
const TokenCookie = "hb_token"

// AuthMiddleware 校验 bearer token，并在 context 里放入当前（已激活）用户。
func AuthMiddleware(auth *service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			c.Header("WWW-Authenticate", "Bearer")
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Not authenticated")
			c.Abort()
			return
		}

		user, err := auth.RequireActiveUser(c.Request.Context(), tokenStr)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			handler.Fail(c, log, err)
			c.Abort()
			return
		}

		c.Set("currentUser", user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	// 1) Header: Authorization: Bearer xxx
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// 2) URL 查询参数 ?token=xxx（用于下载导出文件等无法自定义 Header 的场景）
	if t := c.Query("token"); t != "" {
		return t
	}

	// 3) Cookie
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
