package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 超过该长度的请求体不写入审计日志
const maxAuditBody = 2000

// AuditMiddleware 记录已登录用户的写操作（POST/PUT/PATCH/DELETE），path 和 action 加密存储
func AuditMiddleware(db *gorm.DB, encryptKey string, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("audit")
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		// 读取请求体
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		// 执行请求
		c.Next()

		// 只记录登录用户的操作
		v, ok := c.Get("currentUser")
		if !ok {
			return
		}
		user, ok := v.(*models.User)
		if !ok || user == nil {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(bodyBytes) > 0 && len(bodyBytes) < maxAuditBody && !bytes.Contains(bodyBytes, []byte("password")) {
			action += " " + string(bodyBytes)
		}

		encPath, err := util.EncryptField(encryptKey, path)
		if err != nil {
			log.Warn("encrypt audit path", zap.Error(err))
			return
		}
		encAction, err := util.EncryptField(encryptKey, action)
		if err != nil {
			log.Warn("encrypt audit action", zap.Error(err))
			return
		}

		userID := user.ID
		entry := models.AuditLog{
			UserID:    &userID,
			Method:    c.Request.Method,
			PathEnc:   encPath,
			ActionEnc: encAction,
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
			log.Warn("write audit log", zap.Error(err))
		}
	}
}
