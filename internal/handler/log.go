package handler

import (
	"strings"
	"time"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LogHandler 负责审计日志查询接口（仅管理员）
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
	PageSize   int
	Log        *zap.Logger
}

func NewLogHandler(db *gorm.DB, encryptKey string, pageSize int, log *zap.Logger) *LogHandler {
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
		PageSize:   pageSize,
		Log:        log.Named("handler.logs"),
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	UserUUID  string    `json:"user_uuid,omitempty"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs 分页列出审计日志，可按 user_uuid / method 过滤
func (h *LogHandler) ListLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !user.IsAdmin {
		forbidden(c)
		return
	}

	page, limit := util.PageParams(c, h.PageSize)

	base := h.DB.WithContext(c.Request.Context()).Model(&models.AuditLog{})
	if id := c.Query("user_uuid"); id != "" {
		base = base.Where("user_id IN (?)", h.DB.Model(&models.User{}).Select("id").Where("uuid = ?", id))
	}
	if m := strings.ToUpper(strings.TrimSpace(c.Query("method"))); m != "" {
		base = base.Where("method = ?", m)
	}

	// 统计总数
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		Fail(c, h.Log, err)
		return
	}

	var logs []models.AuditLog
	if err := base.Session(&gorm.Session{}).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(util.Offset(page, limit)).
		Find(&logs).Error; err != nil {
		Fail(c, h.Log, err)
		return
	}

	items := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		item := logResp{
			ID:        l.ID,
			Path:      util.DecryptField(h.EncryptKey, l.PathEnc),
			Action:    util.DecryptField(h.EncryptKey, l.ActionEnc),
			Method:    l.Method,
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		}
		if l.User != nil {
			item.UserUUID = l.User.UUID
		}
		items = append(items, item)
	}

	util.Success(c, util.NewPage(items, page, limit, total))
}
