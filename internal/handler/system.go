package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemHandler 根路径与健康检查
type SystemHandler struct {
	DB      *gorm.DB
	Name    string
	Version string
}

func NewSystemHandler(db *gorm.DB, name, version string) *SystemHandler {
	return &SystemHandler{DB: db, Name: name, Version: version}
}

func (h *SystemHandler) Root(c *gin.Context) {
	util.Success(c, util.Response{
		"name":    h.Name,
		"version": h.Version,
	})
}

// Health 检查数据库连通性
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, util.Response{"status": "unavailable"})
		return
	}
	util.Success(c, util.Response{"status": "ok"})
}
