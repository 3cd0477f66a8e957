package util

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page 分页返回结构：{data, page, last_page, limit}
type Page[T any] struct {
	Data     []T `json:"data"`
	Page     int `json:"page"`
	LastPage int `json:"last_page"`
	Limit    int `json:"limit"`
}

// LastPage = ceil(total / limit)
func LastPage(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// NewPage builds the envelope; a nil slice is rendered as [].
func NewPage[T any](data []T, page, limit int, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:     data,
		Page:     page,
		LastPage: LastPage(total, limit),
		Limit:    limit,
	}
}

// PageParams 读取 page / limit 查询参数；非法值回退到默认值
func PageParams(c *gin.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit <= 0 || limit > 1000 {
		limit = defaultLimit
	}
	return page, limit
}

// Offset 1-indexed page -> SQL offset; saturates at math.MaxInt instead of overflowing
func Offset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
