package util

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期格式 YYYY-MM-DD
const DateLayout = "2006-01-02"

// ParseDate 解析 YYYY-MM-DD，返回 UTC 零点
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t.UTC(), nil
}

// ParseOptionalDate 空字符串返回 nil
func ParseOptionalDate(dateStr string) (*time.Time, error) {
	if dateStr == "" {
		return nil, nil
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TruncateDay 把时间截断为当天 UTC 零点
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateMonth 月份必须在 1-12
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	return nil
}

// likeEscaper 转义 LIKE 通配符，配合 ESCAPE '\' 使用
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern 返回匹配子串的 LIKE 模式（%term%），term 中的 % _ \ 按字面匹配
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
