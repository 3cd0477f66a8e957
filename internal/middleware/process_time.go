package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ProcessTime 在响应头 X-Process-Time 中写入处理耗时（秒）
func ProcessTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 响应头必须在写出之前设置，所以包一层 writer
		c.Writer = &headerTimer{ResponseWriter: c.Writer, start: time.Now()}
		c.Next()
	}
}

// headerTimer 在第一次写出响应头时填入耗时
type headerTimer struct {
	gin.ResponseWriter
	start   time.Time
	written bool
}

func (w *headerTimer) stamp() {
	if w.written {
		return
	}
	w.written = true
	w.Header().Set("X-Process-Time", strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', 6, 64))
}

func (w *headerTimer) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerTimer) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *headerTimer) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *headerTimer) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}
