package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Isild/home-budget-backend/internal/config"
	"github.com/Isild/home-budget-backend/internal/database"
	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name  string
		build func(r *http.Request)
		want  string
	}{
		{"none", func(r *http.Request) {}, ""},
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, "abc"},
		{"header case insensitive", func(r *http.Request) { r.Header.Set("Authorization", "bearer  abc ") }, "abc"},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=q" }, "q"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "c"}) }, "c"},
		{"header wins", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer h")
			r.URL.RawQuery = "token=q"
			r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "c"})
		}, "h"},
		{"basic ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic xyz") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.build(req)
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req
			assert.Equal(t, tt.want, extractToken(c))
		})
	}
}

func TestProcessTime(t *testing.T) {
	r := gin.New()
	r.Use(ProcessTime())
	r.GET("/json", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.DELETE("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/json", nil),
		httptest.NewRequest(http.MethodDelete, "/empty", nil),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NotEmpty(t, w.Header().Get("X-Process-Time"), req.URL.Path)
	}
}

func TestAuditMiddleware(t *testing.T) {
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	user := models.User{UUID: "u-1", Email: "a@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	const key = "audit-key"
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("currentUser", &user) }, AuditMiddleware(db, key, zap.NewNop()))
	r.POST("/items", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(method, body string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/items", strings.NewReader(body)))
	}
	send(http.MethodPost, `{"name":"milk"}`)
	send(http.MethodPost, `{"password":"hunter2"}`)
	send(http.MethodGet, "")

	var logs []models.AuditLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Equal(t, http.StatusCreated, logs[0].Status)
	assert.Equal(t, "/items", util.DecryptField(key, logs[0].PathEnc))
	assert.Equal(t, `POST /items {"name":"milk"}`, util.DecryptField(key, logs[0].ActionEnc))
	assert.Equal(t, "POST /items", util.DecryptField(key, logs[1].ActionEnc))
	assert.NotContains(t, logs[1].ActionEnc, "hunter2")
}
