package router

import (
	"github.com/Isild/home-budget-backend/internal/config"
	"github.com/Isild/home-budget-backend/internal/handler"
	"github.com/Isild/home-budget-backend/internal/logger"
	"github.com/Isild/home-budget-backend/internal/middleware"
	"github.com/Isild/home-budget-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles the business services the HTTP layer needs.
type Services struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Expenditures *service.ExpenditureService
	DayStats     *service.DayStatService
	Limits       *service.LimitService
}

// SetupRouter configures the Gin engine and all API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, svc Services, log *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(logger.GinLogger(log), logger.GinRecovery(log), middleware.ProcessTime())

	pageSize := cfg.App.PageSize

	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, cfg.App.Version)
	r.GET("/", systemHandler.Root)
	r.GET("/health", systemHandler.Health)

	authMW := middleware.AuthMiddleware(svc.Auth, log)
	auditMW := middleware.AuditMiddleware(db, cfg.Security.EncryptionKey, log)

	// ====== auth ======
	authHandler := handler.NewAuthHandler(svc.Auth, svc.Users, log)
	auth := r.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/change-password", authHandler.ChangePassword)
	auth.POST("/logout", authMW, authHandler.Logout)
	auth.GET("/users/me", authMW, authHandler.Me)

	// ====== v0，需要登录 ======
	v0 := r.Group("/v0")
	v0.Use(authMW, auditMW)

	userHandler := handler.NewUserHandler(svc.Users, pageSize, log)
	v0.POST("/users/", userHandler.Create)
	v0.GET("/users/", userHandler.List)
	v0.GET("/users/:uuid", userHandler.Get)
	v0.DELETE("/users/:uuid", userHandler.Delete)

	expenditureHandler := handler.NewExpenditureHandler(svc.Expenditures, svc.Users, pageSize, log)
	v0.POST("/expenditures/", expenditureHandler.Create)
	v0.GET("/expenditures/", expenditureHandler.List)
	v0.GET("/expenditures/:uuid", expenditureHandler.Get)
	v0.PUT("/expenditures/:uuid", expenditureHandler.Update)
	v0.DELETE("/expenditures/:uuid", expenditureHandler.Delete)
	v0.GET("/users/:uuid/expenditures/", expenditureHandler.ListForUser)

	exportHandler := handler.NewExportHandler(svc.Expenditures, svc.Users, log)
	v0.GET("/users/:uuid/expenditures/export", exportHandler.Export)

	dayStatHandler := handler.NewDayStatHandler(svc.DayStats, svc.Users, pageSize, log)
	v0.GET("/expenditures-day-stats/", dayStatHandler.List)
	v0.GET("/expenditures-day-stats/:uuid", dayStatHandler.Get)
	v0.GET("/users/:uuid/expenditures-day-stats/", dayStatHandler.ListForUser)
	v0.GET("/users/:uuid/expenditures-day-stats/month-limit", dayStatHandler.MonthLimit)

	limitHandler := handler.NewLimitHandler(svc.Limits, svc.Users, pageSize, log)
	v0.POST("/limits/", limitHandler.Create)
	v0.GET("/limits/", limitHandler.List)
	v0.GET("/limits/:uuid", limitHandler.Get)
	v0.PUT("/limits/:uuid", limitHandler.Update)
	v0.DELETE("/limits/:uuid", limitHandler.Delete)
	v0.GET("/users/:uuid/limits/", limitHandler.ListForUser)

	logHandler := handler.NewLogHandler(db, cfg.Security.EncryptionKey, pageSize, log)
	v0.GET("/audit-logs/", logHandler.ListLogs)

	return r
}
