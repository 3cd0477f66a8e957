package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Isild/home-budget-backend/internal/config"
	"github.com/Isild/home-budget-backend/internal/database"
	"github.com/Isild/home-budget-backend/internal/jobs"
	"github.com/Isild/home-budget-backend/internal/logger"
	"github.com/Isild/home-budget-backend/internal/router"
	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./config.yaml when present)")
	flag.Parse()

	// load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close(db)

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	signer, err := util.NewTokenSigner(cfg.JWT.Secret, cfg.JWT.Algorithm, time.Duration(cfg.JWT.ExpireMinutes)*time.Minute)
	if err != nil {
		return fmt.Errorf("init token signer: %w", err)
	}

	authSvc := service.NewAuthService(db, signer, cfg.Security.BcryptCost, cfg.JWT.SingleSession, zl)
	userSvc := service.NewUserService(db, authSvc, service.NewLogMailer(zl), zl)
	dayStatSvc := service.NewDayStatService(db, zl)

	dispatcher, err := jobs.New(cfg.Jobs, dayStatSvc.HandleJob, zl)
	if err != nil {
		return fmt.Errorf("init jobs: %w", err)
	}
	// 关闭时排空队列
	defer func() {
		if err := dispatcher.Close(); err != nil {
			zl.Warn("close jobs", zap.Error(err))
		}
	}()

	svc := router.Services{
		Auth:         authSvc,
		Users:        userSvc,
		Expenditures: service.NewExpenditureService(db, dispatcher, zl),
		DayStats:     dayStatSvc,
		Limits:       service.NewLimitService(db, zl),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler:           router.SetupRouter(cfg, db, svc, zl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})

	// AMQP 后端：同一进程内消费队列
	if consumer, ok := dispatcher.(*jobs.AMQPClient); ok {
		g.Go(func() error {
			return consumer.Consume(gctx, dayStatSvc.HandleJob)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
