package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/handler"
	"github.com/noah-isme/felling-licence-api/internal/repository"
	"github.com/noah-isme/felling-licence-api/internal/service"
	"github.com/noah-isme/felling-licence-api/pkg/cache"
	"github.com/noah-isme/felling-licence-api/pkg/config"
	"github.com/noah-isme/felling-licence-api/pkg/database"
	"github.com/noah-isme/felling-licence-api/pkg/linktoken"
	"github.com/noah-isme/felling-licence-api/pkg/logger"
)

// @title Felling Licence Case Management API
// @version 1.0.0
// @description Internal case management for felling licence applications
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, sub-status cache disabled", zap.Error(err))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := buildDependencies(cfg, db, redisClient, logr)
	defer deps.cacheRepo.Close() //nolint:errcheck
	deps.registers.StartExpirySweep(ctx, cfg.Consultation.ExpirySweepInterval)

	router := newRouter(cfg, deps, logr)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logr.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type dependencies struct {
	metrics   *service.MetricsService
	tokens    *service.TokenService
	cacheRepo *repository.CacheRepository
	registers *service.PublicRegisterService

	adminOfficerReviews    *handler.AdminOfficerReviewHandler
	woodlandOfficerReviews *handler.WoodlandOfficerReviewHandler
	applications           *handler.ApplicationHandler
	publicRegister         *handler.PublicRegisterHandler
	externalLinks          *handler.ExternalAccessLinkHandler
	observability          *handler.MetricsHandler
}

func buildDependencies(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *dependencies {
	validate := validator.New()
	metrics := service.NewMetricsService()

	applicationRepo := repository.NewApplicationRepository(db)
	adminReviewRepo := repository.NewAdminOfficerReviewRepository(db)
	woodlandReviewRepo := repository.NewWoodlandOfficerReviewRepository(db)
	registerRepo := repository.NewPublicRegisterRepository(db)
	linkRepo := repository.NewExternalAccessLinkRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.SubStatusCache.Prefix)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.SubStatusCache.TTL, logr, cfg.SubStatusCache.Enabled && redisClient != nil)
	snapshots := service.NewApplicationSnapshotLoader(applicationRepo, adminReviewRepo, woodlandReviewRepo, registerRepo, linkRepo, metrics)
	engine := service.NewSubStatusEngine(service.DefaultSubStatusSpecifications()...)
	subStatuses := service.NewSubStatusService(snapshots, engine, cacheSvc, cfg.SubStatusCache.TTL, metrics, logr)

	adminSvc := service.NewAdminOfficerReviewService(snapshots, adminReviewRepo, applicationRepo, subStatuses, auditRepo, metrics, validate, logr)
	woodlandSvc := service.NewWoodlandOfficerReviewService(snapshots, woodlandReviewRepo, subStatuses, auditRepo, validate, logr)
	registerSvc := service.NewPublicRegisterService(snapshots, registerRepo, subStatuses, auditRepo, cfg.Consultation.Period(), validate, logr)
	linkSvc := service.NewExternalAccessLinkService(snapshots, linkRepo, linktoken.NewSigner(cfg.ExternalLinks.Secret), subStatuses, auditRepo, cfg.ExternalLinks.TTL, validate, logr)
	withdrawalSvc := service.NewWithdrawalService(snapshots, applicationRepo, registerRepo, subStatuses, auditRepo, logr)

	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Expiry:   cfg.JWT.Expiration,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	return &dependencies{
		metrics:                metrics,
		tokens:                 tokens,
		cacheRepo:              cacheRepo,
		registers:              registerSvc,
		adminOfficerReviews:    handler.NewAdminOfficerReviewHandler(adminSvc),
		woodlandOfficerReviews: handler.NewWoodlandOfficerReviewHandler(woodlandSvc),
		applications:           handler.NewApplicationHandler(subStatuses, withdrawalSvc),
		publicRegister:         handler.NewPublicRegisterHandler(registerSvc),
		externalLinks:          handler.NewExternalAccessLinkHandler(linkSvc),
		observability:          handler.NewMetricsHandler(metrics, checks),
	}
}
