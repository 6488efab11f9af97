package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/smart-planner-api/api/swagger"
	"github.com/noah-isme/smart-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/smart-planner-api/internal/middleware"
	"github.com/noah-isme/smart-planner-api/internal/repository"
	"github.com/noah-isme/smart-planner-api/internal/service"
	"github.com/noah-isme/smart-planner-api/pkg/cache"
	"github.com/noah-isme/smart-planner-api/pkg/config"
	"github.com/noah-isme/smart-planner-api/pkg/database"
	"github.com/noah-isme/smart-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/smart-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/smart-planner-api/pkg/middleware/requestid"
)

// @title Smart Planner API
// @version 1.0.0
// @description Schedule optimization and focus block planning
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, cfg.Startup, logr)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	cacheRepo, closeCache, err := newCacheRepository(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("cache unavailable", zap.Error(err))
	}
	defer closeCache()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Optimizer.CacheTTL, logr, cfg.Cache.Enabled)

	policy, err := service.LoadRankingPolicy(cfg.Optimizer.PolicyFile)
	if err != nil {
		logr.Fatal("invalid ranking policy", zap.String("file", cfg.Optimizer.PolicyFile), zap.Error(err))
	}

	registry := service.NewModelRegistry(cfg.Optimizer.ModelDir, nil, logr)
	if err := registry.Reload(); err != nil {
		// the API still starts; /ready reports 503 until a reload succeeds
		logr.Warn("optimizer starting without a model", zap.Error(err))
	}

	validate := validator.New()
	events := repository.NewEventRepository(db)
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	optimizerSvc := service.NewOptimizerService(events, registry, policy, cacheSvc, metrics, validate, logr, service.OptimizerServiceConfig{
		WindowDays:      cfg.Optimizer.WindowDays,
		DefaultTimezone: cfg.FocusBlocks.DefaultTimezone,
	})
	focusSvc := service.NewFocusPlanService(events, metrics, validate, logr, service.FocusPlanConfig{
		FocusMinutes:    cfg.FocusBlocks.FocusMinutes,
		BreakMinutes:    cfg.FocusBlocks.BreakMinutes,
		HorizonDays:     cfg.FocusBlocks.HorizonDays,
		DefaultTimezone: cfg.FocusBlocks.DefaultTimezone,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, optimizerSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	optimizerHandler := handler.NewOptimizerHandler(optimizerSvc)
	focusHandler := handler.NewFocusBlockHandler(focusSvc)

	api := r.Group(cfg.APIPrefix, internalmiddleware.WithResponseMeta(), internalmiddleware.JWT(tokens))
	api.POST("/optimizer/suggestions", optimizerHandler.Suggest)
	api.POST("/optimizer/predict", optimizerHandler.Predict)
	api.GET("/optimizer/status", optimizerHandler.Status)
	api.POST("/optimizer/reload", optimizerHandler.Reload)
	api.GET("/focus-blocks", focusHandler.Plan)
	api.GET("/focus-blocks/export", focusHandler.Export)

	go reloadOnHangup(ctx, optimizerSvc, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "model_ready", registry.Ready())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newCacheRepository(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.CacheRepository, func(), error) {
	if !cfg.Cache.Enabled || cfg.Cache.Backend != config.CacheBackendRedis {
		return repository.NewMemoryCacheRepository(cfg.Cache.MaxEntries, cfg.Optimizer.CacheTTL, logr), func() {}, nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis, cfg.Startup, logr)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewCacheRepository(client, logr), func() { _ = client.Close() }, nil
}

// reloadOnHangup re-reads the model artifacts on SIGHUP.
func reloadOnHangup(ctx context.Context, optimizer *service.OptimizerService, logr *zap.Logger) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			if _, err := optimizer.Reload(ctx); err != nil {
				logr.Warn("model reload on SIGHUP failed", zap.Error(err))
				continue
			}
			logr.Info("model reloaded on SIGHUP")
		}
	}
}
