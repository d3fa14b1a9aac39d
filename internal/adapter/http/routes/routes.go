package routes

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"homefix_orders/internal/adapter/http/middleware"
	"homefix_orders/internal/infrastructure/config"
	"homefix_orders/internal/infrastructure/logging"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Run will start the server
func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to wire the application", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(a, logger, []byte(cfg.JWTSecret)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.started", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to startup the application", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server.stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown.failed", zap.Error(err))
	}
	if err := a.shutdown(shutdownCtx); err != nil {
		logger.Error("app.shutdown.failed", zap.Error(err))
	}
}

func newRouter(a *app, logger *zap.Logger, secret []byte) *gin.Engine {
	router := gin.New()
	setMiddlewares(router, logger)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.Authenticate(secret)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addOrderRoutes(v1, auth, a.orderHandler, a.paymentHandler)
	addAdminRoutes(v1, auth, a.adminHandler)
	return router
}

func setMiddlewares(router *gin.Engine, logger *zap.Logger) {
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
}
