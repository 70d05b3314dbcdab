package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/warehub/stocktrack/internal/adapter/handler"
	"github.com/warehub/stocktrack/internal/adapter/storage"
	"github.com/warehub/stocktrack/internal/config"
	"github.com/warehub/stocktrack/internal/core/service"
	"github.com/warehub/stocktrack/internal/logger"
	"github.com/warehub/stocktrack/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	// Initialize Redis. Operation timeouts on the client ensure storage
	// failures surface as errors instead of hanging requests.
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		zl.Fatal("failed to connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	cancel()
	zl.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	store := storage.NewRedisAdapter(rdb, cfg.OEE.SalesRetention, cfg.OEE.ScoreCacheTTL)

	inventorySvc := service.NewInventoryService(store, store, store, store, zl)
	oeeSvc := service.NewOEEService(store, store, store,
		service.StaticQuality{Value: cfg.OEE.Quality}, cfg.OEE.ExpectedHourlySales, zl)
	alertSvc := service.NewAlertService(inventorySvc, oeeSvc, zl)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(handler.RequestID())
	e.Use(handler.RequestLogger(zl))
	e.Use(metrics.Middleware())

	httpHandler := handler.NewHTTPHandler(inventorySvc, oeeSvc, alertSvc, store)
	httpHandler.Register(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zl.Info("http server listening", zap.String("port", cfg.Server.Port))
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			zl.Error("http server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown error", zap.Error(err))
	}
	zl.Info("http server stopped")

	if err := rdb.Close(); err != nil {
		zl.Error("redis close error", zap.Error(err))
	}
	zl.Info("connections closed")
}
