// Seeds a small sample catalog through the regular mutation path, so the
// low-stock index and event log are populated the same way live traffic
// would populate them.
package main

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/warehub/stocktrack/internal/adapter/storage"
	"github.com/warehub/stocktrack/internal/config"
	"github.com/warehub/stocktrack/internal/core/domain"
	"github.com/warehub/stocktrack/internal/core/service"
	"github.com/warehub/stocktrack/internal/logger"
)

type sampleProduct struct {
	sku      string
	quantity int64
	defaults domain.ProductDefaults
}

var samples = []sampleProduct{
	{"LAP-001", 30, domain.ProductDefaults{Name: "Gaming Laptop", MaxCapacity: 50, Threshold: 5, Shelf: "A-1", Zone: "electronics", Cost: 800, Price: 1200}},
	{"PHN-001", 60, domain.ProductDefaults{Name: "Smartphone", MaxCapacity: 100, Threshold: 15, Shelf: "A-2", Zone: "electronics", Cost: 400, Price: 699}},
	{"HD-001", 8, domain.ProductDefaults{Name: "Wireless Headphones", MaxCapacity: 75, Threshold: 10, Shelf: "A-3", Zone: "electronics", Cost: 50, Price: 99}},
	{"TB-001", 2, domain.ProductDefaults{Name: "Tablet", MaxCapacity: 30, Threshold: 3, Shelf: "A-4", Zone: "electronics", Cost: 300, Price: 499}},
	{"CH-001", 120, domain.ProductDefaults{Name: "USB-C Cable", MaxCapacity: 200, Threshold: 25, Shelf: "B-1", Zone: "accessories", Cost: 5, Price: 19}},
}

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

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		zl.Fatal("failed to connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	store := storage.NewRedisAdapter(rdb, cfg.OEE.SalesRetention, cfg.OEE.ScoreCacheTTL)
	inventory := service.NewInventoryService(store, store, store, store, zl)

	for _, s := range samples {
		result, err := inventory.AddStock(ctx, s.sku, s.quantity, s.defaults)
		if err != nil {
			zl.Fatal("seed failed", zap.String("sku", s.sku), zap.Error(err))
		}
		zl.Info("seeded product",
			zap.String("sku", s.sku),
			zap.Int64("quantity", result.NewQuantity),
			zap.Strings("warnings", result.Warnings))
	}

	zl.Info("seeding complete", zap.Int("products", len(samples)))
}
