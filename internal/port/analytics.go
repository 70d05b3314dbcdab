package port

import (
	"context"
	"time"

	"github.com/warehub/stocktrack/internal/core/domain"
)

// SalesRepository tracks units sold per SKU per hour bucket. Buckets expire
// after a bounded retention window; an absent bucket means zero sales.
type SalesRepository interface {
	RecordSale(ctx context.Context, sku string, quantity int64, at time.Time) error
	SalesForHour(ctx context.Context, sku string, at time.Time) (int64, error)
}

// ScoreCache briefly caches computed efficiency scores. Get returns
// (nil, nil) on a miss.
type ScoreCache interface {
	Get(ctx context.Context, sku string) (*domain.EfficiencyScore, error)
	Set(ctx context.Context, score domain.EfficiencyScore) error
}

// Pinger reports whether the storage engine is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
