package port

import (
	"context"

	"github.com/warehub/stocktrack/internal/core/domain"
)

// InventoryRepository wraps the hash-map primitive of the storage engine.
// The quantity delta inside AddStock/RemoveStock is atomic: two concurrent
// mutations on the same SKU both apply and never lose an update.
type InventoryRepository interface {
	// AddStock creates the record with defaults if absent, then atomically
	// increments the quantity. Returns the post-mutation stock level.
	AddStock(ctx context.Context, sku string, quantity int64, defaults domain.ProductDefaults) (domain.StockLevel, error)

	// RemoveStock atomically decrements the quantity. Returns
	// domain.ErrProductNotFound for an unknown SKU and
	// domain.ErrInsufficientStock when the decrement would go negative;
	// in both cases the record is unchanged.
	RemoveStock(ctx context.Context, sku string, quantity int64) (domain.StockLevel, error)

	// GetProduct returns domain.ErrProductNotFound for an unknown SKU.
	GetProduct(ctx context.Context, sku string) (*domain.Product, error)

	// ListProducts returns all records in unspecified order.
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// LowStockIndex wraps the sorted-set primitive holding the derived
// low-stock membership, scored by negated quantity.
type LowStockIndex interface {
	// Update re-derives the SKU's membership from its post-mutation state:
	// upsert when quantity <= threshold, remove otherwise.
	Update(ctx context.Context, sku string, quantity, threshold int64) error

	// Range returns up to limit members, most depleted first.
	Range(ctx context.Context, limit int64) ([]string, error)
}
