package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warehub/stocktrack/internal/core/domain"
	"github.com/warehub/stocktrack/internal/metrics"
	"github.com/warehub/stocktrack/internal/port"
)

const (
	// Warnings carried on a successful mutation whose side effects
	// degraded. The mutation itself is never rolled back for these.
	WarnIndexUpdateFailed = "low-stock index update failed"
	WarnEventAppendFailed = "event append failed"
	WarnSalesRecordFailed = "sales aggregate update failed"

	DefaultLowStockLimit int64 = 10
)

// StockResult reports a successful mutation. Warnings list the degraded
// best-effort side effects, if any.
type StockResult struct {
	SKU         string   `json:"sku"`
	NewQuantity int64    `json:"newQuantity"`
	Warnings    []string `json:"warnings,omitempty"`
}

// InventoryService owns the state-update protocol: atomic quantity delta
// first, then low-stock index re-derivation and audit event append in the
// same logical request. Only the delta can fail the operation.
type InventoryService struct {
	repo   port.InventoryRepository
	index  port.LowStockIndex
	events port.EventLog
	sales  port.SalesRepository
	log    *zap.Logger
}

func NewInventoryService(
	repo port.InventoryRepository,
	index port.LowStockIndex,
	events port.EventLog,
	sales port.SalesRepository,
	log *zap.Logger,
) *InventoryService {
	return &InventoryService{
		repo:   repo,
		index:  index,
		events: events,
		sales:  sales,
		log:    log,
	}
}

// AddStock increments the SKU's quantity, creating the record with
// defaults on first sight.
func (s *InventoryService) AddStock(ctx context.Context, sku string, quantity int64, defaults domain.ProductDefaults) (*StockResult, error) {
	if quantity <= 0 {
		metrics.StockOperations.WithLabelValues("add", "rejected").Inc()
		return nil, domain.ErrInvalidQuantity
	}

	level, err := s.repo.AddStock(ctx, sku, quantity, defaults)
	if err != nil {
		metrics.StockOperations.WithLabelValues("add", "error").Inc()
		return nil, fmt.Errorf("add stock %s: %w", sku, err)
	}
	metrics.StockOperations.WithLabelValues("add", "ok").Inc()

	result := &StockResult{SKU: sku, NewQuantity: level.Quantity}
	result.Warnings = s.finishMutation(ctx, sku, domain.ActionAddStock, quantity, level)
	return result, nil
}

// RemoveStock decrements the SKU's quantity, never below zero. A SALE
// removal also feeds the hourly sales aggregate.
func (s *InventoryService) RemoveStock(ctx context.Context, sku string, quantity int64, reason string) (*StockResult, error) {
	if quantity <= 0 {
		metrics.StockOperations.WithLabelValues("remove", "rejected").Inc()
		return nil, domain.ErrInvalidQuantity
	}
	if reason == "" {
		reason = domain.ReasonSale
	}

	level, err := s.repo.RemoveStock(ctx, sku, quantity)
	if err != nil {
		metrics.StockOperations.WithLabelValues("remove", "error").Inc()
		return nil, fmt.Errorf("remove stock %s: %w", sku, err)
	}
	metrics.StockOperations.WithLabelValues("remove", "ok").Inc()

	result := &StockResult{SKU: sku, NewQuantity: level.Quantity}
	result.Warnings = s.finishMutation(ctx, sku, domain.RemoveAction(reason), quantity, level)

	if reason == domain.ReasonSale {
		if err := s.sales.RecordSale(ctx, sku, quantity, time.Now().UTC()); err != nil {
			metrics.SalesRecordFailures.Inc()
			s.log.Warn("sales aggregate update failed", zap.String("sku", sku), zap.Error(err))
			result.Warnings = append(result.Warnings, WarnSalesRecordFailed)
		}
	}

	return result, nil
}

func (s *InventoryService) GetProduct(ctx context.Context, sku string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, sku)
}

func (s *InventoryService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// ListLowStock returns up to limit records, most depleted first. A SKU
// present in the index but missing from the store is skipped: the index
// is a derived cache and may briefly trail the records.
func (s *InventoryService) ListLowStock(ctx context.Context, limit int64) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultLowStockLimit
	}

	skus, err := s.index.Range(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("low-stock range: %w", err)
	}

	products := make([]domain.Product, 0, len(skus))
	for _, sku := range skus {
		p, err := s.repo.GetProduct(ctx, sku)
		if errors.Is(err, domain.ErrProductNotFound) {
			s.log.Warn("low-stock index entry has no record", zap.String("sku", sku))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("hydrate low-stock %s: %w", sku, err)
		}
		products = append(products, *p)
	}
	return products, nil
}

// finishMutation runs the best-effort tail of the protocol: index
// re-derivation and audit append. Failures are logged, counted, and
// surfaced as warnings, never as errors.
func (s *InventoryService) finishMutation(ctx context.Context, sku, action string, quantity int64, level domain.StockLevel) []string {
	var warnings []string

	if err := s.index.Update(ctx, sku, level.Quantity, level.Threshold); err != nil {
		metrics.IndexMaintenanceFailures.Inc()
		s.log.Warn("low-stock index update failed",
			zap.String("sku", sku),
			zap.Int64("quantity", level.Quantity),
			zap.Error(err))
		warnings = append(warnings, WarnIndexUpdateFailed)
	}

	event := domain.InventoryEvent{
		SKU:       sku,
		Action:    action,
		Quantity:  quantity,
		Timestamp: time.Now().UTC(),
		RequestID: requestIDFrom(ctx),
	}
	if _, err := s.events.Append(ctx, event); err != nil {
		metrics.EventAppendFailures.Inc()
		s.log.Warn("event append failed",
			zap.String("sku", sku),
			zap.String("action", action),
			zap.Error(err))
		warnings = append(warnings, WarnEventAppendFailed)
	}

	metrics.InventoryLevel.WithLabelValues(sku).Set(float64(level.Quantity))

	return warnings
}
