package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/warehub/stocktrack/internal/core/domain"
)

// maxLowStockAlerts bounds how many index entries one alert sweep reads.
const maxLowStockAlerts int64 = 10

// AlertService assembles operator alerts from the low-stock index and the
// efficiency scores. It is a pure consumer of the other services.
type AlertService struct {
	inventory *InventoryService
	oee       *OEEService
	log       *zap.Logger
}

func NewAlertService(inventory *InventoryService, oee *OEEService, log *zap.Logger) *AlertService {
	return &AlertService{inventory: inventory, oee: oee, log: log}
}

// All returns current LOW_STOCK and LOW_OEE alerts, newest first.
func (s *AlertService) All(ctx context.Context) ([]domain.Alert, error) {
	now := time.Now().UTC()
	alerts := []domain.Alert{}

	lowStock, err := s.inventory.ListLowStock(ctx, maxLowStockAlerts)
	if err != nil {
		return nil, fmt.Errorf("low-stock alerts: %w", err)
	}
	for _, p := range lowStock {
		alerts = append(alerts, domain.Alert{
			Type:        domain.AlertTypeLowStock,
			SKU:         p.SKU,
			ProductName: p.Name,
			CurrentQty:  p.Quantity,
			Threshold:   p.Threshold,
			Severity:    domain.StockSeverity(p.Quantity, p.Threshold),
			Message:     fmt.Sprintf("%s stock is low (%d/%d)", p.Name, p.Quantity, p.Threshold),
			Timestamp:   now,
		})
	}

	scored, err := s.oee.ScoreAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("oee alerts: %w", err)
	}
	for _, sp := range scored {
		severity := domain.ScoreSeverity(sp.OEE.Overall)
		if severity == "" {
			continue
		}
		alerts = append(alerts, domain.Alert{
			Type:        domain.AlertTypeLowOEE,
			SKU:         sp.Product.SKU,
			ProductName: sp.Product.Name,
			OEE:         sp.OEE.Overall,
			Severity:    severity,
			Message:     fmt.Sprintf("%s has low OEE (%.2f%%)", sp.Product.Name, sp.OEE.Overall),
			Timestamp:   now,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
	return alerts, nil
}
