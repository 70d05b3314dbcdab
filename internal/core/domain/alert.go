package domain

import "time"

const (
	AlertTypeLowStock = "LOW_STOCK"
	AlertTypeLowOEE   = "LOW_OEE"
)

// Alert is an operator-facing notification derived from current state.
type Alert struct {
	Type        string    `json:"type"`
	SKU         string    `json:"sku"`
	ProductName string    `json:"productName"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"`
	CurrentQty  int64     `json:"currentQty,omitempty"`
	Threshold   int64     `json:"threshold,omitempty"`
	OEE         float64   `json:"oee,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// StockSeverity classifies how depleted a SKU is relative to its threshold.
func StockSeverity(quantity, threshold int64) string {
	if threshold <= 0 {
		return SeverityCritical
	}
	ratio := float64(quantity) / float64(threshold)
	switch {
	case ratio <= 0.5:
		return SeverityCritical
	case ratio <= 0.8:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}
