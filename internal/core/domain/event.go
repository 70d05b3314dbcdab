package domain

import (
	"fmt"
	"time"
)

const (
	ActionAddStock = "ADD_STOCK"

	// ReasonSale is the removal reason that also feeds the sales aggregate.
	ReasonSale = "SALE"
)

// RemoveAction builds the event action for a stock removal,
// e.g. REMOVE_STOCK_SALE or REMOVE_STOCK_DAMAGE.
func RemoveAction(reason string) string {
	return fmt.Sprintf("REMOVE_STOCK_%s", reason)
}

// InventoryEvent is one immutable entry in the audit trail. The event log
// assigns ID and ordering on append; callers never supply them.
type InventoryEvent struct {
	ID        string    `json:"id,omitempty"`
	SKU       string    `json:"sku"`
	Action    string    `json:"action"`
	Quantity  int64     `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
