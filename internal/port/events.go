package port

import (
	"context"

	"github.com/warehub/stocktrack/internal/core/domain"
)

// EventLog wraps the append-only ordered-log primitive. Entries are
// immutable and the log assigns strictly increasing positions, so the
// audit trail stays totally ordered even under concurrent writers.
type EventLog interface {
	// Append writes one entry and returns its log-assigned ID.
	Append(ctx context.Context, event domain.InventoryEvent) (string, error)
}
