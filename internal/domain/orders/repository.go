package orders

import (
	"context"

	"rimshield/internal/core/id"
)

// Repository defines read and sync-state operations for orders.
type Repository interface {
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// UpdateSync persists the bookkeeping sync outcome onto the order.
	UpdateSync(ctx context.Context, orderID id.ID, sync *SyncState) error
}
