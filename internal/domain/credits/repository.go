package credits

import (
	"context"

	"rimshield/internal/core/id"
)

// Repository defines persistence operations for credit notes.
type Repository interface {
	Create(ctx context.Context, note *CreditNote) error
	GetByID(ctx context.Context, creditID id.ID) (*CreditNote, error)
	List(ctx context.Context) ([]*CreditNote, error)

	// UpdateSync persists the bookkeeping sync outcome onto the note.
	UpdateSync(ctx context.Context, creditID id.ID, sync *SyncState) error
}
