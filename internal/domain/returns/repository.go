package returns

import (
	"context"

	"rimshield/internal/core/id"
)

// Repository defines persistence operations for return requests.
type Repository interface {
	Create(ctx context.Context, rma *ReturnRequest) error
	GetByID(ctx context.Context, rmaID id.ID) (*ReturnRequest, error)
	List(ctx context.Context) ([]*ReturnRequest, error)

	// UpdateConditional writes the RMA only if its stored status still equals
	// expected (compare-and-swap on status). Returns an INVALID_STATE error
	// when the condition fails, so two concurrent transitions cannot both
	// succeed.
	UpdateConditional(ctx context.Context, rma *ReturnRequest, expected Status) error
}
