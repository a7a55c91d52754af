package ledger

import (
	"context"
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
)

// SearchFilter narrows a movement history query.
type SearchFilter struct {
	ProductID *id.ID
	LotID     *id.ID
	Type      *MovementType
	From      *time.Time
	To        *time.Time

	// ProductRef and LotNumber match the joined catalog fields
	ProductRef string
	LotNumber  string

	Limit  int
	Offset int
}

// Repository defines the interface for Movement persistence.
// The ledger is append-only: there is no update or delete.
type Repository interface {
	// Append inserts movements in one batch.
	Append(ctx context.Context, movements ...*Movement) error

	// GetByID retrieves a movement by ID.
	GetByID(ctx context.Context, id id.ID) (*MovementRecord, error)

	// Search retrieves movements matching the filter, newest first.
	// An empty history yields an empty page, not an error.
	Search(ctx context.Context, filter SearchFilter) (domain.ListResult[*MovementRecord], error)
}
