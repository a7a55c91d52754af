package exitslip

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
)

// ListFilter narrows an exit slip listing.
type ListFilter struct {
	domain.ListFilter

	Status      *Status
	Destination string
}

// Repository defines the interface for ExitSlip persistence.
// Items are loaded and stored together with their slip.
type Repository interface {
	// Create inserts a new slip with its items.
	Create(ctx context.Context, slip *ExitSlip) error

	// GetByID retrieves a slip with items.
	GetByID(ctx context.Context, id id.ID) (*ExitSlip, error)

	// GetByNumber retrieves a slip by document number.
	GetByNumber(ctx context.Context, number string) (*ExitSlip, error)

	// GetForUpdate retrieves a slip with items under a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*ExitSlip, error)

	// Update saves slip header changes and item actual quantities.
	Update(ctx context.Context, slip *ExitSlip) error

	// List retrieves slips matching the filter.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ExitSlip], error)
}
