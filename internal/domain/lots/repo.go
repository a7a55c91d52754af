package lots

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
)

// Repository defines the interface for Lot persistence.
type Repository interface {
	// Create inserts a new lot.
	Create(ctx context.Context, lot *Lot) error

	// GetByID retrieves a lot by ID.
	GetByID(ctx context.Context, id id.ID) (*Lot, error)

	// GetByNumber retrieves a lot by lot number.
	GetByNumber(ctx context.Context, lotNumber string) (*Lot, error)

	// AvailableForProduct retrieves the product's open lots in FIFO
	// order (entry date, then insertion order) with row locks. The
	// caller must hold a transaction; the locked set is the frozen
	// view a withdrawal allocates against.
	AvailableForProduct(ctx context.Context, productID id.ID) ([]*Lot, error)

	// ListForProduct retrieves all lots of a product, open and
	// exhausted, in FIFO order. No locks.
	ListForProduct(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*Lot], error)

	// Reduce decreases a lot's available quantity by amount.
	// Fails if amount is not positive or exceeds what is available.
	Reduce(ctx context.Context, id id.ID, amount types.Quantity) error

	// SnapshotForProduct retrieves the product's open lots in FIFO
	// order without locks, for read-only valuation.
	SnapshotForProduct(ctx context.Context, productID id.ID) ([]*Lot, error)

	// AllOpen retrieves every lot with stock remaining, across all
	// products, in FIFO order.
	AllOpen(ctx context.Context) ([]*Lot, error)

	// TotalAvailable sums available quantity over the product's lots.
	TotalAvailable(ctx context.Context, productID id.ID) (types.Quantity, error)
}
