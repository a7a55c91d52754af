package order

import (
	"context"
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
)

// ListFilter narrows an order listing.
type ListFilter struct {
	domain.ListFilter

	Status     *Status
	SupplierID *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Repository defines the interface for Order persistence.
// Items are loaded and stored together with their order.
type Repository interface {
	// Create inserts a new order with its items.
	Create(ctx context.Context, order *Order) error

	// GetByID retrieves an order with items.
	GetByID(ctx context.Context, id id.ID) (*Order, error)

	// GetByNumber retrieves an order by document number.
	GetByNumber(ctx context.Context, number string) (*Order, error)

	// GetForUpdate retrieves an order with items under a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Order, error)

	// Update saves order header changes (status, delivery timestamps).
	// Items are immutable once the order exists.
	Update(ctx context.Context, order *Order) error

	// List retrieves orders matching the filter.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
}
