package product

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetForUpdate retrieves a product with a row lock.
	// Stock changes always lock the product row first, so concurrent
	// receipts and validations for one product are serialized.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// AdjustStock applies a signed delta to the cached current stock.
	AdjustStock(ctx context.Context, id id.ID, delta types.Quantity) error

	// FindLowStock retrieves products with stock at or below reorder point.
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}
