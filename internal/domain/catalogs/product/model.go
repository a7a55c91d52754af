// Package product provides the Product catalog.
// A product is anything tracked in stock by FIFO lots.
package product

import (
	"context"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/entity"
	"lotledger/internal/core/types"
)

// Category groups products for reporting.
type Category string

const (
	CategoryRawMaterial Category = "raw_material"
	CategoryComponent   Category = "component"
	CategoryFinished    Category = "finished"
	CategoryConsumable  Category = "consumable"
)

// Product represents a stock-tracked item.
// Code (entity.Catalog) is the unique product reference.
type Product struct {
	entity.Catalog

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`

	// Category groups the product for reporting
	Category Category `db:"category" json:"category"`

	// MeasureUnit is the unit items are counted in (e.g. "pcs", "kg")
	MeasureUnit string `db:"measure_unit" json:"measureUnit"`

	// UnitPrice is the current catalog price. Lots carry their own
	// acquisition price; this one is only a default for new orders.
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// ReorderPoint triggers the low-stock replenishment check
	ReorderPoint types.Quantity `db:"reorder_point" json:"reorderPoint"`

	// CurrentStock is a cached total of lot available quantities.
	// It is maintained inside the same transaction as every lot change
	// and must always equal the sum over the product's lots.
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(reference, name string, category Category) *Product {
	return &Product{
		Catalog:     entity.NewCatalog(reference, name),
		Category:    category,
		MeasureUnit: "pcs",
		UnitPrice:   types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		return apperror.NewValidation("product reference is required").
			WithDetail("field", "reference")
	}

	if !isValidCategory(p.Category) {
		return apperror.NewValidation("invalid product category").
			WithDetail("field", "category").
			WithDetail("value", string(p.Category))
	}

	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	if p.ReorderPoint.IsNegative() {
		return apperror.NewValidation("reorder point cannot be negative").
			WithDetail("field", "reorderPoint")
	}

	if p.CurrentStock.IsNegative() {
		return apperror.NewValidation("current stock cannot be negative").
			WithDetail("field", "currentStock")
	}

	return nil
}

// IsLowStock returns true if stock is at or below the reorder point.
func (p *Product) IsLowStock() bool {
	return !p.ReorderPoint.IsZero() && p.CurrentStock <= p.ReorderPoint
}

func isValidCategory(c Category) bool {
	switch c {
	case CategoryRawMaterial, CategoryComponent, CategoryFinished, CategoryConsumable:
		return true
	}
	return false
}
