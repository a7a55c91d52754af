package dto

import (
	"lotledger/internal/core/types"
	"lotledger/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Reference    string           `json:"reference" binding:"required"`
	Name         string           `json:"name" binding:"required"`
	Category     product.Category `json:"category" binding:"required"`
	Description  *string          `json:"description"`
	MeasureUnit  string           `json:"measureUnit"`
	UnitPrice    types.Money      `json:"unitPrice"`
	ReorderPoint types.Quantity   `json:"reorderPoint"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	item := product.NewProduct(r.Reference, r.Name, r.Category)
	item.Description = r.Description
	if r.MeasureUnit != "" {
		item.MeasureUnit = r.MeasureUnit
	}
	item.UnitPrice = r.UnitPrice
	item.ReorderPoint = r.ReorderPoint
	return item
}

// UpdateProductRequest is the request body for updating a product.
// Current stock is never writable through the API; it moves only with
// order receipts and exit slip validations.
type UpdateProductRequest struct {
	Reference    string           `json:"reference" binding:"required"`
	Name         string           `json:"name" binding:"required"`
	Category     product.Category `json:"category" binding:"required"`
	Description  *string          `json:"description"`
	MeasureUnit  string           `json:"measureUnit"`
	UnitPrice    types.Money      `json:"unitPrice"`
	ReorderPoint types.Quantity   `json:"reorderPoint"`
	Version      int              `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(item *product.Product) {
	item.Code = r.Reference
	item.Name = r.Name
	item.Category = r.Category
	item.Description = r.Description
	if r.MeasureUnit != "" {
		item.MeasureUnit = r.MeasureUnit
	}
	item.UnitPrice = r.UnitPrice
	item.ReorderPoint = r.ReorderPoint
	item.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID           string           `json:"id"`
	Reference    string           `json:"reference"`
	Name         string           `json:"name"`
	Category     product.Category `json:"category"`
	Description  *string          `json:"description,omitempty"`
	MeasureUnit  string           `json:"measureUnit"`
	UnitPrice    types.Money      `json:"unitPrice"`
	ReorderPoint types.Quantity   `json:"reorderPoint"`
	CurrentStock types.Quantity   `json:"currentStock"`
	LowStock     bool             `json:"lowStock"`
	DeletionMark bool             `json:"deletionMark"`
	Version      int              `json:"version"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(item *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:           item.ID.String(),
		Reference:    item.Code,
		Name:         item.Name,
		Category:     item.Category,
		Description:  item.Description,
		MeasureUnit:  item.MeasureUnit,
		UnitPrice:    item.UnitPrice,
		ReorderPoint: item.ReorderPoint,
		CurrentStock: item.CurrentStock,
		LowStock:     item.IsLowStock(),
		DeletionMark: item.DeletionMark,
		Version:      item.Version,
	}
}
