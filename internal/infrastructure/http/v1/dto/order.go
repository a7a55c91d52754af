package dto

import (
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/documents/order"
)

// CreateOrderItemRequest is one purchase order line.
type CreateOrderItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// CreateOrderRequest is the request body for creating a purchase order.
type CreateOrderRequest struct {
	SupplierID   string                   `json:"supplierId" binding:"required"`
	Date         *time.Time               `json:"date"`
	ExpectedDate *time.Time               `json:"expectedDate"`
	Comment      string                   `json:"comment"`
	Items        []CreateOrderItemRequest `json:"items" binding:"required,min=1"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateOrderRequest) ToEntity() (*order.Order, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, err
	}

	date := time.Now().UTC()
	if r.Date != nil {
		date = *r.Date
	}

	ord := order.NewOrder(supplierID, date)
	ord.ExpectedDate = r.ExpectedDate
	ord.Comment = r.Comment

	for _, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return nil, err
		}
		ord.AddItem(productID, item.Quantity, item.UnitPrice)
	}

	return ord, nil
}

// OrderItemResponse is one purchase order line.
type OrderItemResponse struct {
	ID        string         `json:"id"`
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// OrderResponse is the response body for a purchase order.
type OrderResponse struct {
	ID           string              `json:"id"`
	Number       string              `json:"number"`
	Date         time.Time           `json:"date"`
	SupplierID   string              `json:"supplierId"`
	Status       order.Status        `json:"status"`
	ExpectedDate *time.Time          `json:"expectedDate,omitempty"`
	DeliveredAt  *time.Time          `json:"deliveredAt,omitempty"`
	Comment      string              `json:"comment,omitempty"`
	Items        []OrderItemResponse `json:"items"`
	Total        types.Money         `json:"total"`
	CreatedBy    string              `json:"createdBy,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Version      int                 `json:"version"`
}

// FromOrder creates response DTO from domain entity.
func FromOrder(ord *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(ord.Items))
	for i, item := range ord.Items {
		items[i] = OrderItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	return &OrderResponse{
		ID:           ord.ID.String(),
		Number:       ord.Number,
		Date:         ord.Date,
		SupplierID:   ord.SupplierID.String(),
		Status:       ord.Status,
		ExpectedDate: ord.ExpectedDate,
		DeliveredAt:  ord.DeliveredAt,
		Comment:      ord.Comment,
		Items:        items,
		Total:        ord.Total(),
		CreatedBy:    ord.CreatedBy,
		CreatedAt:    ord.CreatedAt,
		UpdatedAt:    ord.UpdatedAt,
		Version:      ord.Version,
	}
}
