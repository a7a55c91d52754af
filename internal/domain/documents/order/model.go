// Package order provides purchase orders and stock receipt on delivery.
package order

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/entity"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Status of a purchase order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Order is a purchase order placed with a supplier.
// Receiving a delivered order is what creates stock lots.
type Order struct {
	entity.Document

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Status Status `db:"status" json:"status"`

	// ExpectedDate is the promised delivery date
	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`

	// DeliveredAt is set when the order is received into stock
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`

	Items []*Item `db:"-" json:"items"`
}

// Item is one ordered product line. UnitPrice is the agreed purchase
// price; the lot created on receipt carries this price, not the
// product's catalog price at receipt time.
type Item struct {
	ID      id.ID `db:"id" json:"id"`
	OrderID id.ID `db:"order_id" json:"orderId"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
}

// NewOrder creates a pending order. Number is assigned by the service.
func NewOrder(supplierID id.ID, date time.Time) *Order {
	doc := entity.NewDocument()
	doc.Date = date
	return &Order{
		Document:   doc,
		SupplierID: supplierID,
		Status:     StatusPending,
	}
}

// AddItem appends an order line.
func (o *Order) AddItem(productID id.ID, quantity types.Quantity, unitPrice types.Money) *Item {
	item := &Item{
		ID:        id.New(),
		OrderID:   o.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	o.Items = append(o.Items, item)
	return item
}

// Validate implements entity.Validatable interface.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("order supplier is required").
			WithDetail("field", "supplierId")
	}

	if !isValidStatus(o.Status) {
		return apperror.NewValidation("invalid order status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}

	if len(o.Items) == 0 {
		return apperror.NewValidation("order must have at least one item").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("order item product is required").
				WithDetail("line", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("order item quantity must be positive").
				WithDetail("line", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("order item price cannot be negative").
				WithDetail("line", i+1)
		}
	}

	return nil
}

// Total returns the order value at agreed prices.
func (o *Order) Total() types.Money {
	total := types.ZeroMoney()
	for _, item := range o.Items {
		total = total.Add(item.Quantity.Decimal().Mul(item.UnitPrice))
	}
	return total
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}
