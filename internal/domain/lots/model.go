// Package lots tracks stock by acquisition lot and allocates
// withdrawals in FIFO order.
package lots

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Lot is a batch of stock received at one price on one date.
//
// Quantity and UnitPrice never change after creation. AvailableQuantity
// only decreases as withdrawals consume the lot; an exhausted lot stays
// in history with AvailableQuantity zero.
type Lot struct {
	ID id.ID `db:"id" json:"id"`

	// LotNumber is the human-readable identifier (LOT-2026-001)
	LotNumber string `db:"lot_number" json:"lotNumber"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// OrderID references the purchase order the lot came from, if any
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	// Quantity originally received
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// AvailableQuantity remaining for withdrawal
	AvailableQuantity types.Quantity `db:"available_quantity" json:"availableQuantity"`

	// UnitPrice paid on acquisition, fixed for the life of the lot
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// EntryDate orders lots for FIFO. Ties break on insertion order.
	EntryDate time.Time `db:"entry_date" json:"entryDate"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewLot creates a fully available lot.
func NewLot(lotNumber string, productID id.ID, quantity types.Quantity, unitPrice types.Money, entryDate time.Time) *Lot {
	return &Lot{
		ID:                id.New(),
		LotNumber:         lotNumber,
		ProductID:         productID,
		Quantity:          quantity,
		AvailableQuantity: quantity,
		UnitPrice:         unitPrice,
		EntryDate:         entryDate,
		CreatedAt:         time.Now(),
	}
}

// Validate checks lot invariants.
func (l *Lot) Validate(ctx context.Context) error {
	if l.LotNumber == "" {
		return apperror.NewValidation("lot number is required").
			WithDetail("field", "lotNumber")
	}
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation("lot product is required").
			WithDetail("field", "productId")
	}
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("lot quantity must be positive").
			WithDetail("field", "quantity")
	}
	if l.AvailableQuantity.IsNegative() || l.AvailableQuantity > l.Quantity {
		return apperror.NewValidation("available quantity must be between zero and lot quantity").
			WithDetail("field", "availableQuantity")
	}
	if l.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	if l.EntryDate.IsZero() {
		return apperror.NewValidation("entry date is required").
			WithDetail("field", "entryDate")
	}
	return nil
}

// IsExhausted returns true when nothing is left to withdraw.
func (l *Lot) IsExhausted() bool {
	return l.AvailableQuantity.IsZero()
}

// Value returns the current value of the lot remainder.
func (l *Lot) Value() types.Money {
	return l.AvailableQuantity.Decimal().Mul(l.UnitPrice)
}
