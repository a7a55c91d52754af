// Package ledger keeps the append-only history of stock movements.
package ledger

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// MovementType marks the direction of a movement.
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// Movement is one immutable entry of the stock history.
//
// Quantity is signed: positive for receipts, negative for withdrawals,
// so any slice of movements sums to the net stock change.
type Movement struct {
	ID id.ID `db:"id" json:"id"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// LotID is the lot the movement touched
	LotID id.ID `db:"lot_id" json:"lotId"`

	Type MovementType `db:"type" json:"type"`

	// Quantity signed by direction
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Reference is the number of the document that caused the movement
	// (order or exit slip)
	Reference string `db:"reference" json:"reference"`

	// OrderID is set on receipt movements only
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	MovementDate time.Time `db:"movement_date" json:"movementDate"`

	CreatedBy string `db:"created_by" json:"createdBy"`
}

// MovementRecord is a movement enriched with product and lot context.
// Read queries return records; writes go through Movement.
type MovementRecord struct {
	Movement

	ProductName string `db:"product_name" json:"productName"`
	LotNumber   string `db:"lot_number" json:"lotNumber"`
}

// NewInMovement records a receipt into a lot.
func NewInMovement(productID, lotID, orderID id.ID, quantity types.Quantity, reference, createdBy string) *Movement {
	return &Movement{
		ID:           id.New(),
		ProductID:    productID,
		LotID:        lotID,
		Type:         MovementIn,
		Quantity:     quantity,
		Reference:    reference,
		OrderID:      &orderID,
		MovementDate: time.Now(),
		CreatedBy:    createdBy,
	}
}

// NewOutMovement records a withdrawal from a lot. Quantity is passed
// positive and stored negated.
func NewOutMovement(productID, lotID id.ID, quantity types.Quantity, reference, createdBy string) *Movement {
	return &Movement{
		ID:           id.New(),
		ProductID:    productID,
		LotID:        lotID,
		Type:         MovementOut,
		Quantity:     quantity.Neg(),
		Reference:    reference,
		MovementDate: time.Now(),
		CreatedBy:    createdBy,
	}
}

// Validate checks movement invariants.
func (m *Movement) Validate(ctx context.Context) error {
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("movement product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(m.LotID) {
		return apperror.NewValidation("movement lot is required").
			WithDetail("field", "lotId")
	}
	switch m.Type {
	case MovementIn:
		if !m.Quantity.IsPositive() {
			return apperror.NewValidation("in movement quantity must be positive").
				WithDetail("field", "quantity")
		}
	case MovementOut:
		if !m.Quantity.IsNegative() {
			return apperror.NewValidation("out movement quantity must be negative").
				WithDetail("field", "quantity")
		}
	default:
		return apperror.NewValidation("invalid movement type").
			WithDetail("field", "type").
			WithDetail("value", string(m.Type))
	}
	return nil
}
