// Package exitslip provides exit slips: documents that withdraw stock
// from FIFO lots on validation.
package exitslip

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/entity"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Status of an exit slip.
type Status string

const (
	// StatusDraft slips can be edited and have touched no stock yet.
	StatusDraft Status = "DRAFT"
	// StatusValidated slips have consumed lots and are immutable.
	StatusValidated Status = "VALIDATED"
	// StatusCancelled slips are abandoned drafts.
	StatusCancelled Status = "CANCELLED"
)

// Reason says why goods leave the warehouse.
type Reason string

const (
	ReasonProduction  Reason = "PRODUCTION"
	ReasonMaintenance Reason = "MAINTENANCE"
	ReasonTransfer    Reason = "TRANSFER"
	ReasonOther       Reason = "OTHER"
)

// ExitSlip requests withdrawal of products from stock. While DRAFT it
// is a plain record; validation is the single operation that consumes
// lots, writes movements and flips the slip to VALIDATED.
type ExitSlip struct {
	entity.Document

	Status Status `db:"status" json:"status"`

	// Destination says where the goods go (workshop, customer, scrap)
	Destination string `db:"destination" json:"destination"`

	Reason Reason `db:"reason" json:"reason"`

	// ValidatedAt is set when the slip is validated
	ValidatedAt *time.Time `db:"validated_at" json:"validatedAt,omitempty"`

	// ValidatedBy is the actor who validated the slip
	ValidatedBy string `db:"validated_by" json:"validatedBy,omitempty"`

	// CancelledAt is set when the slip is cancelled
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`

	// CancelledBy is the actor who cancelled the slip
	CancelledBy string `db:"cancelled_by" json:"cancelledBy,omitempty"`

	Items []*Item `db:"-" json:"items"`
}

// Item is one requested product line. ActualQuantity stays zero while
// the slip is DRAFT and is set to the requested quantity on
// validation; partial fulfillment does not exist.
type Item struct {
	ID     id.ID `db:"id" json:"id"`
	SlipID id.ID `db:"slip_id" json:"slipId"`

	ProductID id.ID `db:"product_id" json:"productId"`

	RequestedQuantity types.Quantity `db:"requested_quantity" json:"requestedQuantity"`
	ActualQuantity    types.Quantity `db:"actual_quantity" json:"actualQuantity"`

	// Note is an optional line remark
	Note string `db:"note" json:"note,omitempty"`
}

// NewExitSlip creates a draft slip. Number is assigned by the service.
func NewExitSlip(destination string, reason Reason, date time.Time) *ExitSlip {
	doc := entity.NewDocument()
	doc.Date = date
	return &ExitSlip{
		Document:    doc,
		Status:      StatusDraft,
		Destination: destination,
		Reason:      reason,
	}
}

// AddItem appends a requested product line.
func (e *ExitSlip) AddItem(productID id.ID, requested types.Quantity, note string) *Item {
	item := &Item{
		ID:                id.New(),
		SlipID:            e.ID,
		ProductID:         productID,
		RequestedQuantity: requested,
		Note:              note,
	}
	e.Items = append(e.Items, item)
	return item
}

// Validate implements entity.Validatable interface.
func (e *ExitSlip) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}

	if !isValidStatus(e.Status) {
		return apperror.NewValidation("invalid exit slip status").
			WithDetail("field", "status").
			WithDetail("value", string(e.Status))
	}

	if !isValidReason(e.Reason) {
		return apperror.NewValidation("invalid exit reason").
			WithDetail("field", "reason").
			WithDetail("value", string(e.Reason))
	}

	if len(e.Items) == 0 {
		return apperror.NewValidation("exit slip must have at least one item").
			WithDetail("field", "items")
	}

	for i, item := range e.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("exit slip item product is required").
				WithDetail("line", i+1)
		}
		if !item.RequestedQuantity.IsPositive() {
			return apperror.NewValidation("requested quantity must be positive").
				WithDetail("line", i+1)
		}
	}

	return nil
}

// IsDraft returns true while the slip can still change.
func (e *ExitSlip) IsDraft() bool {
	return e.Status == StatusDraft
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusValidated, StatusCancelled:
		return true
	}
	return false
}

func isValidReason(r Reason) bool {
	switch r {
	case ReasonProduction, ReasonMaintenance, ReasonTransfer, ReasonOther:
		return true
	}
	return false
}
