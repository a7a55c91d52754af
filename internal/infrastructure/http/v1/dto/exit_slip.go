package dto

import (
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/documents/exitslip"
)

// CreateExitSlipItemRequest is one requested product line.
type CreateExitSlipItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	Note      string         `json:"note"`
}

// CreateExitSlipRequest is the request body for creating an exit slip.
type CreateExitSlipRequest struct {
	Destination string                      `json:"destination" binding:"required"`
	Reason      exitslip.Reason             `json:"reason" binding:"required"`
	Date        *time.Time                  `json:"date"`
	Comment     string                      `json:"comment"`
	Items       []CreateExitSlipItemRequest `json:"items" binding:"required,min=1"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateExitSlipRequest) ToEntity() (*exitslip.ExitSlip, error) {
	date := time.Now().UTC()
	if r.Date != nil {
		date = *r.Date
	}

	slip := exitslip.NewExitSlip(r.Destination, r.Reason, date)
	slip.Comment = r.Comment

	for _, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return nil, err
		}
		slip.AddItem(productID, item.Quantity, item.Note)
	}

	return slip, nil
}

// ExitSlipItemResponse is one requested product line.
type ExitSlipItemResponse struct {
	ID                string         `json:"id"`
	ProductID         string         `json:"productId"`
	RequestedQuantity types.Quantity `json:"requestedQuantity"`
	ActualQuantity    types.Quantity `json:"actualQuantity"`
	Note              string         `json:"note,omitempty"`
}

// ExitSlipResponse is the response body for an exit slip.
type ExitSlipResponse struct {
	ID          string                 `json:"id"`
	Number      string                 `json:"number"`
	Date        time.Time              `json:"date"`
	Status      exitslip.Status        `json:"status"`
	Destination string                 `json:"destination"`
	Reason      exitslip.Reason        `json:"reason"`
	ValidatedAt *time.Time             `json:"validatedAt,omitempty"`
	ValidatedBy string                 `json:"validatedBy,omitempty"`
	CancelledAt *time.Time             `json:"cancelledAt,omitempty"`
	CancelledBy string                 `json:"cancelledBy,omitempty"`
	Comment     string                 `json:"comment,omitempty"`
	Items       []ExitSlipItemResponse `json:"items"`
	CreatedBy   string                 `json:"createdBy,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	Version     int                    `json:"version"`
}

// FromExitSlip creates response DTO from domain entity.
func FromExitSlip(slip *exitslip.ExitSlip) *ExitSlipResponse {
	items := make([]ExitSlipItemResponse, len(slip.Items))
	for i, item := range slip.Items {
		items[i] = ExitSlipItemResponse{
			ID:                item.ID.String(),
			ProductID:         item.ProductID.String(),
			RequestedQuantity: item.RequestedQuantity,
			ActualQuantity:    item.ActualQuantity,
			Note:              item.Note,
		}
	}

	return &ExitSlipResponse{
		ID:          slip.ID.String(),
		Number:      slip.Number,
		Date:        slip.Date,
		Status:      slip.Status,
		Destination: slip.Destination,
		Reason:      slip.Reason,
		ValidatedAt: slip.ValidatedAt,
		ValidatedBy: slip.ValidatedBy,
		CancelledAt: slip.CancelledAt,
		CancelledBy: slip.CancelledBy,
		Comment:     slip.Comment,
		Items:       items,
		CreatedBy:   slip.CreatedBy,
		CreatedAt:   slip.CreatedAt,
		UpdatedAt:   slip.UpdatedAt,
		Version:     slip.Version,
	}
}
