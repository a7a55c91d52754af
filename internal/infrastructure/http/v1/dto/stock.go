package dto

import (
	"time"

	"lotledger/internal/core/types"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/lots"
	"lotledger/internal/domain/replenishment"
)

// LotResponse is the response body for a stock lot.
type LotResponse struct {
	ID                string         `json:"id"`
	LotNumber         string         `json:"lotNumber"`
	ProductID         string         `json:"productId"`
	OrderID           *string        `json:"orderId,omitempty"`
	Quantity          types.Quantity `json:"quantity"`
	AvailableQuantity types.Quantity `json:"availableQuantity"`
	UnitPrice         types.Money    `json:"unitPrice"`
	Value             types.Money    `json:"value"`
	EntryDate         time.Time      `json:"entryDate"`
	Exhausted         bool           `json:"exhausted"`
}

// FromLot creates response DTO from domain entity.
func FromLot(lot *lots.Lot) *LotResponse {
	resp := &LotResponse{
		ID:                lot.ID.String(),
		LotNumber:         lot.LotNumber,
		ProductID:         lot.ProductID.String(),
		Quantity:          lot.Quantity,
		AvailableQuantity: lot.AvailableQuantity,
		UnitPrice:         lot.UnitPrice,
		Value:             lot.Value(),
		EntryDate:         lot.EntryDate,
		Exhausted:         lot.IsExhausted(),
	}
	if lot.OrderID != nil {
		s := lot.OrderID.String()
		resp.OrderID = &s
	}
	return resp
}

// MovementResponse is the response body for a ledger movement.
type MovementResponse struct {
	ID           string              `json:"id"`
	ProductID    string              `json:"productId"`
	ProductName  string              `json:"productName"`
	LotID        string              `json:"lotId"`
	LotNumber    string              `json:"lotNumber"`
	Type         ledger.MovementType `json:"type"`
	Quantity     types.Quantity      `json:"quantity"`
	Reference    string              `json:"reference,omitempty"`
	OrderID      *string             `json:"orderId,omitempty"`
	MovementDate time.Time           `json:"movementDate"`
	CreatedBy    string              `json:"createdBy,omitempty"`
}

// FromMovement creates response DTO from domain entity.
func FromMovement(m *ledger.MovementRecord) *MovementResponse {
	resp := &MovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		ProductName:  m.ProductName,
		LotID:        m.LotID.String(),
		LotNumber:    m.LotNumber,
		Type:         m.Type,
		Quantity:     m.Quantity,
		Reference:    m.Reference,
		MovementDate: m.MovementDate,
		CreatedBy:    m.CreatedBy,
	}
	if m.OrderID != nil {
		orderID := m.OrderID.String()
		resp.OrderID = &orderID
	}
	return resp
}

// ProductValuationResponse is stock quantity and value of one product.
type ProductValuationResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	Value     types.Money    `json:"value"`
}

// FromProductValuation creates response DTO from a valuation row.
func FromProductValuation(v lots.ProductValuation) ProductValuationResponse {
	return ProductValuationResponse{
		ProductID: v.ProductID.String(),
		Quantity:  v.Quantity,
		Value:     v.Value,
	}
}

// ValuationResponse reports stock value per product and in total.
type ValuationResponse struct {
	Products []ProductValuationResponse `json:"products"`
	Total    types.Money                `json:"total"`
}

// SuggestionResponse is one replenishment suggestion.
type SuggestionResponse struct {
	Product   *ProductResponse `json:"product"`
	Shortfall float64          `json:"shortfall"`
}

// FromSuggestion creates response DTO from a replenishment suggestion.
func FromSuggestion(s replenishment.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		Product:   FromProduct(s.Product),
		Shortfall: s.Shortfall,
	}
}
