package dto

import (
	"lotledger/internal/domain/catalogs/supplier"
)

// CreateSupplierRequest is the request body for creating a supplier.
type CreateSupplierRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	ContactName *string `json:"contactName"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	item := supplier.NewSupplier(r.Code, r.Name)
	item.ContactName = r.ContactName
	item.Email = r.Email
	item.Phone = r.Phone
	item.Address = r.Address
	return item
}

// UpdateSupplierRequest is the request body for updating a supplier.
type UpdateSupplierRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	ContactName *string `json:"contactName"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Version     int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSupplierRequest) ApplyTo(item *supplier.Supplier) {
	item.Code = r.Code
	item.Name = r.Name
	item.ContactName = r.ContactName
	item.Email = r.Email
	item.Phone = r.Phone
	item.Address = r.Address
	item.Version = r.Version
}

// SupplierResponse is the response body for a supplier.
type SupplierResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	ContactName  *string `json:"contactName,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	DeletionMark bool    `json:"deletionMark"`
	Version      int     `json:"version"`
}

// FromSupplier creates response DTO from domain entity.
func FromSupplier(item *supplier.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:           item.ID.String(),
		Code:         item.Code,
		Name:         item.Name,
		ContactName:  item.ContactName,
		Email:        item.Email,
		Phone:        item.Phone,
		Address:      item.Address,
		DeletionMark: item.DeletionMark,
		Version:      item.Version,
	}
}
