// Package supplier provides the Supplier catalog.
package supplier

import (
	"context"
	"strings"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/entity"
)

// Supplier represents a party purchase orders are placed with.
type Supplier struct {
	entity.Catalog

	// ContactName is the primary contact person
	ContactName *string `db:"contact_name" json:"contactName,omitempty"`

	// Email for order notifications
	Email *string `db:"email" json:"email,omitempty"`

	// Phone number
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Address of the supplier
	Address *string `db:"address" json:"address,omitempty"`
}

// NewSupplier creates a new Supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Email != nil && *s.Email != "" && !strings.Contains(*s.Email, "@") {
		return apperror.NewValidation("invalid email address").
			WithDetail("field", "email")
	}

	return nil
}
