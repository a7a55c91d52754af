package handlers

import (
	"lotledger/internal/domain/catalogs/supplier"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// SupplierHandler handles supplier catalog endpoints.
type SupplierHandler struct {
	*CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]{
			Service:    service.CatalogService,
			EntityName: "supplier",
			MapCreateDTO: func(req dto.CreateSupplierRequest) (*supplier.Supplier, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) *supplier.Supplier {
				req.ApplyTo(existing)
				return existing
			},
			MapToDTO: func(item *supplier.Supplier) any {
				return dto.FromSupplier(item)
			},
		}),
	}
}
