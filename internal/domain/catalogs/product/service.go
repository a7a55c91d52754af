package product

import (
	"context"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/tx"
	"lotledger/internal/domain"
)

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkReferenceUnique)

	return svc
}

// checkReferenceUnique rejects a duplicate product reference.
func (s *Service) checkReferenceUnique(ctx context.Context, item *Product) error {
	exists, err := s.repo.ExistsByCode(ctx, item.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("product", "reference", item.Code)
	}
	return nil
}

// FindLowStock retrieves products with stock at or below reorder point.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, filter)
}
