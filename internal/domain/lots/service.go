package lots

import (
	"context"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
)

// ProductValuation is the valued remainder of one product.
type ProductValuation struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	Value     types.Money    `json:"value"`
}

// Service provides read and reporting operations over lots.
// Mutations go through the receipt and withdrawal processors.
type Service struct {
	repo        Repository
	productRepo product.Repository
}

// NewService creates a new lot service.
func NewService(repo Repository, productRepo product.Repository) *Service {
	return &Service{
		repo:        repo,
		productRepo: productRepo,
	}
}

// GetByID retrieves a lot by ID.
func (s *Service) GetByID(ctx context.Context, lotID id.ID) (*Lot, error) {
	lot, err := s.repo.GetByID(ctx, lotID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("lot", lotID.String())
		}
		return nil, err
	}
	return lot, nil
}

// GetByNumber retrieves a lot by its lot number.
func (s *Service) GetByNumber(ctx context.Context, lotNumber string) (*Lot, error) {
	lot, err := s.repo.GetByNumber(ctx, lotNumber)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("lot", lotNumber)
		}
		return nil, err
	}
	return lot, nil
}

// ListForProduct retrieves all lots of a product, open and exhausted.
func (s *Service) ListForProduct(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*Lot], error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if apperror.IsNotFound(err) {
			return domain.ListResult[*Lot]{}, apperror.NewNotFound("product", productID.String())
		}
		return domain.ListResult[*Lot]{}, err
	}
	return s.repo.ListForProduct(ctx, productID, filter)
}

// ValuationForProduct values the product's remaining stock at lot
// acquisition prices: sum of available quantity times unit price over
// its open lots.
func (s *Service) ValuationForProduct(ctx context.Context, productID id.ID) (ProductValuation, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if apperror.IsNotFound(err) {
			return ProductValuation{}, apperror.NewNotFound("product", productID.String())
		}
		return ProductValuation{}, err
	}

	open, err := s.repo.SnapshotForProduct(ctx, productID)
	if err != nil {
		return ProductValuation{}, err
	}

	v := ProductValuation{ProductID: productID, Value: types.ZeroMoney()}
	for _, lot := range open {
		v.Quantity += lot.AvailableQuantity
		v.Value = v.Value.Add(lot.Value())
	}
	return v, nil
}

// TotalValuation values the whole inventory, grouped by product.
// Products without open lots are absent from the result.
func (s *Service) TotalValuation(ctx context.Context) ([]ProductValuation, types.Money, error) {
	open, err := s.repo.AllOpen(ctx)
	if err != nil {
		return nil, types.ZeroMoney(), err
	}

	byProduct := make(map[id.ID]int)
	result := make([]ProductValuation, 0)
	total := types.ZeroMoney()

	for _, lot := range open {
		idx, ok := byProduct[lot.ProductID]
		if !ok {
			idx = len(result)
			byProduct[lot.ProductID] = idx
			result = append(result, ProductValuation{ProductID: lot.ProductID, Value: types.ZeroMoney()})
		}
		result[idx].Quantity += lot.AvailableQuantity
		result[idx].Value = result[idx].Value.Add(lot.Value())
		total = total.Add(lot.Value())
	}

	return result, total, nil
}

// CheckConsistency verifies the product's cached stock against the sum
// of its lot availabilities.
func (s *Service) CheckConsistency(ctx context.Context, productID id.ID) error {
	prod, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("product", productID.String())
		}
		return err
	}

	total, err := s.repo.TotalAvailable(ctx, productID)
	if err != nil {
		return err
	}

	if prod.CurrentStock != total {
		return apperror.NewInvariantViolation("cached stock diverged from lot totals").
			WithDetail("product", prod.Code).
			WithDetail("cachedStock", prod.CurrentStock.String()).
			WithDetail("lotTotal", total.String())
	}
	return nil
}
