package ledger

import (
	"context"

	appctx "lotledger/internal/core/context"
	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
)

// Service provides access to the movement history and records new
// movements on behalf of the document processors.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordIn appends a receipt movement. Must run inside the caller's
// transaction alongside the lot change it describes.
func (s *Service) RecordIn(ctx context.Context, productID, lotID, orderID id.ID, quantity types.Quantity, reference string) (*Movement, error) {
	m := NewInMovement(productID, lotID, orderID, quantity, reference, appctx.ActorName(ctx))
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOut appends a withdrawal movement. Quantity is positive; the
// stored movement carries it negated.
func (s *Service) RecordOut(ctx context.Context, productID, lotID id.ID, quantity types.Quantity, reference string) (*Movement, error) {
	m := NewOutMovement(productID, lotID, quantity, reference, appctx.ActorName(ctx))
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByID retrieves a movement by ID.
func (s *Service) GetByID(ctx context.Context, movementID id.ID) (*MovementRecord, error) {
	m, err := s.repo.GetByID(ctx, movementID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("stock movement", movementID.String())
		}
		return nil, err
	}
	return m, nil
}

// Search retrieves movement history matching the filter.
func (s *Service) Search(ctx context.Context, filter SearchFilter) (domain.ListResult[*MovementRecord], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.Search(ctx, filter)
}
