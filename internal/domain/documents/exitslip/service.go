package exitslip

import (
	"context"
	"fmt"
	"time"

	"lotledger/internal/core/apperror"
	appctx "lotledger/internal/core/context"
	"lotledger/internal/core/id"
	"lotledger/internal/core/numerator"
	"lotledger/internal/core/tx"
	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/lots"
	"lotledger/pkg/logger"
)

// Service provides business logic for exit slips, including FIFO
// withdrawal on validation.
type Service struct {
	repo        Repository
	productRepo product.Repository
	lotRepo     lots.Repository
	ledger      *ledger.Service
	numerator   numerator.Generator
	txManager   tx.Manager
	publisher   domain.EventPublisher // optional
}

// NewService creates a new ExitSlip service.
func NewService(
	repo Repository,
	productRepo product.Repository,
	lotRepo lots.Repository,
	ledgerSvc *ledger.Service,
	gen numerator.Generator,
	txManager tx.Manager,
	publisher domain.EventPublisher,
) *Service {
	return &Service{
		repo:        repo,
		productRepo: productRepo,
		lotRepo:     lotRepo,
		ledger:      ledgerSvc,
		numerator:   gen,
		txManager:   txManager,
		publisher:   publisher,
	}
}

// publishEvent raises a domain event inside the current transaction.
func (s *Service) publishEvent(ctx context.Context, slip *ExitSlip, eventType string) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, domain.Event{
		AggregateType: "ExitSlip",
		AggregateID:   slip.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number": slip.Number,
			"status": string(slip.Status),
			"items":  len(slip.Items),
		},
	})
}

// Create registers a new draft slip and assigns its number.
// Drafts touch no stock and are not checked against availability;
// stock is only promised at validation time.
func (s *Service) Create(ctx context.Context, slip *ExitSlip) error {
	if slip.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.ExitSlipConfig(), nil, slip.Date)
		if err != nil {
			return fmt.Errorf("generate slip number: %w", err)
		}
		slip.Number = number
	}
	slip.CreatedBy = appctx.ActorName(ctx)

	if err := slip.Validate(ctx); err != nil {
		return err
	}

	for _, item := range slip.Items {
		if _, err := s.productRepo.GetByID(ctx, item.ProductID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("product", item.ProductID.String())
			}
			return err
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, slip)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "exit slip created",
		"number", slip.Number,
		"items", len(slip.Items))
	return nil
}

// GetByID retrieves a slip with items.
func (s *Service) GetByID(ctx context.Context, slipID id.ID) (*ExitSlip, error) {
	slip, err := s.repo.GetByID(ctx, slipID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("exit slip", slipID.String())
		}
		return nil, err
	}
	return slip, nil
}

// GetByNumber retrieves a slip by document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ExitSlip, error) {
	slip, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("exit slip", number)
		}
		return nil, err
	}
	return slip, nil
}

// List retrieves slips matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ExitSlip], error) {
	return s.repo.List(ctx, filter)
}

// Validate executes the withdrawal a draft slip describes.
//
// For every item the product row is locked, the product's open lots
// are read once in FIFO order with row locks, and the requested
// quantity is checked against their total. A shortage on any line
// aborts the whole transaction with nothing consumed. Otherwise lots
// are drained oldest first, one `out` movement per lot touched, the
// cached stock is decremented, actual quantity is set to requested,
// and the slip becomes VALIDATED.
//
// The product row lock serializes concurrent validations touching the
// same product, so two slips can never spend the same lot quantity.
func (s *Service) Validate(ctx context.Context, slipID id.ID) (*ExitSlip, error) {
	var validated *ExitSlip

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		slip, err := s.repo.GetForUpdate(ctx, slipID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("exit slip", slipID.String())
			}
			return err
		}

		if slip.Status != StatusDraft {
			return apperror.NewInvalidOperation("Only DRAFT exit slips can be validated").
				WithDetail("slip", slip.Number).
				WithDetail("status", string(slip.Status))
		}

		for _, item := range slip.Items {
			if err := s.consumeItem(ctx, slip, item); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		slip.Status = StatusValidated
		slip.ValidatedAt = &now
		slip.ValidatedBy = appctx.ActorName(ctx)
		slip.UpdatedBy = slip.ValidatedBy
		slip.Touch()
		if err := s.repo.Update(ctx, slip); err != nil {
			return err
		}

		if err := s.publishEvent(ctx, slip, "exit_slip.validated"); err != nil {
			return err
		}

		validated = slip
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "exit slip validated",
		"number", validated.Number,
		"items", len(validated.Items))
	return validated, nil
}

// consumeItem withdraws one item's requested quantity from the
// product's lots. Runs inside the validation transaction.
func (s *Service) consumeItem(ctx context.Context, slip *ExitSlip, item *Item) error {
	prod, err := s.productRepo.GetForUpdate(ctx, item.ProductID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("product", item.ProductID.String())
		}
		return err
	}

	open, err := s.lotRepo.AvailableForProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}

	available := lots.TotalAvailable(open)
	if available < item.RequestedQuantity {
		return apperror.NewInsufficientStock(prod.Name,
			item.RequestedQuantity.Float64(), available.Float64())
	}

	plan, err := lots.Allocate(open, item.RequestedQuantity)
	if err != nil {
		return err
	}

	for _, c := range plan {
		if err := s.lotRepo.Reduce(ctx, c.Lot.ID, c.Quantity); err != nil {
			return err
		}
		if _, err := s.ledger.RecordOut(ctx, item.ProductID, c.Lot.ID, c.Quantity, slip.Number); err != nil {
			return err
		}
	}

	if err := s.productRepo.AdjustStock(ctx, item.ProductID, item.RequestedQuantity.Neg()); err != nil {
		return err
	}

	item.ActualQuantity = item.RequestedQuantity
	return nil
}

// Cancel abandons a draft slip. Validated slips have already moved
// stock and cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, slipID id.ID) (*ExitSlip, error) {
	var cancelled *ExitSlip

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		slip, err := s.repo.GetForUpdate(ctx, slipID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("exit slip", slipID.String())
			}
			return err
		}

		switch slip.Status {
		case StatusValidated:
			return apperror.NewInvalidOperation("Validated exit slip cannot be cancelled").
				WithDetail("slip", slip.Number)
		case StatusCancelled:
			return apperror.NewInvalidOperation("Exit slip is already cancelled").
				WithDetail("slip", slip.Number)
		}

		now := time.Now().UTC()
		slip.Status = StatusCancelled
		slip.CancelledAt = &now
		slip.CancelledBy = appctx.ActorName(ctx)
		slip.UpdatedBy = slip.CancelledBy
		slip.Touch()
		if err := s.repo.Update(ctx, slip); err != nil {
			return err
		}

		cancelled = slip
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "exit slip cancelled", "number", cancelled.Number)
	return cancelled, nil
}
