package order

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

// Service provides business logic for purchase orders, including the
// stock receipt that turns a delivered order into lots.
type Service struct {
	repo        Repository
	productRepo product.Repository
	lotRepo     lots.Repository
	ledger      *ledger.Service
	numerator   numerator.Generator
	txManager   tx.Manager
	publisher   domain.EventPublisher // optional
}

// NewService creates a new Order service.
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
func (s *Service) publishEvent(ctx context.Context, ord *Order, eventType string) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, domain.Event{
		AggregateType: "Order",
		AggregateID:   ord.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number": ord.Number,
			"status": string(ord.Status),
			"items":  len(ord.Items),
		},
	})
}

// Create registers a new pending order and assigns its number.
func (s *Service) Create(ctx context.Context, ord *Order) error {
	if ord.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.OrderConfig(), nil, ord.Date)
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		ord.Number = number
	}
	ord.CreatedBy = appctx.ActorName(ctx)

	if err := ord.Validate(ctx); err != nil {
		return err
	}

	// Referenced products must exist before the order is accepted.
	for _, item := range ord.Items {
		if _, err := s.productRepo.GetByID(ctx, item.ProductID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("product", item.ProductID.String())
			}
			return err
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, ord)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order created",
		"number", ord.Number,
		"supplier_id", ord.SupplierID,
		"items", len(ord.Items))
	return nil
}

// GetByID retrieves an order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	ord, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, err
	}
	return ord, nil
}

// GetByNumber retrieves an order by document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	ord, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", number)
		}
		return nil, err
	}
	return ord, nil
}

// List retrieves orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}

// Receive books a delivered order into stock.
//
// For every order line one new lot is created at the line's agreed
// price, the product's cached stock is incremented, and an `in`
// movement is appended. Everything happens in one transaction; a
// failure on any line leaves no trace of the receipt. Product rows are
// locked first, so receipts serialize with concurrent withdrawals of
// the same products.
func (s *Service) Receive(ctx context.Context, orderID id.ID) (*Order, error) {
	var received *Order

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ord, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("order", orderID.String())
			}
			return err
		}

		switch ord.Status {
		case StatusDelivered:
			return apperror.NewInvalidOperation("Order has already been received").
				WithDetail("order", ord.Number)
		case StatusCancelled:
			return apperror.NewInvalidOperation("Cancelled order cannot be received").
				WithDetail("order", ord.Number)
		}

		now := time.Now().UTC()

		for _, item := range ord.Items {
			if _, err := s.productRepo.GetForUpdate(ctx, item.ProductID); err != nil {
				return err
			}

			lotNumber, err := s.numerator.GetNextNumber(ctx, numerator.LotConfig(), nil, now)
			if err != nil {
				return fmt.Errorf("generate lot number: %w", err)
			}

			lot := lots.NewLot(lotNumber, item.ProductID, item.Quantity, item.UnitPrice, now)
			lot.OrderID = &ord.ID
			if err := lot.Validate(ctx); err != nil {
				return err
			}
			if err := s.lotRepo.Create(ctx, lot); err != nil {
				return err
			}

			if err := s.productRepo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			if _, err := s.ledger.RecordIn(ctx, item.ProductID, lot.ID, ord.ID, item.Quantity, ord.Number); err != nil {
				return err
			}
		}

		ord.Status = StatusDelivered
		ord.DeliveredAt = &now
		ord.UpdatedBy = appctx.ActorName(ctx)
		ord.Touch()
		if err := s.repo.Update(ctx, ord); err != nil {
			return err
		}

		if err := s.publishEvent(ctx, ord, "order.received"); err != nil {
			return err
		}

		received = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order received",
		"number", received.Number,
		"items", len(received.Items))
	return received, nil
}

// Cancel cancels a pending order. Delivered orders are already in
// stock and cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) (*Order, error) {
	var cancelled *Order

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ord, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("order", orderID.String())
			}
			return err
		}

		switch ord.Status {
		case StatusDelivered:
			return apperror.NewInvalidOperation("Delivered order cannot be cancelled").
				WithDetail("order", ord.Number)
		case StatusCancelled:
			return apperror.NewInvalidOperation("Order is already cancelled").
				WithDetail("order", ord.Number)
		}

		ord.Status = StatusCancelled
		ord.UpdatedBy = appctx.ActorName(ctx)
		ord.Touch()
		if err := s.repo.Update(ctx, ord); err != nil {
			return err
		}

		cancelled = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order cancelled", "number", cancelled.Number)
	return cancelled, nil
}
