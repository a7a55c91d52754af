package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/documents/order"
	"lotledger/internal/infrastructure/storage/postgres"
)

const (
	orderTable     = "doc_order"
	orderItemTable = "doc_order_item"
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*order.Order]
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new purchase order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*order.Order](
			txManager,
			orderTable,
			postgres.ExtractDBColumns[order.Order](),
			func() *order.Order { return &order.Order{} },
		),
	}
}

// Create inserts the order header and its items.
func (r *OrderRepo) Create(ctx context.Context, ord *order.Order) error {
	if err := r.createHeader(ctx, ord); err != nil {
		return err
	}
	return r.insertItems(ctx, ord.ID, ord.Items)
}

// GetByID retrieves an order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, entityID id.ID) (*order.Order, error) {
	ord, err := r.getHeaderByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if ord.Items, err = r.getItems(ctx, ord.ID); err != nil {
		return nil, err
	}
	return ord, nil
}

// GetByNumber retrieves an order by document number.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	ord, err := r.getHeaderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if ord.Items, err = r.getItems(ctx, ord.ID); err != nil {
		return nil, err
	}
	return ord, nil
}

// GetForUpdate retrieves an order with its items under a row lock.
func (r *OrderRepo) GetForUpdate(ctx context.Context, entityID id.ID) (*order.Order, error) {
	ord, err := r.getHeaderForUpdate(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if ord.Items, err = r.getItems(ctx, ord.ID); err != nil {
		return nil, err
	}
	return ord, nil
}

// Update saves header changes. Items are immutable once the order
// exists, so only the header row is written.
func (r *OrderRepo) Update(ctx context.Context, ord *order.Order) error {
	return r.updateHeader(ctx, ord)
}

// List retrieves orders matching the filter. Items are not loaded
// for listings.
func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) (domain.ListResult[*order.Order], error) {
	q := r.filteredSelect(filter.ListFilter)

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	return r.listHeaders(ctx, q, filter.ListFilter)
}

func (r *OrderRepo) getItems(ctx context.Context, orderID id.ID) ([]*order.Item, error) {
	q := r.Builder().
		Select("id", "order_id", "product_id", "quantity", "unit_price").
		From(orderItemTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*order.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}

	return items, nil
}

func (r *OrderRepo) insertItems(ctx context.Context, orderID id.ID, items []*order.Item) error {
	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(orderItemTable).
		Columns("id", "order_id", "product_id", "quantity", "unit_price")

	for _, item := range items {
		q = q.Values(item.ID, orderID, item.ProductID, item.Quantity, item.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	return nil
}
