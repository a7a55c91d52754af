package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/documents/exitslip"
	"lotledger/internal/infrastructure/storage/postgres"
)

const (
	exitSlipTable     = "doc_exit_slip"
	exitSlipItemTable = "doc_exit_slip_item"
)

// ExitSlipRepo implements exitslip.Repository.
type ExitSlipRepo struct {
	*BaseDocumentRepo[*exitslip.ExitSlip]
}

var _ exitslip.Repository = (*ExitSlipRepo)(nil)

// NewExitSlipRepo creates a new exit slip repository.
func NewExitSlipRepo(txManager *postgres.TxManager) *ExitSlipRepo {
	return &ExitSlipRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*exitslip.ExitSlip](
			txManager,
			exitSlipTable,
			postgres.ExtractDBColumns[exitslip.ExitSlip](),
			func() *exitslip.ExitSlip { return &exitslip.ExitSlip{} },
		),
	}
}

// Create inserts the slip header and its items.
func (r *ExitSlipRepo) Create(ctx context.Context, slip *exitslip.ExitSlip) error {
	if err := r.createHeader(ctx, slip); err != nil {
		return err
	}
	return r.insertItems(ctx, slip.ID, slip.Items)
}

// GetByID retrieves a slip with its items.
func (r *ExitSlipRepo) GetByID(ctx context.Context, entityID id.ID) (*exitslip.ExitSlip, error) {
	slip, err := r.getHeaderByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if slip.Items, err = r.getItems(ctx, slip.ID); err != nil {
		return nil, err
	}
	return slip, nil
}

// GetByNumber retrieves a slip by document number.
func (r *ExitSlipRepo) GetByNumber(ctx context.Context, number string) (*exitslip.ExitSlip, error) {
	slip, err := r.getHeaderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if slip.Items, err = r.getItems(ctx, slip.ID); err != nil {
		return nil, err
	}
	return slip, nil
}

// GetForUpdate retrieves a slip with its items under a row lock.
func (r *ExitSlipRepo) GetForUpdate(ctx context.Context, entityID id.ID) (*exitslip.ExitSlip, error) {
	slip, err := r.getHeaderForUpdate(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if slip.Items, err = r.getItems(ctx, slip.ID); err != nil {
		return nil, err
	}
	return slip, nil
}

// Update saves header changes and item actual quantities. Validation
// writes the fulfilled amounts back, so items are rewritten alongside
// the header.
func (r *ExitSlipRepo) Update(ctx context.Context, slip *exitslip.ExitSlip) error {
	if err := r.updateHeader(ctx, slip); err != nil {
		return err
	}
	return r.saveItems(ctx, slip.ID, slip.Items)
}

// List retrieves slips matching the filter. Items are not loaded
// for listings.
func (r *ExitSlipRepo) List(ctx context.Context, filter exitslip.ListFilter) (domain.ListResult[*exitslip.ExitSlip], error) {
	q := r.filteredSelect(filter.ListFilter)

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.Destination != "" {
		q = q.Where(squirrel.ILike{"destination": "%" + filter.Destination + "%"})
	}

	return r.listHeaders(ctx, q, filter.ListFilter)
}

func (r *ExitSlipRepo) getItems(ctx context.Context, slipID id.ID) ([]*exitslip.Item, error) {
	q := r.Builder().
		Select("id", "slip_id", "product_id", "requested_quantity", "actual_quantity", "note").
		From(exitSlipItemTable).
		Where(squirrel.Eq{"slip_id": slipID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*exitslip.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get slip items: %w", err)
	}

	return items, nil
}

func (r *ExitSlipRepo) insertItems(ctx context.Context, slipID id.ID, items []*exitslip.Item) error {
	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(exitSlipItemTable).
		Columns("id", "slip_id", "product_id", "requested_quantity", "actual_quantity", "note")

	for _, item := range items {
		q = q.Values(item.ID, slipID, item.ProductID, item.RequestedQuantity, item.ActualQuantity, item.Note)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert slip items: %w", err)
	}

	return nil
}

// saveItems rewrites the item rows for a slip.
func (r *ExitSlipRepo) saveItems(ctx context.Context, slipID id.ID, items []*exitslip.Item) error {
	deleteSQL := "DELETE FROM " + exitSlipItemTable + " WHERE slip_id = $1"
	if _, err := r.Querier(ctx).Exec(ctx, deleteSQL, slipID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	return r.insertItems(ctx, slipID, items)
}
