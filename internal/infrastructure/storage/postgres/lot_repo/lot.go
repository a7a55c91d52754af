// Package lot_repo provides the PostgreSQL implementation of the lot store.
package lot_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/lots"
	"lotledger/internal/infrastructure/storage/postgres"
)

const lotTable = "stock_lot"

// LotRepo implements lots.Repository.
type LotRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

var _ lots.Repository = (*LotRepo)(nil)

// NewLotRepo creates a new lot repository.
func NewLotRepo(txManager *postgres.TxManager) *LotRepo {
	return &LotRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[lots.Lot](),
	}
}

func (r *LotRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LotRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(lotTable)
}

// Create inserts a new lot.
func (r *LotRepo) Create(ctx context.Context, lot *lots.Lot) error {
	data := postgres.StructToMap(lot)

	q := r.builder().
		Insert(lotTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}

	return nil
}

// GetByID retrieves a lot by ID.
func (r *LotRepo) GetByID(ctx context.Context, lotID id.ID) (*lots.Lot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": lotID}).
		Limit(1)

	return r.getOne(ctx, q, lotID.String())
}

// GetByNumber retrieves a lot by lot number.
func (r *LotRepo) GetByNumber(ctx context.Context, lotNumber string) (*lots.Lot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"lot_number": lotNumber}).
		Limit(1)

	return r.getOne(ctx, q, lotNumber)
}

func (r *LotRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*lots.Lot, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot lots.Lot
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", key)
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}

	return &lot, nil
}

// AvailableForProduct retrieves the product's open lots in FIFO order
// with row locks. Requires a transaction context: the locked result is
// the frozen view a withdrawal allocates against, and the locks hold
// until commit.
//
// Ordering is entry_date first, id second. IDs are UUIDv7, so the tie
// break follows insertion order.
func (r *LotRepo) AvailableForProduct(ctx context.Context, productID id.ID) ([]*lots.Lot, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("AvailableForProduct requires transaction context")
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Gt{"available_quantity": 0}).
		OrderBy("entry_date ASC", "id ASC").
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*lots.Lot
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select available lots: %w", err)
	}

	return items, nil
}

// SnapshotForProduct retrieves the product's open lots without locks.
func (r *LotRepo) SnapshotForProduct(ctx context.Context, productID id.ID) ([]*lots.Lot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Gt{"available_quantity": 0}).
		OrderBy("entry_date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*lots.Lot
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select open lots: %w", err)
	}

	return items, nil
}

// AllOpen retrieves every lot with stock remaining.
func (r *LotRepo) AllOpen(ctx context.Context) ([]*lots.Lot, error) {
	q := r.baseSelect().
		Where(squirrel.Gt{"available_quantity": 0}).
		OrderBy("product_id ASC", "entry_date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*lots.Lot
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select all open lots: %w", err)
	}

	return items, nil
}

// ListForProduct retrieves all lots of a product, open and exhausted.
func (r *LotRepo) ListForProduct(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*lots.Lot], error) {
	result := domain.ListResult[*lots.Lot]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	base := r.baseSelect().
		Where(squirrel.Eq{"product_id": productID})

	countQ := r.builder().
		Select("COUNT(*)").
		From(lotTable).
		Where(squirrel.Eq{"product_id": productID})

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count lots: %w", err)
	}

	q := base.OrderBy("entry_date ASC", "id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list lots: %w", err)
	}

	return result, nil
}

// Reduce decreases a lot's available quantity by amount.
// The WHERE guard refuses to take more than the lot has, so even a
// buggy caller cannot drive availability negative.
func (r *LotRepo) Reduce(ctx context.Context, lotID id.ID, amount types.Quantity) error {
	if !amount.IsPositive() {
		return apperror.NewInvariantViolation("lot reduction must be positive").
			WithDetail("amount", amount.String())
	}

	q := r.builder().
		Update(lotTable).
		Set("available_quantity", squirrel.Expr("available_quantity - ?", amount)).
		Where(squirrel.Eq{"id": lotID}).
		Where(squirrel.GtOrEq{"available_quantity": amount})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build reduce: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("reduce lot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewInvariantViolation("lot reduction exceeds available quantity").
			WithDetail("lot", lotID.String()).
			WithDetail("amount", amount.String())
	}

	return nil
}

// TotalAvailable sums available quantity over the product's lots.
func (r *LotRepo) TotalAvailable(ctx context.Context, productID id.ID) (types.Quantity, error) {
	q := r.builder().
		Select("COALESCE(SUM(available_quantity), 0)").
		From(lotTable).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum query: %w", err)
	}

	var total int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum available: %w", err)
	}

	return types.Quantity(total), nil
}
