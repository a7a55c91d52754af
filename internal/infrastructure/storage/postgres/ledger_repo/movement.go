// Package ledger_repo provides the PostgreSQL implementation of the
// movement ledger. The table is append-only; no update or delete is
// ever issued here.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/infrastructure/storage/postgres"
)

const movementTable = "ledger_movement"

// copyThreshold switches Append from INSERTs to the COPY protocol.
const copyThreshold = 50

// MovementRepo implements ledger.Repository.
type MovementRepo struct {
	txManager  *postgres.TxManager
	inserter   *postgres.BatchInserter
	selectCols []string
}

var _ ledger.Repository = (*MovementRepo)(nil)

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager:  txManager,
		inserter:   postgres.NewBatchInserter(txManager),
		selectCols: postgres.ExtractDBColumns[ledger.Movement](),
	}
}

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Append inserts movements in one batch. Large batches (bulk imports)
// go through the COPY protocol.
func (r *MovementRepo) Append(ctx context.Context, movements ...*ledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	if len(movements) >= copyThreshold {
		return r.appendCopy(ctx, movements)
	}

	for _, m := range movements {
		q := r.builder().
			Insert(movementTable).
			SetMap(postgres.StructToMap(m))

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
	}

	return nil
}

func (r *MovementRepo) appendCopy(ctx context.Context, movements []*ledger.Movement) error {
	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		data := postgres.StructToMap(m)
		row := make([]any, 0, len(r.selectCols))
		for _, col := range r.selectCols {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}

	if _, err := r.inserter.CopyFromSlice(ctx, movementTable, r.selectCols, rows); err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	return nil
}

// recordSelect joins the movement with its product and lot so read
// queries return human-readable context alongside the ids.
func (r *MovementRepo) recordSelect() squirrel.SelectBuilder {
	cols := make([]string, 0, len(r.selectCols)+2)
	for _, col := range r.selectCols {
		cols = append(cols, "m."+col)
	}
	cols = append(cols, "p.name AS product_name", "l.lot_number")

	return r.builder().
		Select(cols...).
		From(movementTable + " m").
		Join("cat_product p ON p.id = m.product_id").
		Join("stock_lot l ON l.id = m.lot_id")
}

// GetByID retrieves a movement by ID.
func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*ledger.MovementRecord, error) {
	q := r.recordSelect().
		Where(squirrel.Eq{"m.id": movementID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.MovementRecord
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}

	return &m, nil
}

// Search retrieves movements matching the filter, newest first.
func (r *MovementRepo) Search(ctx context.Context, filter ledger.SearchFilter) (domain.ListResult[*ledger.MovementRecord], error) {
	result := domain.ListResult[*ledger.MovementRecord]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.recordSelect()

	q = r.applyFilter(q, filter)

	countQ := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count movements: %w", err)
	}

	q = q.OrderBy("m.movement_date DESC", "m.id DESC")
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

	// An empty history scans into an empty slice; that is a valid page.
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("search movements: %w", err)
	}

	return result, nil
}

func (r *MovementRepo) applyFilter(q squirrel.SelectBuilder, filter ledger.SearchFilter) squirrel.SelectBuilder {
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"m.product_id": *filter.ProductID})
	}
	if filter.LotID != nil {
		q = q.Where(squirrel.Eq{"m.lot_id": *filter.LotID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"m.type": *filter.Type})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"m.movement_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"m.movement_date": *filter.To})
	}
	if filter.ProductRef != "" {
		q = q.Where(squirrel.Eq{"p.code": filter.ProductRef})
	}
	if filter.LotNumber != "" {
		q = q.Where(squirrel.Eq{"l.lot_number": filter.LotNumber})
	}
	return q
}
