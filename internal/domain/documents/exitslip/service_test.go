package exitslip

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	appctx "lotledger/internal/core/context"
	"lotledger/internal/core/id"
	"lotledger/internal/core/numerator"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/lots"
)

// --- in-memory fakes ---

// fakeTxManager restores fake state when the transaction function
// fails, mirroring a database rollback.
type fakeTxManager struct {
	stores []interface{ snapshot() func() }
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[id.ID]*product.Product)}
}

func (r *fakeProductRepo) snapshot() func() {
	saved := make(map[id.ID]product.Product, len(r.products))
	for k, v := range r.products {
		saved[k] = *v
	}
	return func() {
		for k, v := range saved {
			clone := v
			r.products[k] = &clone
		}
	}
}

func (r *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (r *fakeProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *fakeProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *fakeProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.DeletionMark = marked
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (r *fakeProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, ok := r.products[productID]
	return ok, nil
}

func (r *fakeProductRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

func (r *fakeProductRepo) AdjustStock(ctx context.Context, productID id.ID, delta types.Quantity) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.CurrentStock += delta
	return nil
}

func (r *fakeProductRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

type fakeLotRepo struct {
	lots []*lots.Lot
}

func (r *fakeLotRepo) snapshot() func() {
	saved := make([]lots.Lot, len(r.lots))
	for i, l := range r.lots {
		saved[i] = *l
	}
	return func() {
		r.lots = r.lots[:len(saved)]
		for i := range saved {
			clone := saved[i]
			r.lots[i] = &clone
		}
	}
}

func (r *fakeLotRepo) Create(ctx context.Context, lot *lots.Lot) error {
	r.lots = append(r.lots, lot)
	return nil
}

func (r *fakeLotRepo) GetByID(ctx context.Context, lotID id.ID) (*lots.Lot, error) {
	for _, l := range r.lots {
		if l.ID == lotID {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("lot", lotID.String())
}

func (r *fakeLotRepo) GetByNumber(ctx context.Context, lotNumber string) (*lots.Lot, error) {
	for _, l := range r.lots {
		if l.LotNumber == lotNumber {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("lot", lotNumber)
}

func (r *fakeLotRepo) fifoForProduct(productID id.ID, openOnly bool) []*lots.Lot {
	out := make([]*lots.Lot, 0)
	for _, l := range r.lots {
		if l.ProductID != productID {
			continue
		}
		if openOnly && l.IsExhausted() {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntryDate.Before(out[j].EntryDate)
	})
	return out
}

func (r *fakeLotRepo) AvailableForProduct(ctx context.Context, productID id.ID) ([]*lots.Lot, error) {
	return r.fifoForProduct(productID, true), nil
}

func (r *fakeLotRepo) SnapshotForProduct(ctx context.Context, productID id.ID) ([]*lots.Lot, error) {
	return r.fifoForProduct(productID, true), nil
}

func (r *fakeLotRepo) AllOpen(ctx context.Context) ([]*lots.Lot, error) {
	out := make([]*lots.Lot, 0)
	for _, l := range r.lots {
		if !l.IsExhausted() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) ListForProduct(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*lots.Lot], error) {
	all := r.fifoForProduct(productID, false)
	return domain.ListResult[*lots.Lot]{Items: all, TotalCount: int64(len(all))}, nil
}

func (r *fakeLotRepo) Reduce(ctx context.Context, lotID id.ID, amount types.Quantity) error {
	lot, err := r.GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if !amount.IsPositive() || amount > lot.AvailableQuantity {
		return apperror.NewInvariantViolation("reduce amount out of range")
	}
	lot.AvailableQuantity -= amount
	return nil
}

func (r *fakeLotRepo) TotalAvailable(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return lots.TotalAvailable(r.fifoForProduct(productID, true)), nil
}

type fakeLedgerRepo struct {
	movements []*ledger.Movement
}

func (r *fakeLedgerRepo) snapshot() func() {
	n := len(r.movements)
	return func() { r.movements = r.movements[:n] }
}

func (r *fakeLedgerRepo) Append(ctx context.Context, movements ...*ledger.Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *fakeLedgerRepo) GetByID(ctx context.Context, movementID id.ID) (*ledger.MovementRecord, error) {
	for _, m := range r.movements {
		if m.ID == movementID {
			return &ledger.MovementRecord{Movement: *m}, nil
		}
	}
	return nil, apperror.NewNotFound("stock movement", movementID.String())
}

func (r *fakeLedgerRepo) Search(ctx context.Context, filter ledger.SearchFilter) (domain.ListResult[*ledger.MovementRecord], error) {
	records := make([]*ledger.MovementRecord, len(r.movements))
	for i, m := range r.movements {
		records[i] = &ledger.MovementRecord{Movement: *m}
	}
	return domain.ListResult[*ledger.MovementRecord]{Items: records, TotalCount: int64(len(records))}, nil
}

type fakeSlipRepo struct {
	slips map[id.ID]*ExitSlip
}

func newFakeSlipRepo() *fakeSlipRepo {
	return &fakeSlipRepo{slips: make(map[id.ID]*ExitSlip)}
}

func (r *fakeSlipRepo) snapshot() func() {
	saved := make(map[id.ID]ExitSlip, len(r.slips))
	items := make(map[id.ID][]Item, len(r.slips))
	for k, v := range r.slips {
		saved[k] = *v
		lines := make([]Item, len(v.Items))
		for i, it := range v.Items {
			lines[i] = *it
		}
		items[k] = lines
	}
	return func() {
		for k, v := range saved {
			clone := v
			clone.Items = make([]*Item, len(items[k]))
			for i := range items[k] {
				line := items[k][i]
				clone.Items[i] = &line
			}
			r.slips[k] = &clone
		}
	}
}

func (r *fakeSlipRepo) Create(ctx context.Context, slip *ExitSlip) error {
	r.slips[slip.ID] = slip
	return nil
}

func (r *fakeSlipRepo) GetByID(ctx context.Context, slipID id.ID) (*ExitSlip, error) {
	slip, ok := r.slips[slipID]
	if !ok {
		return nil, apperror.NewNotFound("exit slip", slipID.String())
	}
	return slip, nil
}

func (r *fakeSlipRepo) GetByNumber(ctx context.Context, number string) (*ExitSlip, error) {
	for _, slip := range r.slips {
		if slip.Number == number {
			return slip, nil
		}
	}
	return nil, apperror.NewNotFound("exit slip", number)
}

func (r *fakeSlipRepo) GetForUpdate(ctx context.Context, slipID id.ID) (*ExitSlip, error) {
	return r.GetByID(ctx, slipID)
}

func (r *fakeSlipRepo) Update(ctx context.Context, slip *ExitSlip) error {
	r.slips[slip.ID] = slip
	return nil
}

func (r *fakeSlipRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ExitSlip], error) {
	return domain.ListResult[*ExitSlip]{}, nil
}

// --- fixture ---

type fixture struct {
	svc      *Service
	slips    *fakeSlipRepo
	products *fakeProductRepo
	lots     *fakeLotRepo
	ledger   *fakeLedgerRepo
}

func newFixture() *fixture {
	f := &fixture{
		slips:    newFakeSlipRepo(),
		products: newFakeProductRepo(),
		lots:     &fakeLotRepo{},
		ledger:   &fakeLedgerRepo{},
	}
	txm := &fakeTxManager{stores: []interface{ snapshot() func() }{
		f.slips, f.products, f.lots, f.ledger,
	}}
	f.svc = NewService(f.slips, f.products, f.lots,
		ledger.NewService(f.ledger), &numerator.MockGenerator{}, txm, nil)
	return f
}

func (f *fixture) addProduct(reference, name string) *product.Product {
	p := product.NewProduct(reference, name, product.CategoryComponent)
	_ = f.products.Create(context.Background(), p)
	return p
}

func (f *fixture) addLot(p *product.Product, number string, qty float64, price string, day int) *lots.Lot {
	quantity := types.NewQuantityFromFloat64(qty)
	lot := lots.NewLot(number, p.ID, quantity, types.MustMoney(price),
		time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC))
	_ = f.lots.Create(context.Background(), lot)
	p.CurrentStock += quantity
	return lot
}

func (f *fixture) draftSlip(items ...*Item) *ExitSlip {
	slip := NewExitSlip("workshop", ReasonProduction, time.Now())
	slip.Number = "BS-20260831-0001"
	for _, item := range items {
		item.SlipID = slip.ID
		slip.Items = append(slip.Items, item)
	}
	_ = f.slips.Create(context.Background(), slip)
	return slip
}

func requestLine(p *product.Product, qty float64) *Item {
	return &Item{
		ID:                id.New(),
		ProductID:         p.ID,
		RequestedQuantity: types.NewQuantityFromFloat64(qty),
	}
}

// --- tests ---

func TestValidateConsumesLotsFIFO(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	lot1 := f.addLot(p, "LOT-2026-001", 30, "100", 1)
	lot2 := f.addLot(p, "LOT-2026-002", 50, "105", 2)
	lot3 := f.addLot(p, "LOT-2026-003", 20, "110", 3)

	slip := f.draftSlip(requestLine(p, 60))

	validated, err := f.svc.Validate(ctx, slip.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusValidated, validated.Status)
	require.NotNil(t, validated.ValidatedAt)
	assert.Equal(t, types.NewQuantityFromFloat64(60), validated.Items[0].ActualQuantity)

	assert.Equal(t, types.Quantity(0), lot1.AvailableQuantity)
	assert.Equal(t, types.NewQuantityFromFloat64(20), lot2.AvailableQuantity)
	assert.Equal(t, types.NewQuantityFromFloat64(20), lot3.AvailableQuantity)

	assert.Equal(t, types.NewQuantityFromFloat64(40), p.CurrentStock)

	require.Len(t, f.ledger.movements, 2)
	assert.Equal(t, lot1.ID, f.ledger.movements[0].LotID)
	assert.Equal(t, types.NewQuantityFromFloat64(-30), f.ledger.movements[0].Quantity)
	assert.Equal(t, lot2.ID, f.ledger.movements[1].LotID)
	assert.Equal(t, types.NewQuantityFromFloat64(-30), f.ledger.movements[1].Quantity)
	assert.Equal(t, "BS-20260831-0001", f.ledger.movements[0].Reference)
}

func TestValidateInsufficientStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	f.addLot(p, "LOT-2026-001", 50, "10", 1)

	slip := f.draftSlip(requestLine(p, 100))

	_, err := f.svc.Validate(ctx, slip.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Contains(t, err.Error(), "Insufficient stock for product: Widget. Required: 100.00, Available: 50.00")

	// Nothing may change on failure.
	stored, _ := f.slips.GetByID(ctx, slip.ID)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, types.NewQuantityFromFloat64(50), f.lots.lots[0].AvailableQuantity)
	assert.Empty(t, f.ledger.movements)
	prod, _ := f.products.GetByID(ctx, p.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(50), prod.CurrentStock)
}

func TestValidateMultiItemAllOrNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p1 := f.addProduct("WID-01", "Widget")
	p2 := f.addProduct("GAD-01", "Gadget")
	f.addLot(p1, "LOT-2026-001", 100, "10", 1)
	f.addLot(p2, "LOT-2026-002", 5, "20", 2)

	// First line is satisfiable, second is short.
	slip := f.draftSlip(requestLine(p1, 40), requestLine(p2, 10))

	_, err := f.svc.Validate(ctx, slip.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The first line's consumption must be rolled back too.
	assert.Equal(t, types.NewQuantityFromFloat64(100), f.lots.lots[0].AvailableQuantity)
	assert.Empty(t, f.ledger.movements)
	prod, _ := f.products.GetByID(ctx, p1.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(100), prod.CurrentStock)
	stored, _ := f.slips.GetByID(ctx, slip.ID)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, types.Quantity(0), stored.Items[0].ActualQuantity)
}

func TestValidateRejectsNonDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	f.addLot(p, "LOT-2026-001", 100, "10", 1)

	slip := f.draftSlip(requestLine(p, 10))

	_, err := f.svc.Validate(ctx, slip.ID)
	require.NoError(t, err)

	movementsAfterFirst := len(f.ledger.movements)

	_, err = f.svc.Validate(ctx, slip.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidOperation(err))
	assert.Contains(t, err.Error(), "Only DRAFT exit slips can be validated")

	// Re-validation must not consume anything further.
	assert.Len(t, f.ledger.movements, movementsAfterFirst)
	assert.Equal(t, types.NewQuantityFromFloat64(90), f.lots.lots[0].AvailableQuantity)
}

func TestCancelDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	f.addLot(p, "LOT-2026-001", 100, "10", 1)
	slip := f.draftSlip(requestLine(p, 10))

	ctx = appctx.WithActor(ctx, &appctx.Actor{Subject: "jdoe"})
	cancelled, err := f.svc.Cancel(ctx, slip.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "jdoe", cancelled.CancelledBy)
	assert.Equal(t, "jdoe", cancelled.UpdatedBy)

	// Cancelling again is rejected.
	_, err = f.svc.Cancel(ctx, slip.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidOperation(err))
}

func TestCancelValidatedRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	f.addLot(p, "LOT-2026-001", 100, "10", 1)
	slip := f.draftSlip(requestLine(p, 10))

	_, err := f.svc.Validate(ctx, slip.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, slip.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidOperation(err))

	stored, _ := f.slips.GetByID(ctx, slip.ID)
	assert.Equal(t, StatusValidated, stored.Status)
}

func TestCreateAssignsNumberAndChecksProducts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")

	slip := NewExitSlip("workshop", ReasonProduction, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	slip.AddItem(p.ID, types.NewQuantityFromFloat64(5), "line for press #2")

	require.NoError(t, f.svc.Create(ctx, slip))
	assert.Equal(t, "BS-20260831-0001", slip.Number)
	assert.Equal(t, StatusDraft, slip.Status)

	assert.Equal(t, "line for press #2", slip.Items[0].Note)

	missing := NewExitSlip("workshop", ReasonProduction, time.Now())
	missing.AddItem(id.New(), types.NewQuantityFromFloat64(5), "")
	err := f.svc.Create(ctx, missing)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateRejectsUnknownReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")

	slip := NewExitSlip("workshop", Reason("SHRINKAGE"), time.Now())
	slip.AddItem(p.ID, types.NewQuantityFromFloat64(5), "")

	err := f.svc.Create(ctx, slip)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, err.Error(), "invalid exit reason")

	// A zero reason is rejected the same way.
	blank := NewExitSlip("workshop", "", time.Now())
	blank.AddItem(p.ID, types.NewQuantityFromFloat64(5), "")
	err = f.svc.Create(ctx, blank)
	require.Error(t, err)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestValidateLedgerReconcilesWithLots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	f.addLot(p, "LOT-2026-001", 30, "100", 1)
	f.addLot(p, "LOT-2026-002", 50, "105", 2)
	f.addLot(p, "LOT-2026-003", 20, "110", 3)

	slip := f.draftSlip(requestLine(p, 45))
	_, err := f.svc.Validate(ctx, slip.ID)
	require.NoError(t, err)

	// Every lot's consumption must be covered by its recorded
	// movements: quantity minus available equals the negated sum of
	// the lot's outbound quantities.
	for _, lot := range f.lots.lots {
		var outSum types.Quantity
		for _, m := range f.ledger.movements {
			if m.LotID == lot.ID && m.Quantity.IsNegative() {
				outSum += m.Quantity
			}
		}
		assert.Equal(t, lot.Quantity-lot.AvailableQuantity, outSum.Neg(),
			"lot %s", lot.LotNumber)
	}
}
