package order

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/numerator"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/lots"
)

// --- in-memory fakes ---

type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[id.ID]*product.Product)}
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

func (r *fakeLotRepo) open(productID id.ID) []*lots.Lot {
	out := make([]*lots.Lot, 0)
	for _, l := range r.lots {
		if l.ProductID == productID && !l.IsExhausted() {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntryDate.Before(out[j].EntryDate)
	})
	return out
}

func (r *fakeLotRepo) AvailableForProduct(ctx context.Context, productID id.ID) ([]*lots.Lot, error) {
	return r.open(productID), nil
}

func (r *fakeLotRepo) SnapshotForProduct(ctx context.Context, productID id.ID) ([]*lots.Lot, error) {
	return r.open(productID), nil
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
	return domain.ListResult[*lots.Lot]{}, nil
}

func (r *fakeLotRepo) Reduce(ctx context.Context, lotID id.ID, amount types.Quantity) error {
	lot, err := r.GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	lot.AvailableQuantity -= amount
	return nil
}

func (r *fakeLotRepo) TotalAvailable(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return lots.TotalAvailable(r.open(productID)), nil
}

type fakeLedgerRepo struct {
	movements []*ledger.Movement
}

func (r *fakeLedgerRepo) Append(ctx context.Context, movements ...*ledger.Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *fakeLedgerRepo) GetByID(ctx context.Context, movementID id.ID) (*ledger.MovementRecord, error) {
	return nil, apperror.NewNotFound("stock movement", movementID.String())
}

func (r *fakeLedgerRepo) Search(ctx context.Context, filter ledger.SearchFilter) (domain.ListResult[*ledger.MovementRecord], error) {
	records := make([]*ledger.MovementRecord, len(r.movements))
	for i, m := range r.movements {
		records[i] = &ledger.MovementRecord{Movement: *m}
	}
	return domain.ListResult[*ledger.MovementRecord]{Items: records, TotalCount: int64(len(records))}, nil
}

type fakeOrderRepo struct {
	orders map[id.ID]*Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[id.ID]*Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, ord *Order) error {
	r.orders[ord.ID] = ord
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	ord, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return ord, nil
}

func (r *fakeOrderRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	for _, ord := range r.orders {
		if ord.Number == number {
			return ord, nil
		}
	}
	return nil, apperror.NewNotFound("order", number)
}

func (r *fakeOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOrderRepo) Update(ctx context.Context, ord *Order) error {
	r.orders[ord.ID] = ord
	return nil
}

func (r *fakeOrderRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return domain.ListResult[*Order]{}, nil
}

// --- fixture ---

type fixture struct {
	svc      *Service
	orders   *fakeOrderRepo
	products *fakeProductRepo
	lots     *fakeLotRepo
	ledger   *fakeLedgerRepo
}

func newFixture() *fixture {
	f := &fixture{
		orders:   newFakeOrderRepo(),
		products: newFakeProductRepo(),
		lots:     &fakeLotRepo{},
		ledger:   &fakeLedgerRepo{},
	}
	f.svc = NewService(f.orders, f.products, f.lots,
		ledger.NewService(f.ledger), &numerator.MockGenerator{}, passTxManager{}, nil)
	return f
}

func (f *fixture) addProduct(reference, name string) *product.Product {
	p := product.NewProduct(reference, name, product.CategoryComponent)
	_ = f.products.Create(context.Background(), p)
	return p
}

// --- tests ---

func TestCreateAssignsNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")

	ord := NewOrder(id.New(), time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	ord.AddItem(p.ID, types.NewQuantityFromFloat64(10), types.MustMoney("99.90"))

	require.NoError(t, f.svc.Create(ctx, ord))
	assert.Equal(t, "ORD-2026-0001", ord.Number)
	assert.Equal(t, StatusPending, ord.Status)
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	f := newFixture()

	ord := NewOrder(id.New(), time.Now())
	ord.AddItem(id.New(), types.NewQuantityFromFloat64(10), types.MustMoney("1"))

	err := f.svc.Create(context.Background(), ord)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReceiveCreatesLotsAndMovements(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	widget := f.addProduct("WID-01", "Widget")
	gadget := f.addProduct("GAD-01", "Gadget")

	ord := NewOrder(id.New(), time.Now())
	ord.Number = "ORD-2026-0001"
	ord.AddItem(widget.ID, types.NewQuantityFromFloat64(30), types.MustMoney("100"))
	ord.AddItem(gadget.ID, types.NewQuantityFromFloat64(5), types.MustMoney("250"))
	require.NoError(t, f.svc.Create(ctx, ord))

	received, err := f.svc.Receive(ctx, ord.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusDelivered, received.Status)
	require.NotNil(t, received.DeliveredAt)

	// One lot per line, at the order-time price.
	require.Len(t, f.lots.lots, 2)
	assert.Equal(t, widget.ID, f.lots.lots[0].ProductID)
	assert.True(t, f.lots.lots[0].UnitPrice.Equal(types.MustMoney("100")))
	assert.Equal(t, types.NewQuantityFromFloat64(30), f.lots.lots[0].AvailableQuantity)
	require.NotNil(t, f.lots.lots[0].OrderID)
	assert.Equal(t, ord.ID, *f.lots.lots[0].OrderID)
	assert.Equal(t, gadget.ID, f.lots.lots[1].ProductID)
	assert.True(t, f.lots.lots[1].UnitPrice.Equal(types.MustMoney("250")))

	// One in movement per lot, positive quantity.
	require.Len(t, f.ledger.movements, 2)
	assert.Equal(t, ledger.MovementIn, f.ledger.movements[0].Type)
	assert.Equal(t, types.NewQuantityFromFloat64(30), f.ledger.movements[0].Quantity)
	assert.Equal(t, "ORD-2026-0001", f.ledger.movements[0].Reference)

	// Cached stock updated.
	assert.Equal(t, types.NewQuantityFromFloat64(30), widget.CurrentStock)
	assert.Equal(t, types.NewQuantityFromFloat64(5), gadget.CurrentStock)
}

func TestReceiveLedgerReconcilesWithLots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	widget := f.addProduct("WID-01", "Widget")
	gadget := f.addProduct("GAD-01", "Gadget")

	ord := NewOrder(id.New(), time.Now())
	ord.AddItem(widget.ID, types.NewQuantityFromFloat64(30), types.MustMoney("100"))
	ord.AddItem(gadget.ID, types.NewQuantityFromFloat64(5), types.MustMoney("250"))
	require.NoError(t, f.svc.Create(ctx, ord))

	_, err := f.svc.Receive(ctx, ord.ID)
	require.NoError(t, err)

	// Each lot's inbound movements must sum to its received quantity,
	// and an untouched lot stays fully available.
	for _, lot := range f.lots.lots {
		var inSum types.Quantity
		for _, m := range f.ledger.movements {
			if m.LotID == lot.ID && m.Quantity.IsPositive() {
				inSum += m.Quantity
			}
		}
		assert.Equal(t, lot.Quantity, inSum, "lot %s", lot.LotNumber)
		assert.Equal(t, lot.Quantity, lot.AvailableQuantity)
	}
}

func TestReceiveTwiceRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	ord := NewOrder(id.New(), time.Now())
	ord.AddItem(p.ID, types.NewQuantityFromFloat64(10), types.MustMoney("10"))
	require.NoError(t, f.svc.Create(ctx, ord))

	_, err := f.svc.Receive(ctx, ord.ID)
	require.NoError(t, err)

	_, err = f.svc.Receive(ctx, ord.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidOperation(err))
	assert.Contains(t, err.Error(), "Order has already been received")

	// No extra lots or movements from the rejected attempt.
	assert.Len(t, f.lots.lots, 1)
	assert.Len(t, f.ledger.movements, 1)
}

func TestCancelPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	ord := NewOrder(id.New(), time.Now())
	ord.AddItem(p.ID, types.NewQuantityFromFloat64(10), types.MustMoney("10"))
	require.NoError(t, f.svc.Create(ctx, ord))

	cancelled, err := f.svc.Cancel(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled orders cannot be received.
	_, err = f.svc.Receive(ctx, ord.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidOperation(err))
}

func TestCancelDeliveredRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.addProduct("WID-01", "Widget")
	ord := NewOrder(id.New(), time.Now())
	ord.AddItem(p.ID, types.NewQuantityFromFloat64(10), types.MustMoney("10"))
	require.NoError(t, f.svc.Create(ctx, ord))

	_, err := f.svc.Receive(ctx, ord.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, ord.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidOperation(err))
}

func TestOrderTotal(t *testing.T) {
	ord := NewOrder(id.New(), time.Now())
	ord.AddItem(id.New(), types.NewQuantityFromFloat64(3), types.MustMoney("10.50"))
	ord.AddItem(id.New(), types.NewQuantityFromFloat64(2), types.MustMoney("4.25"))

	assert.True(t, ord.Total().Equal(types.MustMoney("40")))
}
