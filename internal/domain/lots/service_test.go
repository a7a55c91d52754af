package lots

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
)

type memLotRepo struct {
	lots []*Lot
}

func (r *memLotRepo) Create(ctx context.Context, lot *Lot) error {
	r.lots = append(r.lots, lot)
	return nil
}

func (r *memLotRepo) GetByID(ctx context.Context, lotID id.ID) (*Lot, error) {
	for _, l := range r.lots {
		if l.ID == lotID {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("lot", lotID.String())
}

func (r *memLotRepo) GetByNumber(ctx context.Context, lotNumber string) (*Lot, error) {
	for _, l := range r.lots {
		if l.LotNumber == lotNumber {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("lot", lotNumber)
}

func (r *memLotRepo) open(productID id.ID) []*Lot {
	out := make([]*Lot, 0)
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

func (r *memLotRepo) AvailableForProduct(ctx context.Context, productID id.ID) ([]*Lot, error) {
	return r.open(productID), nil
}

func (r *memLotRepo) SnapshotForProduct(ctx context.Context, productID id.ID) ([]*Lot, error) {
	return r.open(productID), nil
}

func (r *memLotRepo) AllOpen(ctx context.Context) ([]*Lot, error) {
	out := make([]*Lot, 0)
	for _, l := range r.lots {
		if !l.IsExhausted() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLotRepo) ListForProduct(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*Lot], error) {
	all := make([]*Lot, 0)
	for _, l := range r.lots {
		if l.ProductID == productID {
			all = append(all, l)
		}
	}
	return domain.ListResult[*Lot]{Items: all, TotalCount: int64(len(all))}, nil
}

func (r *memLotRepo) Reduce(ctx context.Context, lotID id.ID, amount types.Quantity) error {
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

func (r *memLotRepo) TotalAvailable(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return TotalAvailable(r.open(productID)), nil
}

type memProductRepo struct {
	products map[id.ID]*product.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[id.ID]*product.Product)}
}

func (r *memProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (r *memProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *memProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *memProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	return nil
}

func (r *memProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (r *memProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, ok := r.products[productID]
	return ok, nil
}

func (r *memProductRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

func (r *memProductRepo) AdjustStock(ctx context.Context, productID id.ID, delta types.Quantity) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.CurrentStock += delta
	return nil
}

func (r *memProductRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func setup() (*Service, *memLotRepo, *memProductRepo) {
	lotRepo := &memLotRepo{}
	prodRepo := newMemProductRepo()
	return NewService(lotRepo, prodRepo), lotRepo, prodRepo
}

func addProduct(r *memProductRepo, reference, name string) *product.Product {
	p := product.NewProduct(reference, name, product.CategoryComponent)
	_ = r.Create(context.Background(), p)
	return p
}

func addLot(lotRepo *memLotRepo, p *product.Product, number string, qty float64, price string, day int) *Lot {
	quantity := types.NewQuantityFromFloat64(qty)
	lot := NewLot(number, p.ID, quantity, types.MustMoney(price),
		time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC))
	_ = lotRepo.Create(context.Background(), lot)
	p.CurrentStock += quantity
	return lot
}

func TestValuationForProduct(t *testing.T) {
	svc, lotRepo, prodRepo := setup()
	ctx := context.Background()

	p := addProduct(prodRepo, "WID-01", "Widget")
	addLot(lotRepo, p, "LOT-2026-001", 30, "100", 1)
	addLot(lotRepo, p, "LOT-2026-002", 50, "105", 2)
	addLot(lotRepo, p, "LOT-2026-003", 20, "110", 3)

	v, err := svc.ValuationForProduct(ctx, p.ID)
	require.NoError(t, err)

	// 30*100 + 50*105 + 20*110 = 10450
	assert.True(t, v.Value.Equal(types.MustMoney("10450")), "got %s", v.Value)
	assert.Equal(t, types.NewQuantityFromFloat64(100), v.Quantity)
}

func TestValuationIgnoresConsumedQuantity(t *testing.T) {
	svc, lotRepo, prodRepo := setup()
	ctx := context.Background()

	p := addProduct(prodRepo, "WID-01", "Widget")
	lot := addLot(lotRepo, p, "LOT-2026-001", 30, "100", 1)
	require.NoError(t, lotRepo.Reduce(ctx, lot.ID, types.NewQuantityFromFloat64(10)))

	v, err := svc.ValuationForProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, v.Value.Equal(types.MustMoney("2000")))
}

func TestValuationUnknownProduct(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.ValuationForProduct(context.Background(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestTotalValuation(t *testing.T) {
	svc, lotRepo, prodRepo := setup()
	ctx := context.Background()

	widget := addProduct(prodRepo, "WID-01", "Widget")
	gadget := addProduct(prodRepo, "GAD-01", "Gadget")
	addLot(lotRepo, widget, "LOT-2026-001", 30, "100", 1)
	addLot(lotRepo, widget, "LOT-2026-002", 50, "105", 2)
	addLot(lotRepo, gadget, "LOT-2026-003", 4, "250", 3)

	byProduct, total, err := svc.TotalValuation(ctx)
	require.NoError(t, err)
	require.Len(t, byProduct, 2)
	assert.True(t, total.Equal(types.MustMoney("9250")))
}

func TestTotalValuationEmpty(t *testing.T) {
	svc, _, _ := setup()

	byProduct, total, err := svc.TotalValuation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, byProduct)
	assert.True(t, total.IsZero())
}

func TestCheckConsistency(t *testing.T) {
	svc, lotRepo, prodRepo := setup()
	ctx := context.Background()

	p := addProduct(prodRepo, "WID-01", "Widget")
	addLot(lotRepo, p, "LOT-2026-001", 30, "100", 1)

	require.NoError(t, svc.CheckConsistency(ctx, p.ID))

	// Break the cache and expect the check to fail.
	p.CurrentStock += types.NewQuantityFromFloat64(1)
	err := svc.CheckConsistency(ctx, p.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diverged")
}
