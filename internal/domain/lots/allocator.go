package lots

import (
	"lotledger/internal/core/apperror"
	"lotledger/internal/core/types"
)

// Consumption is one lot's share of a withdrawal.
type Consumption struct {
	Lot      *Lot
	Quantity types.Quantity
}

// TotalAvailable sums the available quantity over the given lots.
func TotalAvailable(lots []*Lot) types.Quantity {
	var total types.Quantity
	for _, lot := range lots {
		total += lot.AvailableQuantity
	}
	return total
}

// Allocate plans a FIFO withdrawal of required over lots.
//
// The lots must already be in FIFO order (the order AvailableForProduct
// returns them in). Each lot is drained fully before the next one is
// touched; the last lot used may be consumed partially. The plan never
// contains zero-quantity consumptions.
//
// Allocate does not mutate the lots. The caller must have verified the
// total available beforehand; running short here means the frozen view
// changed under us, which the row locks are supposed to prevent.
func Allocate(lots []*Lot, required types.Quantity) ([]Consumption, error) {
	if !required.IsPositive() {
		return nil, apperror.NewInvariantViolation("withdrawal quantity must be positive").
			WithDetail("required", required.String())
	}

	plan := make([]Consumption, 0, len(lots))
	remaining := required

	for _, lot := range lots {
		if remaining.IsZero() {
			break
		}
		if lot.AvailableQuantity.IsZero() {
			continue
		}
		take := remaining.Min(lot.AvailableQuantity)
		plan = append(plan, Consumption{Lot: lot, Quantity: take})
		remaining -= take
	}

	if remaining.IsPositive() {
		return nil, apperror.NewInvariantViolation("lot view exhausted during allocation").
			WithDetail("required", required.String()).
			WithDetail("unallocated", remaining.String())
	}

	return plan, nil
}
