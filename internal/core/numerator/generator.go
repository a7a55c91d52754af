// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document and lot numbers.
//
// Counters are allocated atomically per prefix+period (UPDATE .. RETURNING on a
// sequence row), so numbers stay collision-free under concurrent creation.
// Deriving a number from a row count is not an option here: two concurrent
// receipts would count the same rows and mint the same lot number.
type Generator interface {
	// GetNextNumber generates the next number for the config's prefix.
	// Patterns: LOT-2026-001, BS-20260831-0001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next counter value (for migrations).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
