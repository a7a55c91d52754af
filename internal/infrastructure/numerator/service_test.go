package numerator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "lotledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: one counter per key,
// bumped by the increment argument.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.calls++

	key, _ := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	if strings.Contains(sql, "sys_sequences.current_val +") {
		m.counters[key] += increment
	} else {
		// SetNextNumber overwrites the counter.
		m.counters[key] = increment
	}
	return &mockRow{val: m.counters[key]}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.LotConfig()
	period := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "LOT-2026-001" {
		t.Errorf("expected LOT-2026-001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "LOT-2026-002" {
		t.Errorf("expected LOT-2026-002, got %s", num)
	}
}

func TestGetNextNumber_StrictDailyReset(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.ExitSlipConfig()

	day1 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "BS-20260831-0001" {
		t.Errorf("expected BS-20260831-0001, got %s", num)
	}

	// A new day is a new sequence key, so the counter starts over.
	num, err = svc.GetNextNumber(ctx, cfg, nil, day2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "BS-20260901-0001" {
		t.Errorf("expected BS-20260901-0001, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.OrderConfig()
	period := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		CacheSize: 10,
	}

	// First call reserves 1..10 and hands out 1.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-0001" {
		t.Errorf("expected ORD-2026-0001, got %s", num)
	}
	if q.calls != 1 {
		t.Errorf("expected 1 DB call, got %d", q.calls)
	}

	// Next nine numbers come from memory.
	for i := 2; i <= 10; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected range to be served from memory, got %d DB calls", q.calls)
	}

	// Eleventh call reserves the next range.
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-0011" {
		t.Errorf("expected ORD-2026-0011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected 2 DB calls, got %d", q.calls)
	}
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.OrderConfig()
	period := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		CacheSize: 10,
	}

	if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetNextNumber(ctx, cfg, period, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// After a manual set, the cached range must not be reused.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-0101" {
		t.Errorf("expected ORD-2026-0101, got %s", num)
	}
}
