package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

func newStoredBar(t *testing.T, symbol string, ts time.Time, close string) *domain.Bar {
	t.Helper()
	bar, err := domain.NewBarFromClose(ts, symbol, dec(close))
	if err != nil {
		t.Fatalf("NewBarFromClose failed: %v", err)
	}
	return bar
}

func TestBarStore_AddAndGetAll(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Out of order on purpose; the store keeps the series sorted
	for i, close := range []string{"103", "101", "102"} {
		offsets := []int{2, 0, 1}
		bar := newStoredBar(t, "BTCUSD", base.AddDate(0, 0, offsets[i]), close)
		if err := store.Add(ctx, "1d", bar); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	all, err := store.GetAll(ctx, "BTCUSD", "1d")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(all))
	}
	want := []string{"101", "102", "103"}
	for i, bar := range all {
		if !bar.Close.Equal(dec(want[i])) {
			t.Errorf("position %d: got close %s, want %s", i, bar.Close, want[i])
		}
	}
}

func TestBarStore_DuplicateTimestampReplaces(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.Add(ctx, "1d", newStoredBar(t, "BTCUSD", ts, "100")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, "1d", newStoredBar(t, "BTCUSD", ts, "200")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	all, err := store.GetAll(ctx, "BTCUSD", "1d")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 bar after replacement, got %d", len(all))
	}
	if !all[0].Close.Equal(dec("200")) {
		t.Errorf("expected replaced close 200, got %s", all[0].Close)
	}
}

func TestBarStore_GetRangeInclusive(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var bars []*domain.Bar
	for day := 0; day < 5; day++ {
		bars = append(bars, newStoredBar(t, "BTCUSD", base.AddDate(0, 0, day), "100"))
	}
	if err := store.AddBatch(ctx, "1d", bars); err != nil {
		t.Fatalf("AddBatch failed: %v", err)
	}

	got, err := store.GetRange(ctx, "BTCUSD", "1d", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bars in inclusive range, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.AddDate(0, 0, 1)) || !got[2].Timestamp.Equal(base.AddDate(0, 0, 3)) {
		t.Errorf("range bounds wrong: %s .. %s", got[0].Timestamp, got[2].Timestamp)
	}
}

func TestBarStore_LatestAndLastN(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.Latest(ctx, "BTCUSD", "1d"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on empty series, got %v", err)
	}

	for day := 0; day < 3; day++ {
		bar := newStoredBar(t, "BTCUSD", base.AddDate(0, 0, day), "100")
		if err := store.Add(ctx, "1d", bar); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	latest, err := store.Latest(ctx, "BTCUSD", "1d")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if !latest.Timestamp.Equal(base.AddDate(0, 0, 2)) {
		t.Errorf("wrong latest bar: %s", latest.Timestamp)
	}

	lastTwo, err := store.LastN(ctx, "BTCUSD", "1d", 2)
	if err != nil {
		t.Fatalf("LastN failed: %v", err)
	}
	if len(lastTwo) != 2 || !lastTwo[0].Timestamp.Before(lastTwo[1].Timestamp) {
		t.Errorf("LastN must return the newest bars oldest first")
	}

	all, err := store.LastN(ctx, "BTCUSD", "1d", 10)
	if err != nil {
		t.Fatalf("LastN failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("LastN beyond series length should return all bars, got %d", len(all))
	}

	if _, err := store.LastN(ctx, "BTCUSD", "1d", -1); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative n, got %v", err)
	}
}

func TestBarStore_SeriesAreIndependent(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := store.Add(ctx, "1d", newStoredBar(t, "BTCUSD", ts, "100")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, "1h", newStoredBar(t, "BTCUSD", ts, "101")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, "1d", newStoredBar(t, "ETHUSD", ts, "10")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	daily, err := store.GetAll(ctx, "BTCUSD", "1d")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(daily) != 1 || !daily[0].Close.Equal(dec("100")) {
		t.Errorf("timeframes must not share series")
	}

	symbols, err := store.Symbols(ctx)
	if err != nil {
		t.Fatalf("Symbols failed: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "BTCUSD" || symbols[1] != "ETHUSD" {
		t.Errorf("Symbols mismatch: %v", symbols)
	}
}
