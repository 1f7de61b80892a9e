package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

func newStoredTx(t *testing.T, accountID, runID uuid.UUID, ts time.Time, description string) *domain.Transaction {
	t.Helper()
	tx, err := domain.NewTransaction(accountID, runID, ts, description, dec("100"), decimal.Zero, domain.TxAdjustment, nil)
	if err != nil {
		t.Fatalf("NewTransaction failed: %v", err)
	}
	return tx
}

func TestTransactionStore_AppendAndGetByAccount(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	accountID, runID := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	second := newStoredTx(t, accountID, runID, base.Add(time.Hour), "second")
	first := newStoredTx(t, accountID, runID, base, "first")
	other := newStoredTx(t, uuid.New(), runID, base, "other account")

	for _, tx := range []*domain.Transaction{second, first, other} {
		if err := store.Append(ctx, tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.GetByAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("GetByAccount failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].Description != "first" || got[1].Description != "second" {
		t.Errorf("transactions not in chronological order: %s, %s", got[0].Description, got[1].Description)
	}
}

func TestTransactionStore_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	accountID, runID := uuid.New(), uuid.New()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, description := range []string{"a", "b", "c", "d"} {
		tx := newStoredTx(t, accountID, runID, ts, description)
		if err := store.Append(ctx, tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.GetByAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("GetByAccount failed: %v", err)
	}
	want := []string{"a", "b", "c", "d"}
	for i, tx := range got {
		if tx.Description != want[i] {
			t.Errorf("position %d: got %s, want %s", i, tx.Description, want[i])
		}
	}
}

func TestTransactionStore_GetSinceIsStrictlyAfter(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	accountID, runID := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	at := newStoredTx(t, accountID, runID, base, "at cutoff")
	after := newStoredTx(t, accountID, runID, base.Add(time.Second), "after cutoff")

	for _, tx := range []*domain.Transaction{at, after} {
		if err := store.Append(ctx, tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.GetSince(ctx, accountID, base)
	if err != nil {
		t.Fatalf("GetSince failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction strictly after cutoff, got %d", len(got))
	}
	if got[0].Description != "after cutoff" {
		t.Errorf("wrong transaction returned: %s", got[0].Description)
	}
}

func TestTransactionStore_GetByRun(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	accountID := uuid.New()
	runID, otherRun := uuid.New(), uuid.New()
	ts := time.Now().UTC()

	mine := newStoredTx(t, accountID, runID, ts, "mine")
	theirs := newStoredTx(t, accountID, otherRun, ts, "theirs")

	for _, tx := range []*domain.Transaction{mine, theirs} {
		if err := store.Append(ctx, tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.GetByRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 1 || got[0].Description != "mine" {
		t.Errorf("GetByRun returned wrong transactions: %d", len(got))
	}
}

func TestTransactionStore_DuplicateKey(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	tx := newStoredTx(t, uuid.New(), uuid.New(), time.Now().UTC(), "once")

	if err := store.Append(ctx, tx); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, tx); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}
