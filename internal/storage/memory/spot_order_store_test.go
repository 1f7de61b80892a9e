package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

func newStoredSpotOrder(t *testing.T, orderNumber int) *domain.SpotOrder {
	t.Helper()
	order, err := domain.NewSpotOrder(domain.NewSpotOrderParams{
		BrokerID:      uuid.New(),
		PairCode:      "BTCUSD",
		AccountID:     uuid.New(),
		BacktestRunID: uuid.New(),
		OrderNumber:   orderNumber,
		Direction:     domain.Long,
		CreateTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Volume:        dec("1"),
	})
	if err != nil {
		t.Fatalf("NewSpotOrder failed: %v", err)
	}
	return order
}

func TestSpotOrderStore_AppendVersionsAndLatest(t *testing.T) {
	store := NewSpotOrderStore()
	ctx := context.Background()
	order := newStoredSpotOrder(t, 1)

	if err := store.Append(ctx, order); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	filled, err := order.FilledCopy(order.CreateTime.Add(time.Minute), dec("50000"), nil, nil)
	if err != nil {
		t.Fatalf("FilledCopy failed: %v", err)
	}
	if err := store.Append(ctx, filled); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	latest, err := store.Latest(ctx, order.ID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Status != domain.OrderFilled {
		t.Errorf("Latest must be the last appended version, got status %s", latest.Status)
	}

	history, err := store.History(ctx, order.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(history))
	}
	if history[0].Status != domain.OrderPending || history[1].Status != domain.OrderFilled {
		t.Errorf("history out of append order")
	}
}

func TestSpotOrderStore_NotFound(t *testing.T) {
	store := NewSpotOrderStore()
	ctx := context.Background()

	if _, err := store.Latest(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.History(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSpotOrderStore_GetByRoot(t *testing.T) {
	store := NewSpotOrderStore()
	ctx := context.Background()
	root := newStoredSpotOrder(t, 1)

	if err := store.Append(ctx, root); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	child, err := root.ChildCopy(root.CreateTime.Add(time.Minute), dec("0.5"), nil)
	if err != nil {
		t.Fatalf("ChildCopy failed: %v", err)
	}
	child.OrderNumber = 2
	if err := store.Append(ctx, child); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Fill the child; GetByRoot must surface the filled version
	filledChild, err := child.FilledCopy(child.CreateTime.Add(time.Minute), dec("50000"), nil, nil)
	if err != nil {
		t.Fatalf("FilledCopy failed: %v", err)
	}
	if err := store.Append(ctx, filledChild); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	unrelated := newStoredSpotOrder(t, 3)
	if err := store.Append(ctx, unrelated); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	chain, err := store.GetByRoot(ctx, root.RootID)
	if err != nil {
		t.Fatalf("GetByRoot failed: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("expected 2 orders in chain, got %d", len(chain))
	}
	if chain[0].ID != root.ID || chain[1].ID != child.ID {
		t.Errorf("chain not ordered by order number")
	}
	if chain[1].Status != domain.OrderFilled {
		t.Errorf("chain must carry the latest version, got status %s", chain[1].Status)
	}
}
