package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// Reconcile folds a transaction stream onto a prior balance and produces
// a new snapshot at ts. A nil prior means folding from zero, so the
// stream must begin with the account's opening deposit. Reconciliation is
// the only way a Balance comes into existence; if the fold drives either
// component negative the transaction stream is inconsistent and the fold
// fails.
func Reconcile(accountID, runID uuid.UUID, ts time.Time, prior *domain.Balance, txs []*domain.Transaction) (*domain.Balance, error) {
	available := decimal.Zero
	unavailable := decimal.Zero
	if prior != nil {
		available = prior.Available
		unavailable = prior.Unavailable
	}

	for _, tx := range txs {
		available = available.Add(tx.AvailableChange)
		unavailable = unavailable.Add(tx.UnavailableChange)
	}

	balance, err := domain.NewBalance(accountID, runID, ts, available, unavailable)
	if err != nil {
		return nil, fmt.Errorf("reconcile account %s at %s: %w", accountID, ts, err)
	}
	return balance, nil
}

// Ledger posts transactions and maintains per-account balance snapshots
// on top of the transaction and balance stores.
type Ledger struct {
	transactions storage.TransactionStore
	balances     storage.BalanceStore
}

// New creates a Ledger over the given stores.
func New(transactions storage.TransactionStore, balances storage.BalanceStore) *Ledger {
	return &Ledger{transactions: transactions, balances: balances}
}

// Post appends a transaction to the ledger.
func (l *Ledger) Post(ctx context.Context, tx *domain.Transaction) error {
	if err := l.transactions.Append(ctx, tx); err != nil {
		return fmt.Errorf("post transaction %s: %w", tx.Type, err)
	}
	return nil
}

// PostAll appends multiple transactions. Fails on the first error.
func (l *Ledger) PostAll(ctx context.Context, txs []*domain.Transaction) error {
	for _, tx := range txs {
		if err := l.Post(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot reconciles all transactions since the last snapshot into a new
// Balance at ts and stores it. The first snapshot of a run folds the
// account's full transaction history from zero.
func (l *Ledger) Snapshot(ctx context.Context, accountID, runID uuid.UUID, ts time.Time) (*domain.Balance, error) {
	prior, err := l.balances.Latest(ctx, accountID, runID)
	if err != nil && err != storage.ErrNotFound {
		return nil, fmt.Errorf("load prior balance: %w", err)
	}

	var txs []*domain.Transaction
	if prior == nil {
		txs, err = l.transactions.GetByAccount(ctx, accountID)
	} else {
		txs, err = l.transactions.GetSince(ctx, accountID, prior.Timestamp)
	}
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	balance, err := Reconcile(accountID, runID, ts, prior, txs)
	if err != nil {
		return nil, err
	}
	if err := l.balances.Insert(ctx, balance); err != nil {
		return nil, fmt.Errorf("store balance snapshot: %w", err)
	}
	return balance, nil
}

// CurrentAvailable returns the available balance an account would have if
// reconciled right now, without storing a snapshot. Used for margin
// checks between snapshots.
func (l *Ledger) CurrentAvailable(ctx context.Context, accountID, runID uuid.UUID) (decimal.Decimal, error) {
	txs, err := l.transactions.GetByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load transactions: %w", err)
	}

	available := decimal.Zero
	for _, tx := range txs {
		available = available.Add(tx.AvailableChange)
	}
	return available, nil
}

// Verify replays an account's full transaction history from zero and
// checks it against the latest stored snapshot. Returns an error when the
// replayed totals diverge from the snapshot.
func (l *Ledger) Verify(ctx context.Context, accountID, runID uuid.UUID) error {
	latest, err := l.balances.Latest(ctx, accountID, runID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil
		}
		return fmt.Errorf("load latest balance: %w", err)
	}

	txs, err := l.transactions.GetByAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	available := decimal.Zero
	unavailable := decimal.Zero
	for _, tx := range txs {
		if tx.Timestamp.After(latest.Timestamp) {
			continue
		}
		available = available.Add(tx.AvailableChange)
		unavailable = unavailable.Add(tx.UnavailableChange)
	}

	if !available.Equal(latest.Available) || !unavailable.Equal(latest.Unavailable) {
		return fmt.Errorf("ledger replay mismatch for account %s: replayed %s/%s, snapshot %s/%s",
			accountID, available, unavailable, latest.Available, latest.Unavailable)
	}
	return nil
}
