package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of
// storage.TransactionStore. The ledger is append-only: transactions are
// never updated or deleted individually.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.Transaction
	seq  map[uuid.UUID]int // insertion order, tie-breaker for equal timestamps
	next int
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[uuid.UUID]*domain.Transaction),
		seq:  make(map[uuid.UUID]int),
	}
}

// Append adds a transaction. Returns ErrDuplicateKey if the id exists.
func (s *TransactionStore) Append(_ context.Context, t *domain.Transaction) error {
	if t == nil || t.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	txCopy := *t
	s.data[t.ID] = &txCopy
	s.seq[t.ID] = s.next
	s.next++
	return nil
}

// GetByAccount retrieves all transactions for an account in chronological
// order. Equal timestamps preserve insertion order.
func (s *TransactionStore) GetByAccount(_ context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.data {
		if t.AccountID == accountID {
			txCopy := *t
			result = append(result, &txCopy)
		}
	}

	s.sortChronological(result)
	return result, nil
}

// GetSince retrieves transactions for an account strictly after the given
// timestamp, in chronological order.
func (s *TransactionStore) GetSince(_ context.Context, accountID uuid.UUID, after time.Time) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.data {
		if t.AccountID == accountID && t.Timestamp.After(after) {
			txCopy := *t
			result = append(result, &txCopy)
		}
	}

	s.sortChronological(result)
	return result, nil
}

// GetByRun retrieves all transactions for a backtest run in chronological
// order.
func (s *TransactionStore) GetByRun(_ context.Context, runID uuid.UUID) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.data {
		if t.BacktestRunID == runID {
			txCopy := *t
			result = append(result, &txCopy)
		}
	}

	s.sortChronological(result)
	return result, nil
}

// Clear removes all transactions.
func (s *TransactionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[uuid.UUID]*domain.Transaction)
	s.seq = make(map[uuid.UUID]int)
	s.next = 0
	return nil
}

// sortChronological must be called with the lock held.
func (s *TransactionStore) sortChronological(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.Before(txs[j].Timestamp)
		}
		return s.seq[txs[i].ID] < s.seq[txs[j].ID]
	})
}

// Verify interface compliance at compile time.
var _ storage.TransactionStore = (*TransactionStore)(nil)
