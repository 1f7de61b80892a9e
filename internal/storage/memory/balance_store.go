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

// BalanceStore is an in-memory implementation of storage.BalanceStore.
type BalanceStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.Balance
}

// NewBalanceStore creates a new in-memory balance snapshot store.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{
		data: make(map[uuid.UUID]*domain.Balance),
	}
}

// Insert adds a balance snapshot. Returns ErrDuplicateKey if the id exists.
func (s *BalanceStore) Insert(_ context.Context, b *domain.Balance) error {
	if b == nil || b.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; exists {
		return storage.ErrDuplicateKey
	}

	balanceCopy := *b
	s.data[b.ID] = &balanceCopy
	return nil
}

// GetByAccount retrieves all snapshots for an account and run, sorted by
// timestamp ASC.
func (s *BalanceStore) GetByAccount(_ context.Context, accountID, runID uuid.UUID) ([]*domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Balance
	for _, b := range s.data {
		if b.AccountID == accountID && b.BacktestRunID == runID {
			balanceCopy := *b
			result = append(result, &balanceCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// Latest retrieves the most recent snapshot for an account and run.
// Returns ErrNotFound when no snapshot exists.
func (s *BalanceStore) Latest(_ context.Context, accountID, runID uuid.UUID) (*domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Balance
	for _, b := range s.data {
		if b.AccountID != accountID || b.BacktestRunID != runID {
			continue
		}
		if latest == nil || b.Timestamp.After(latest.Timestamp) {
			latest = b
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	balanceCopy := *latest
	return &balanceCopy, nil
}

// AtOrBefore retrieves the snapshot at or before the timestamp. Returns
// ErrNotFound when no snapshot is old enough.
func (s *BalanceStore) AtOrBefore(_ context.Context, accountID, runID uuid.UUID, ts time.Time) (*domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Balance
	for _, b := range s.data {
		if b.AccountID != accountID || b.BacktestRunID != runID {
			continue
		}
		if b.Timestamp.After(ts) {
			continue
		}
		if best == nil || b.Timestamp.After(best.Timestamp) {
			best = b
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}

	balanceCopy := *best
	return &balanceCopy, nil
}

// Clear removes all snapshots.
func (s *BalanceStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[uuid.UUID]*domain.Balance)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.BalanceStore = (*BalanceStore)(nil)
