package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// PairStore is an in-memory implementation of storage.PairStore.
type PairStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.TradingPair
}

// NewPairStore creates a new in-memory trading pair store.
func NewPairStore() *PairStore {
	return &PairStore{
		data: make(map[uuid.UUID]*domain.TradingPair),
	}
}

// Insert adds a new pair. Returns ErrDuplicateKey if the id or pair code exists.
func (s *PairStore) Insert(_ context.Context, p *domain.TradingPair) error {
	if p == nil || p.ID == uuid.Nil || p.PairCode == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}
	for _, existing := range s.data {
		if existing.PairCode == p.PairCode {
			return storage.ErrDuplicateKey
		}
	}

	pairCopy := *p
	s.data[p.ID] = &pairCopy
	return nil
}

// GetByID retrieves a pair by id. Returns ErrNotFound if not exists.
func (s *PairStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TradingPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	pairCopy := *p
	return &pairCopy, nil
}

// GetByCode retrieves a pair by its pair code.
func (s *PairStore) GetByCode(_ context.Context, pairCode string) (*domain.TradingPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if p.PairCode == pairCode {
			pairCopy := *p
			return &pairCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAll retrieves all pairs, sorted by pair code.
func (s *PairStore) GetAll(_ context.Context) ([]*domain.TradingPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradingPair, 0, len(s.data))
	for _, p := range s.data {
		pairCopy := *p
		result = append(result, &pairCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PairCode < result[j].PairCode
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PairStore = (*PairStore)(nil)
