package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// RulesStore is an in-memory implementation of storage.RulesStore.
type RulesStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.TradingRules
}

// NewRulesStore creates a new in-memory trading rules store.
func NewRulesStore() *RulesStore {
	return &RulesStore{
		data: make(map[uuid.UUID]*domain.TradingRules),
	}
}

// Insert adds new rules. Returns ErrDuplicateKey if the id or the
// (broker, pair code) combination exists.
func (s *RulesStore) Insert(_ context.Context, r *domain.TradingRules) error {
	if r == nil || r.ID == uuid.Nil || r.PairCode == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}
	for _, existing := range s.data {
		if existing.BrokerID == r.BrokerID && existing.PairCode == r.PairCode {
			return storage.ErrDuplicateKey
		}
	}

	rulesCopy := *r
	s.data[r.ID] = &rulesCopy
	return nil
}

// GetByID retrieves rules by id. Returns ErrNotFound if not exists.
func (s *RulesStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TradingRules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rulesCopy := *r
	return &rulesCopy, nil
}

// GetByBrokerPair retrieves the rules for a broker and pair code.
func (s *RulesStore) GetByBrokerPair(_ context.Context, brokerID uuid.UUID, pairCode string) (*domain.TradingRules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data {
		if r.BrokerID == brokerID && r.PairCode == pairCode {
			rulesCopy := *r
			return &rulesCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAll retrieves all rules, sorted by pair code.
func (s *RulesStore) GetAll(_ context.Context) ([]*domain.TradingRules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradingRules, 0, len(s.data))
	for _, r := range s.data {
		rulesCopy := *r
		result = append(result, &rulesCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PairCode < result[j].PairCode
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.RulesStore = (*RulesStore)(nil)
