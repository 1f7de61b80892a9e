package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// BrokerStore is an in-memory implementation of storage.BrokerStore.
type BrokerStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.Broker
}

// NewBrokerStore creates a new in-memory broker store.
func NewBrokerStore() *BrokerStore {
	return &BrokerStore{
		data: make(map[uuid.UUID]*domain.Broker),
	}
}

// Insert adds a new broker. Returns ErrDuplicateKey if the id or code exists.
func (s *BrokerStore) Insert(_ context.Context, b *domain.Broker) error {
	if b == nil || b.ID == uuid.Nil || b.Code == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; exists {
		return storage.ErrDuplicateKey
	}
	for _, existing := range s.data {
		if existing.Code == b.Code {
			return storage.ErrDuplicateKey
		}
	}

	brokerCopy := *b
	s.data[b.ID] = &brokerCopy
	return nil
}

// GetByID retrieves a broker by id. Returns ErrNotFound if not exists.
func (s *BrokerStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	brokerCopy := *b
	return &brokerCopy, nil
}

// GetByCode retrieves a broker by its unique short code.
func (s *BrokerStore) GetByCode(_ context.Context, code string) (*domain.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.data {
		if b.Code == code {
			brokerCopy := *b
			return &brokerCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAll retrieves all brokers, sorted by code.
func (s *BrokerStore) GetAll(_ context.Context) ([]*domain.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Broker, 0, len(s.data))
	for _, b := range s.data {
		brokerCopy := *b
		result = append(result, &brokerCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.BrokerStore = (*BrokerStore)(nil)
