package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// SpotOrderStore is an in-memory implementation of storage.SpotOrderStore.
// Every appended version is kept; the latest version of an order is the
// last one appended under its id.
type SpotOrderStore struct {
	mu       sync.RWMutex
	versions map[uuid.UUID][]*domain.SpotOrder // keyed by order id, append order
}

// NewSpotOrderStore creates a new in-memory spot order store.
func NewSpotOrderStore() *SpotOrderStore {
	return &SpotOrderStore{
		versions: make(map[uuid.UUID][]*domain.SpotOrder),
	}
}

// Append stores a new order version.
func (s *SpotOrderStore) Append(_ context.Context, o *domain.SpotOrder) error {
	if o == nil || o.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orderCopy := *o
	s.versions[o.ID] = append(s.versions[o.ID], &orderCopy)
	return nil
}

// Latest retrieves the most recent version of an order. Returns
// ErrNotFound if no version was ever appended.
func (s *SpotOrderStore) Latest(_ context.Context, orderID uuid.UUID) (*domain.SpotOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.versions[orderID]
	if !exists || len(history) == 0 {
		return nil, storage.ErrNotFound
	}

	orderCopy := *history[len(history)-1]
	return &orderCopy, nil
}

// History retrieves all versions of an order, oldest first.
func (s *SpotOrderStore) History(_ context.Context, orderID uuid.UUID) ([]*domain.SpotOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.versions[orderID]
	if !exists || len(history) == 0 {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.SpotOrder, 0, len(history))
	for _, o := range history {
		orderCopy := *o
		result = append(result, &orderCopy)
	}
	return result, nil
}

// GetByRoot retrieves the latest version of every order in a chain,
// ordered by order number then create time.
func (s *SpotOrderStore) GetByRoot(_ context.Context, rootID uuid.UUID) ([]*domain.SpotOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SpotOrder
	for _, history := range s.versions {
		latest := history[len(history)-1]
		if latest.RootID == rootID {
			orderCopy := *latest
			result = append(result, &orderCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].OrderNumber != result[j].OrderNumber {
			return result[i].OrderNumber < result[j].OrderNumber
		}
		return result[i].CreateTime.Before(result[j].CreateTime)
	})

	return result, nil
}

// Clear removes all spot orders.
func (s *SpotOrderStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions = make(map[uuid.UUID][]*domain.SpotOrder)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.SpotOrderStore = (*SpotOrderStore)(nil)
