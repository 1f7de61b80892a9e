package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// OrderStore is an in-memory implementation of storage.OrderStore.
type OrderStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.TradingOrder
}

// NewOrderStore creates a new in-memory trading order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		data: make(map[uuid.UUID]*domain.TradingOrder),
	}
}

// Save inserts or updates an order.
func (s *OrderStore) Save(_ context.Context, o *domain.TradingOrder) error {
	if o == nil || o.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orderCopy := *o
	s.data[o.ID] = &orderCopy
	return nil
}

// GetByID retrieves an order by id. Returns ErrNotFound if not exists.
func (s *OrderStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TradingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	orderCopy := *o
	return &orderCopy, nil
}

// GetByRun retrieves all orders for a backtest run, ordered by create time.
func (s *OrderStore) GetByRun(_ context.Context, runID uuid.UUID) ([]*domain.TradingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradingOrder
	for _, o := range s.data {
		if o.BacktestRunID == runID {
			orderCopy := *o
			result = append(result, &orderCopy)
		}
	}

	sortOrders(result)
	return result, nil
}

// GetByAccount retrieves all orders for an account, ordered by create time.
func (s *OrderStore) GetByAccount(_ context.Context, accountID uuid.UUID) ([]*domain.TradingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradingOrder
	for _, o := range s.data {
		if o.AccountID == accountID {
			orderCopy := *o
			result = append(result, &orderCopy)
		}
	}

	sortOrders(result)
	return result, nil
}

// GetByStatus retrieves all orders in the given status, ordered by create time.
func (s *OrderStore) GetByStatus(_ context.Context, status domain.OrderStatus) ([]*domain.TradingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradingOrder
	for _, o := range s.data {
		if o.Status == status {
			orderCopy := *o
			result = append(result, &orderCopy)
		}
	}

	sortOrders(result)
	return result, nil
}

// GetActive retrieves pending and filled orders for an account, ordered by
// create time.
func (s *OrderStore) GetActive(_ context.Context, accountID uuid.UUID) ([]*domain.TradingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradingOrder
	for _, o := range s.data {
		if o.AccountID == accountID && o.IsActive() {
			orderCopy := *o
			result = append(result, &orderCopy)
		}
	}

	sortOrders(result)
	return result, nil
}

// Clear removes all orders.
func (s *OrderStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[uuid.UUID]*domain.TradingOrder)
	return nil
}

// sortOrders orders by create time ASC, with id as a tie-breaker so that
// results are deterministic within a single bar.
func sortOrders(orders []*domain.TradingOrder) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreateTime.Equal(orders[j].CreateTime) {
			return orders[i].CreateTime.Before(orders[j].CreateTime)
		}
		return orders[i].ID.String() < orders[j].ID.String()
	})
}

// Verify interface compliance at compile time.
var _ storage.OrderStore = (*OrderStore)(nil)
