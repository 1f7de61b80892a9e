package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[uuid.UUID]*domain.Account),
	}
}

// Insert adds a new account. Returns ErrDuplicateKey if the id exists.
func (s *AccountStore) Insert(_ context.Context, a *domain.Account) error {
	if a == nil || a.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	accountCopy := *a
	s.data[a.ID] = &accountCopy
	return nil
}

// GetByID retrieves an account by id. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	accountCopy := *a
	return &accountCopy, nil
}

// GetAll retrieves all accounts, sorted by id for deterministic order.
func (s *AccountStore) GetAll(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Account, 0, len(s.data))
	for _, a := range s.data {
		accountCopy := *a
		result = append(result, &accountCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AccountStore = (*AccountStore)(nil)
