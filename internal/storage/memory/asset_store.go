package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// AssetStore is an in-memory implementation of storage.AssetStore.
type AssetStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.Asset
}

// NewAssetStore creates a new in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		data: make(map[uuid.UUID]*domain.Asset),
	}
}

// Insert adds a new asset. Returns ErrDuplicateKey if the id or ticker exists.
func (s *AssetStore) Insert(_ context.Context, a *domain.Asset) error {
	if a == nil || a.ID == uuid.Nil || a.Ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}
	for _, existing := range s.data {
		if existing.Ticker == a.Ticker {
			return storage.ErrDuplicateKey
		}
	}

	// Store a copy to prevent external mutation
	assetCopy := *a
	s.data[a.ID] = &assetCopy
	return nil
}

// GetByID retrieves an asset by id. Returns ErrNotFound if not exists.
func (s *AssetStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	assetCopy := *a
	return &assetCopy, nil
}

// GetByTicker retrieves an asset by its unique ticker.
func (s *AssetStore) GetByTicker(_ context.Context, ticker string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.data {
		if a.Ticker == ticker {
			assetCopy := *a
			return &assetCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAll retrieves all assets, sorted by ticker.
func (s *AssetStore) GetAll(_ context.Context) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Asset, 0, len(s.data))
	for _, a := range s.data {
		assetCopy := *a
		result = append(result, &assetCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AssetStore = (*AssetStore)(nil)
