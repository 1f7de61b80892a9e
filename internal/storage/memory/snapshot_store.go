package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*domain.OrderSnapshot
}

// NewSnapshotStore creates a new in-memory order snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[uuid.UUID]*domain.OrderSnapshot),
	}
}

// Insert adds a snapshot. Returns ErrDuplicateKey if the id exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.OrderSnapshot) error {
	if snap == nil || snap.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.ID]; exists {
		return storage.ErrDuplicateKey
	}

	snapCopy := *snap
	s.data[snap.ID] = &snapCopy
	return nil
}

// GetByOrder retrieves all snapshots for an order, sorted by timestamp ASC.
func (s *SnapshotStore) GetByOrder(_ context.Context, orderID uuid.UUID) ([]*domain.OrderSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OrderSnapshot
	for _, snap := range s.data {
		if snap.OrderID == orderID {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// Latest retrieves the most recent snapshot for an order. Returns
// ErrNotFound when no snapshot exists.
func (s *SnapshotStore) Latest(_ context.Context, orderID uuid.UUID) (*domain.OrderSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.OrderSnapshot
	for _, snap := range s.data {
		if snap.OrderID != orderID {
			continue
		}
		if latest == nil || snap.Timestamp.After(latest.Timestamp) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	snapCopy := *latest
	return &snapCopy, nil
}

// Clear removes all snapshots.
func (s *SnapshotStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[uuid.UUID]*domain.OrderSnapshot)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
