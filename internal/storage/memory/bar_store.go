package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore. Each
// (symbol, timeframe) series is kept as a slice sorted ascending by
// timestamp so that range queries are binary searches.
type BarStore struct {
	mu     sync.RWMutex
	series map[seriesKey][]*domain.Bar
}

type seriesKey struct {
	symbol    string
	timeframe string
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		series: make(map[seriesKey][]*domain.Bar),
	}
}

// Add inserts one bar, preserving timestamp order. A bar with a duplicate
// timestamp replaces the existing one in place.
func (s *BarStore) Add(_ context.Context, timeframe string, bar *domain.Bar) error {
	if bar == nil || bar.Symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.insert(timeframe, bar)
	return nil
}

// AddBatch inserts multiple bars.
func (s *BarStore) AddBatch(_ context.Context, timeframe string, bars []*domain.Bar) error {
	if timeframe == "" {
		return storage.ErrInvalidInput
	}
	for _, bar := range bars {
		if bar == nil || bar.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bar := range bars {
		s.insert(timeframe, bar)
	}
	return nil
}

// insert must be called with the lock held.
func (s *BarStore) insert(timeframe string, bar *domain.Bar) {
	key := seriesKey{symbol: bar.Symbol, timeframe: timeframe}
	bars := s.series[key]

	barCopy := *bar
	i := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Timestamp.Before(barCopy.Timestamp)
	})
	if i < len(bars) && bars[i].Timestamp.Equal(barCopy.Timestamp) {
		bars[i] = &barCopy
		return
	}

	bars = append(bars, nil)
	copy(bars[i+1:], bars[i:])
	bars[i] = &barCopy
	s.series[key] = bars
}

// GetRange retrieves bars within [start, end] (inclusive).
func (s *BarStore) GetRange(_ context.Context, symbol, timeframe string, start, end time.Time) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.series[seriesKey{symbol: symbol, timeframe: timeframe}]
	lo := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(bars), func(i int) bool {
		return bars[i].Timestamp.After(end)
	})

	result := make([]*domain.Bar, 0, hi-lo)
	for _, bar := range bars[lo:hi] {
		barCopy := *bar
		result = append(result, &barCopy)
	}
	return result, nil
}

// GetAll retrieves all bars for a symbol and timeframe, oldest first.
func (s *BarStore) GetAll(_ context.Context, symbol, timeframe string) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.series[seriesKey{symbol: symbol, timeframe: timeframe}]
	result := make([]*domain.Bar, 0, len(bars))
	for _, bar := range bars {
		barCopy := *bar
		result = append(result, &barCopy)
	}
	return result, nil
}

// Latest retrieves the most recent bar. Returns ErrNotFound when the
// series is empty.
func (s *BarStore) Latest(_ context.Context, symbol, timeframe string) (*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.series[seriesKey{symbol: symbol, timeframe: timeframe}]
	if len(bars) == 0 {
		return nil, storage.ErrNotFound
	}

	barCopy := *bars[len(bars)-1]
	return &barCopy, nil
}

// LastN retrieves up to n most recent bars, oldest first.
func (s *BarStore) LastN(_ context.Context, symbol, timeframe string, n int) ([]*domain.Bar, error) {
	if n < 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.series[seriesKey{symbol: symbol, timeframe: timeframe}]
	if n > len(bars) {
		n = len(bars)
	}

	result := make([]*domain.Bar, 0, n)
	for _, bar := range bars[len(bars)-n:] {
		barCopy := *bar
		result = append(result, &barCopy)
	}
	return result, nil
}

// Symbols lists the symbols with stored data, sorted.
func (s *BarStore) Symbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for key := range s.series {
		seen[key.symbol] = struct{}{}
	}

	result := make([]string, 0, len(seen))
	for symbol := range seen {
		result = append(result, symbol)
	}
	sort.Strings(result)
	return result, nil
}

// Clear removes all bars.
func (s *BarStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series = make(map[seriesKey][]*domain.Bar)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.BarStore = (*BarStore)(nil)
