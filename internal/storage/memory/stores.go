package memory

import (
	"context"
	"fmt"

	"backtest-lab/internal/storage"
)

// Stores bundles every store a backtest needs. Configuration stores
// (assets, brokers, pairs, rules, accounts) persist across runs; runtime
// stores (orders, transactions, balances, snapshots) are cleared between
// runs via ResetRuntimeState.
type Stores struct {
	Assets       storage.AssetStore
	Brokers      storage.BrokerStore
	Pairs        storage.PairStore
	Rules        storage.RulesStore
	Accounts     storage.AccountStore
	Orders       storage.OrderStore
	SpotOrders   storage.SpotOrderStore
	Transactions storage.TransactionStore
	Balances     storage.BalanceStore
	Bars         storage.BarStore
	Snapshots    storage.SnapshotStore
}

// NewStores creates a full set of in-memory stores.
func NewStores() *Stores {
	return &Stores{
		Assets:       NewAssetStore(),
		Brokers:      NewBrokerStore(),
		Pairs:        NewPairStore(),
		Rules:        NewRulesStore(),
		Accounts:     NewAccountStore(),
		Orders:       NewOrderStore(),
		SpotOrders:   NewSpotOrderStore(),
		Transactions: NewTransactionStore(),
		Balances:     NewBalanceStore(),
		Bars:         NewBarStore(),
		Snapshots:    NewSnapshotStore(),
	}
}

// ResetRuntimeState clears all per-run state, leaving configuration and
// market data intact.
func (s *Stores) ResetRuntimeState(ctx context.Context) error {
	if err := s.Orders.Clear(ctx); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	if err := s.SpotOrders.Clear(ctx); err != nil {
		return fmt.Errorf("clear spot orders: %w", err)
	}
	if err := s.Transactions.Clear(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if err := s.Balances.Clear(ctx); err != nil {
		return fmt.Errorf("clear balances: %w", err)
	}
	if err := s.Snapshots.Clear(ctx); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}
