package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"backtest-lab/internal/domain"
)

// AssetStore provides access to asset configuration.
type AssetStore interface {
	// Insert adds a new asset. Returns ErrDuplicateKey if the id or
	// ticker already exists.
	Insert(ctx context.Context, a *domain.Asset) error

	// GetByID retrieves an asset by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error)

	// GetByTicker retrieves an asset by its unique ticker.
	GetByTicker(ctx context.Context, ticker string) (*domain.Asset, error)

	// GetAll retrieves all assets.
	GetAll(ctx context.Context) ([]*domain.Asset, error)
}

// BrokerStore provides access to broker configuration.
type BrokerStore interface {
	// Insert adds a new broker. Returns ErrDuplicateKey if the id or
	// code already exists.
	Insert(ctx context.Context, b *domain.Broker) error

	// GetByID retrieves a broker by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Broker, error)

	// GetByCode retrieves a broker by its unique short code.
	GetByCode(ctx context.Context, code string) (*domain.Broker, error)

	// GetAll retrieves all brokers.
	GetAll(ctx context.Context) ([]*domain.Broker, error)
}

// PairStore provides access to trading pair configuration.
type PairStore interface {
	// Insert adds a new pair. Returns ErrDuplicateKey if the id or pair
	// code already exists.
	Insert(ctx context.Context, p *domain.TradingPair) error

	// GetByID retrieves a pair by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TradingPair, error)

	// GetByCode retrieves a pair by its pair code.
	GetByCode(ctx context.Context, pairCode string) (*domain.TradingPair, error)

	// GetAll retrieves all pairs.
	GetAll(ctx context.Context) ([]*domain.TradingPair, error)
}

// RulesStore provides access to trading rules keyed by (broker, pair).
type RulesStore interface {
	// Insert adds new rules. Returns ErrDuplicateKey if rules for the
	// (broker, pair code) combination already exist.
	Insert(ctx context.Context, r *domain.TradingRules) error

	// GetByID retrieves rules by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TradingRules, error)

	// GetByBrokerPair retrieves the rules for a broker and pair code.
	GetByBrokerPair(ctx context.Context, brokerID uuid.UUID, pairCode string) (*domain.TradingRules, error)

	// GetAll retrieves all rules.
	GetAll(ctx context.Context) ([]*domain.TradingRules, error)
}

// AccountStore provides access to account configuration.
type AccountStore interface {
	// Insert adds a new account. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, a *domain.Account) error

	// GetByID retrieves an account by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetAll retrieves all accounts.
	GetAll(ctx context.Context) ([]*domain.Account, error)
}

// OrderStore provides access to trading orders. Orders are mutable during
// their lifecycle, so Save upserts.
type OrderStore interface {
	// Save inserts or updates an order.
	Save(ctx context.Context, o *domain.TradingOrder) error

	// GetByID retrieves an order by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TradingOrder, error)

	// GetByRun retrieves all orders for a backtest run.
	GetByRun(ctx context.Context, runID uuid.UUID) ([]*domain.TradingOrder, error)

	// GetByAccount retrieves all orders for an account.
	GetByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.TradingOrder, error)

	// GetByStatus retrieves all orders in the given status.
	GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.TradingOrder, error)

	// GetActive retrieves pending and filled orders for an account.
	GetActive(ctx context.Context, accountID uuid.UUID) ([]*domain.TradingOrder, error)

	// Clear removes all orders.
	Clear(ctx context.Context) error
}

// SpotOrderStore keeps every version of a spot order chain. Spot orders
// are immutable: each lifecycle transition appends a new version under
// the same order id.
type SpotOrderStore interface {
	// Append stores a new order version.
	Append(ctx context.Context, o *domain.SpotOrder) error

	// Latest retrieves the most recent version of an order.
	Latest(ctx context.Context, orderID uuid.UUID) (*domain.SpotOrder, error)

	// History retrieves all versions of an order, oldest first.
	History(ctx context.Context, orderID uuid.UUID) ([]*domain.SpotOrder, error)

	// GetByRoot retrieves the latest version of every order in a chain.
	GetByRoot(ctx context.Context, rootID uuid.UUID) ([]*domain.SpotOrder, error)

	// Clear removes all spot orders.
	Clear(ctx context.Context) error
}

// TransactionStore is the append-only ledger of balance movements.
type TransactionStore interface {
	// Append adds a transaction. Returns ErrDuplicateKey if the id exists.
	Append(ctx context.Context, t *domain.Transaction) error

	// GetByAccount retrieves all transactions for an account in
	// chronological order.
	GetByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error)

	// GetSince retrieves transactions for an account strictly after the
	// given timestamp, in chronological order.
	GetSince(ctx context.Context, accountID uuid.UUID, after time.Time) ([]*domain.Transaction, error)

	// GetByRun retrieves all transactions for a backtest run.
	GetByRun(ctx context.Context, runID uuid.UUID) ([]*domain.Transaction, error)

	// Clear removes all transactions.
	Clear(ctx context.Context) error
}

// BalanceStore keeps reconciled balance snapshots.
type BalanceStore interface {
	// Insert adds a balance snapshot. Returns ErrDuplicateKey if the id
	// exists.
	Insert(ctx context.Context, b *domain.Balance) error

	// GetByAccount retrieves all snapshots for an account and run,
	// sorted by timestamp.
	GetByAccount(ctx context.Context, accountID, runID uuid.UUID) ([]*domain.Balance, error)

	// Latest retrieves the most recent snapshot for an account and run.
	Latest(ctx context.Context, accountID, runID uuid.UUID) (*domain.Balance, error)

	// AtOrBefore retrieves the snapshot at or before the timestamp.
	AtOrBefore(ctx context.Context, accountID, runID uuid.UUID, ts time.Time) (*domain.Balance, error)

	// Clear removes all snapshots.
	Clear(ctx context.Context) error
}

// BarStore keeps market bars per (symbol, timeframe), always sorted
// ascending by timestamp. A bar with a duplicate timestamp replaces the
// existing one in place.
type BarStore interface {
	// Add inserts one bar, preserving timestamp order.
	Add(ctx context.Context, timeframe string, bar *domain.Bar) error

	// AddBatch inserts multiple bars.
	AddBatch(ctx context.Context, timeframe string, bars []*domain.Bar) error

	// GetRange retrieves bars within [start, end] (inclusive).
	GetRange(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]*domain.Bar, error)

	// GetAll retrieves all bars for a symbol and timeframe.
	GetAll(ctx context.Context, symbol, timeframe string) ([]*domain.Bar, error)

	// Latest retrieves the most recent bar. Returns ErrNotFound when the
	// series is empty.
	Latest(ctx context.Context, symbol, timeframe string) (*domain.Bar, error)

	// LastN retrieves up to n most recent bars, oldest first.
	LastN(ctx context.Context, symbol, timeframe string, n int) ([]*domain.Bar, error)

	// Symbols lists the symbols with stored data.
	Symbols(ctx context.Context) ([]string, error)

	// Clear removes all bars.
	Clear(ctx context.Context) error
}

// SnapshotStore keeps per-bar order history snapshots.
type SnapshotStore interface {
	// Insert adds a snapshot.
	Insert(ctx context.Context, s *domain.OrderSnapshot) error

	// GetByOrder retrieves all snapshots for an order, sorted by
	// timestamp.
	GetByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderSnapshot, error)

	// Latest retrieves the most recent snapshot for an order.
	Latest(ctx context.Context, orderID uuid.UUID) (*domain.OrderSnapshot, error)

	// Clear removes all snapshots.
	Clear(ctx context.Context) error
}
