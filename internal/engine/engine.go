// Package engine drives a backtest: it feeds bars to strategies,
// validates candidate orders against trading rules, executes fills,
// stop-loss/take-profit sweeps and overnight fee accrual, and keeps the
// ledger reconciled per account per bar.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
	"backtest-lab/internal/metrics"
	"backtest-lab/internal/storage"
	"backtest-lab/internal/strategy"
)

// Engine executes one backtest run over stored market data.
type Engine struct {
	accounts   storage.AccountStore
	pairs      storage.PairStore
	rules      storage.RulesStore
	orders     storage.OrderStore
	spotOrders storage.SpotOrderStore
	bars       storage.BarStore
	balances   storage.BalanceStore
	snapshots  storage.SnapshotStore
	ledger     *ledger.Ledger

	strategies map[uuid.UUID]strategy.Strategy // keyed by agent id
	timeframe  string
	log        *zap.Logger
}

// Options for creating an Engine.
type Options struct {
	// Required stores
	Accounts   storage.AccountStore
	Pairs      storage.PairStore
	Rules      storage.RulesStore
	Orders     storage.OrderStore
	SpotOrders storage.SpotOrderStore
	Bars       storage.BarStore
	Balances   storage.BalanceStore
	Snapshots  storage.SnapshotStore
	Ledger     *ledger.Ledger

	// Strategies keyed by agent id; every agent in the run needs one.
	Strategies map[uuid.UUID]strategy.Strategy

	// Timeframe of the bar series to run on. Defaults to "1d".
	Timeframe string

	Logger *zap.Logger
}

// New creates a new Engine.
func New(opts Options) *Engine {
	timeframe := opts.Timeframe
	if timeframe == "" {
		timeframe = "1d"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		accounts:   opts.Accounts,
		pairs:      opts.Pairs,
		rules:      opts.Rules,
		orders:     opts.Orders,
		spotOrders: opts.SpotOrders,
		bars:       opts.Bars,
		balances:   opts.Balances,
		snapshots:  opts.Snapshots,
		ledger:     opts.Ledger,
		strategies: opts.Strategies,
		timeframe:  timeframe,
		log:        logger.Named("engine"),
	}
}

// RunResult contains the outcome of one backtest run.
type RunResult struct {
	Reports       []*metrics.Report // one per account
	BarsProcessed int
}

// pairData bundles the static lookups for one traded pair.
type pairData struct {
	pair  *domain.TradingPair
	rules *domain.TradingRules
	bars  []*domain.Bar
}

// Run executes the full backtest. Pre-run validation failures (missing
// configuration, empty or unordered bar series) are fatal; business-rule
// rejections during the loop cancel the offending order and continue.
func (e *Engine) Run(ctx context.Context, run *domain.BacktestRun) (*RunResult, error) {
	accounts, err := e.resolveAccounts(ctx, run)
	if err != nil {
		return nil, err
	}
	pairData, timeline, err := e.loadMarketData(ctx, run)
	if err != nil {
		return nil, err
	}

	e.log.Info("run starting",
		zap.String("run_id", run.ID.String()),
		zap.Int("accounts", len(accounts)),
		zap.Int("pairs", len(pairData)),
		zap.Int("bars", len(timeline)))

	// Opening deposits, then the baseline snapshot. Both must land
	// strictly before the first bar so each incremental snapshot window
	// picks up every transaction exactly once.
	startTs := run.StartDate
	if len(timeline) > 0 && !timeline[0].After(startTs) {
		startTs = timeline[0].Add(-time.Second)
	}
	for _, account := range accounts {
		deposit, err := ledger.InitialDeposit(account.ID, run.ID, startTs, account.InitialBalance)
		if err != nil {
			return nil, err
		}
		if err := e.ledger.Post(ctx, deposit); err != nil {
			return nil, err
		}
		if _, err := e.ledger.Snapshot(ctx, account.ID, run.ID, startTs); err != nil {
			return nil, err
		}
	}

	state := newRunState(run, accounts, pairData)
	if err := e.callOnStart(state); err != nil {
		return nil, err
	}

	for _, ts := range timeline {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.processTimestamp(ctx, state, ts); err != nil {
			return nil, err
		}
	}

	if err := e.finishRun(ctx, state); err != nil {
		return nil, err
	}

	result := &RunResult{BarsProcessed: len(timeline)}
	for _, account := range accounts {
		report, err := e.buildReport(ctx, state, account)
		if err != nil {
			return nil, err
		}
		result.Reports = append(result.Reports, report)
	}

	e.log.Info("run finished",
		zap.String("run_id", run.ID.String()),
		zap.Int("bars_processed", result.BarsProcessed))
	return result, nil
}

// resolveAccounts loads the accounts belonging to the run's agents and
// broker, and checks each agent has a strategy.
func (e *Engine) resolveAccounts(ctx context.Context, run *domain.BacktestRun) ([]*domain.Account, error) {
	all, err := e.accounts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	wanted := make(map[uuid.UUID]bool, len(run.AgentIDs))
	for _, id := range run.AgentIDs {
		wanted[id] = true
	}

	var accounts []*domain.Account
	for _, account := range all {
		if wanted[account.Agent.ID] && account.Broker.ID == run.BrokerID {
			accounts = append(accounts, account)
		}
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found for run %s", run.ID)
	}
	for _, account := range accounts {
		if _, ok := e.strategies[account.Agent.ID]; !ok {
			return nil, fmt.Errorf("no strategy configured for agent %s", account.Agent.ID)
		}
	}
	return accounts, nil
}

// loadMarketData loads and validates the bar series for every pair in
// the run and merges their timestamps into a single ascending timeline.
func (e *Engine) loadMarketData(ctx context.Context, run *domain.BacktestRun) (map[string]*pairData, []time.Time, error) {
	data := make(map[string]*pairData, len(run.PairCodes))
	seen := make(map[time.Time]bool)
	var timeline []time.Time

	for _, code := range run.PairCodes {
		pair, err := e.pairs.GetByCode(ctx, code)
		if err != nil {
			return nil, nil, fmt.Errorf("pair %s: %w", code, err)
		}
		rules, err := e.rules.GetByBrokerPair(ctx, run.BrokerID, code)
		if err != nil {
			return nil, nil, fmt.Errorf("rules for pair %s: %w", code, err)
		}
		bars, err := e.bars.GetRange(ctx, code, e.timeframe, run.StartDate, run.EndDate)
		if err != nil {
			return nil, nil, fmt.Errorf("bars for pair %s: %w", code, err)
		}
		if len(bars) == 0 {
			return nil, nil, fmt.Errorf("no bars for pair %s in run window", code)
		}
		for i := 1; i < len(bars); i++ {
			if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
				return nil, nil, fmt.Errorf("bars for pair %s not strictly ascending at %s", code, bars[i].Timestamp)
			}
		}

		data[code] = &pairData{pair: pair, rules: rules, bars: bars}
		for _, bar := range bars {
			if !seen[bar.Timestamp] {
				seen[bar.Timestamp] = true
				timeline = append(timeline, bar.Timestamp)
			}
		}
	}

	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })
	return data, timeline, nil
}

// buildReport assembles the metrics report for one account.
func (e *Engine) buildReport(ctx context.Context, state *runState, account *domain.Account) (*metrics.Report, error) {
	orders, err := e.orders.GetByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	var runOrders []*domain.TradingOrder
	for _, o := range orders {
		if o.BacktestRunID == state.run.ID {
			runOrders = append(runOrders, o)
		}
	}

	balances, err := e.balances.GetByAccount(ctx, account.ID, state.run.ID)
	if err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}

	strat := e.strategies[account.Agent.ID]
	return metrics.Compute(state.run, strat.Name(), strings.Join(state.run.PairCodes, "+"),
		runOrders, balances, state.barsProcessed), nil
}
