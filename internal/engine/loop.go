package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/strategy"
)

// runState carries the mutable per-run bookkeeping across bars.
type runState struct {
	run      *domain.BacktestRun
	accounts []*domain.Account
	pairs    map[string]*pairData

	cursor    map[string]int // next unprocessed bar index per pair
	history   map[string][]*domain.Bar
	lastClose map[string]decimal.Decimal

	prevTs        time.Time
	hasPrev       bool
	barsProcessed int
}

func newRunState(run *domain.BacktestRun, accounts []*domain.Account, pairs map[string]*pairData) *runState {
	return &runState{
		run:       run,
		accounts:  accounts,
		pairs:     pairs,
		cursor:    make(map[string]int, len(pairs)),
		history:   make(map[string][]*domain.Bar, len(pairs)),
		lastClose: make(map[string]decimal.Decimal, len(pairs)),
	}
}

// callOnStart invokes OnStart for every (account, pair) combination.
func (e *Engine) callOnStart(state *runState) error {
	for _, account := range state.accounts {
		strat := e.strategies[account.Agent.ID]
		for _, code := range state.run.PairCodes {
			sctx := e.buildContext(state, account, state.pairs[code], nil)
			if err := strat.OnStart(sctx); err != nil {
				return fmt.Errorf("strategy %s OnStart: %w", strat.Name(), err)
			}
		}
	}
	return nil
}

// processTimestamp runs one step of the bar loop: strategy callbacks,
// order gating and fills, protection sweeps, overnight accrual, and the
// per-account balance and order snapshots.
func (e *Engine) processTimestamp(ctx context.Context, state *runState, ts time.Time) error {
	current := e.advanceBars(state, ts)

	for _, account := range state.accounts {
		strat := e.strategies[account.Agent.ID]

		for _, code := range state.run.PairCodes {
			bar, ok := current[code]
			if !ok {
				continue
			}
			pd := state.pairs[code]

			active, err := e.activeOrders(ctx, state, account, code)
			if err != nil {
				return err
			}
			sctx := e.buildContext(state, account, pd, active)

			candidates, err := strat.OnBar(sctx, bar)
			if err != nil {
				return fmt.Errorf("strategy %s OnBar at %s: %w", strat.Name(), ts, err)
			}
			for _, order := range candidates {
				if err := e.processCandidate(ctx, pd, order, bar); err != nil {
					return err
				}
			}
			for _, orderID := range sctx.DrainCloseRequests() {
				if err := e.closeByID(ctx, pd, orderID, ts, bar.Close, "strategy exit"); err != nil {
					return err
				}
			}
			if err := e.fillPendingOrders(ctx, state, pd, account, bar); err != nil {
				return err
			}
			if err := e.sweepProtections(ctx, state, pd, account, bar); err != nil {
				return err
			}
		}

		if state.hasPrev {
			if err := e.accrueOvernight(ctx, state, account, state.prevTs, ts); err != nil {
				return err
			}
		}

		if _, err := e.ledger.Snapshot(ctx, account.ID, state.run.ID, ts); err != nil {
			return err
		}
		if err := e.snapshotOrders(ctx, state, account, ts); err != nil {
			return err
		}
	}

	state.prevTs = ts
	state.hasPrev = true
	state.barsProcessed++
	return nil
}

// advanceBars consumes the bars at ts, updating history and last closes.
func (e *Engine) advanceBars(state *runState, ts time.Time) map[string]*domain.Bar {
	current := make(map[string]*domain.Bar)
	for code, pd := range state.pairs {
		i := state.cursor[code]
		if i < len(pd.bars) && pd.bars[i].Timestamp.Equal(ts) {
			bar := pd.bars[i]
			state.cursor[code] = i + 1
			state.history[code] = append(state.history[code], bar)
			state.lastClose[code] = bar.Close
			current[code] = bar
		}
	}
	return current
}

// buildContext assembles the per-(account, pair) strategy view.
func (e *Engine) buildContext(state *runState, account *domain.Account, pd *pairData, active []*domain.TradingOrder) *strategy.Context {
	return &strategy.Context{
		Account: account,
		Pair:    pd.pair,
		Rules:   pd.rules,
		Run:     state.run,
		History: state.history[pd.pair.PairCode],
		Active:  active,
	}
}

// activeOrders loads the account's pending and filled orders on one pair
// within the current run.
func (e *Engine) activeOrders(ctx context.Context, state *runState, account *domain.Account, pairCode string) ([]*domain.TradingOrder, error) {
	all, err := e.orders.GetActive(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("load active orders: %w", err)
	}
	var result []*domain.TradingOrder
	for _, o := range all {
		if o.PairCode == pairCode && o.BacktestRunID == state.run.ID {
			result = append(result, o)
		}
	}
	return result, nil
}

// snapshotOrders records the P&L state of the account's active orders.
func (e *Engine) snapshotOrders(ctx context.Context, state *runState, account *domain.Account, ts time.Time) error {
	active, err := e.orders.GetActive(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("load active orders: %w", err)
	}
	for _, o := range active {
		if o.BacktestRunID != state.run.ID {
			continue
		}
		price, ok := state.lastClose[o.PairCode]
		if !ok {
			continue
		}
		snap := domain.NewOrderSnapshot(o, ts, price)
		if err := e.snapshots.Insert(ctx, snap); err != nil {
			return fmt.Errorf("store order snapshot: %w", err)
		}
	}
	return nil
}

// finishRun settles the run after the last bar: OnEnd callbacks, forced
// closes of open positions, cancellation of leftover pending orders, the
// final snapshot, and a full ledger replay verification per account.
func (e *Engine) finishRun(ctx context.Context, state *runState) error {
	endTs := state.run.EndDate
	if state.hasPrev && !endTs.After(state.prevTs) {
		endTs = state.prevTs.Add(time.Second)
	}

	for _, account := range state.accounts {
		strat := e.strategies[account.Agent.ID]

		for _, code := range state.run.PairCodes {
			pd := state.pairs[code]
			active, err := e.activeOrders(ctx, state, account, code)
			if err != nil {
				return err
			}
			sctx := e.buildContext(state, account, pd, active)
			if err := strat.OnEnd(sctx); err != nil {
				return fmt.Errorf("strategy %s OnEnd: %w", strat.Name(), err)
			}
			for _, orderID := range sctx.DrainCloseRequests() {
				if err := e.closeByID(ctx, pd, orderID, endTs, state.lastClose[code], "strategy exit"); err != nil {
					return err
				}
			}
		}

		active, err := e.orders.GetActive(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("load active orders: %w", err)
		}
		for _, o := range active {
			if o.BacktestRunID != state.run.ID {
				continue
			}
			pd := state.pairs[o.PairCode]
			switch o.Status {
			case domain.OrderFilled:
				price, ok := state.lastClose[o.PairCode]
				if !ok {
					return fmt.Errorf("no close price to settle order %s on %s", o.ID, o.PairCode)
				}
				if err := e.closeOrder(ctx, pd, o, endTs, price, "end of backtest"); err != nil {
					return err
				}
			case domain.OrderPending:
				if err := e.cancelOrder(ctx, pd, o, endTs, "end of backtest"); err != nil {
					return err
				}
			}
		}

		if _, err := e.ledger.Snapshot(ctx, account.ID, state.run.ID, endTs); err != nil {
			return err
		}
		if err := e.ledger.Verify(ctx, account.ID, state.run.ID); err != nil {
			return err
		}
		e.log.Debug("account settled", zap.String("account_id", account.ID.String()))
	}
	return nil
}
