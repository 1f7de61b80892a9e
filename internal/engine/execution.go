package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// processCandidate gates a strategy-produced order against the trading
// rules. Rejects are cancelled with the reason logged, never errors.
// Accepted orders are charged their creation fee and offered a fill on
// the current bar.
func (e *Engine) processCandidate(ctx context.Context, pd *pairData, order *domain.TradingOrder, bar *domain.Bar) error {
	available, err := e.ledger.CurrentAvailable(ctx, order.AccountID, order.BacktestRunID)
	if err != nil {
		return err
	}

	ok, reason := pd.rules.ValidateOrder(order.Volume, bar.Close, available,
		order.Direction == domain.Long, pd.pair.ContractSize)
	if !ok {
		e.log.Warn("order rejected",
			zap.String("order_id", order.ID.String()),
			zap.String("pair", order.PairCode),
			zap.String("reason", reason))
		if err := order.Cancel(bar.Timestamp, decimal.Zero); err != nil {
			return err
		}
		return e.orders.Save(ctx, order)
	}

	notional := pd.pair.Notional(order.Volume, order.CreatePrice)
	margin := pd.rules.MarginRequired(order.Volume, order.CreatePrice, pd.pair.ContractSize)
	feeCreate := pd.rules.FeeFor(domain.OnCreate, order.Volume, notional, margin)
	if feeCreate.Sign() > 0 {
		order.FeesOnCreate = feeCreate
		tx, err := ledger.Fee(order, bar.Timestamp, feeCreate, domain.TxFeeCreate)
		if err != nil {
			return err
		}
		if err := e.ledger.Post(ctx, tx); err != nil {
			return err
		}
	}
	if err := e.orders.Save(ctx, order); err != nil {
		return err
	}

	return e.tryFill(ctx, pd, order, bar)
}

// tryFill fills a pending order at the bar close. Market orders always
// fill; limit orders fill only when the close satisfies the limit price.
func (e *Engine) tryFill(ctx context.Context, pd *pairData, order *domain.TradingOrder, bar *domain.Bar) error {
	if !order.IsPending() {
		return nil
	}
	if order.IsLimitOrder() {
		limit := *order.LimitPrice
		marketable := (order.Direction == domain.Long && !bar.Close.GreaterThan(limit)) ||
			(order.Direction == domain.Short && !bar.Close.LessThan(limit))
		if !marketable {
			return nil
		}
	}

	price := bar.Close
	margin := pd.rules.MarginRequired(order.Volume, price, pd.pair.ContractSize)

	available, err := e.ledger.CurrentAvailable(ctx, order.AccountID, order.BacktestRunID)
	if err != nil {
		return err
	}
	if available.LessThan(margin) {
		e.log.Warn("order cancelled at fill",
			zap.String("order_id", order.ID.String()),
			zap.String("reason", fmt.Sprintf("insufficient margin: need %s, have %s", margin, available)))
		if err := order.Cancel(bar.Timestamp, decimal.Zero); err != nil {
			return err
		}
		return e.orders.Save(ctx, order)
	}

	notional := pd.pair.Notional(order.Volume, price)
	feeFill := pd.rules.FeeFor(domain.OnFill, order.Volume, notional, margin)

	if err := order.Fill(bar.Timestamp, price, feeFill, margin); err != nil {
		return err
	}

	reserve, err := ledger.ReserveMargin(order, bar.Timestamp, margin)
	if err != nil {
		return err
	}
	if err := e.ledger.Post(ctx, reserve); err != nil {
		return err
	}
	if feeFill.Sign() > 0 {
		tx, err := ledger.Fee(order, bar.Timestamp, feeFill, domain.TxFeeFill)
		if err != nil {
			return err
		}
		if err := e.ledger.Post(ctx, tx); err != nil {
			return err
		}
	}
	if err := e.orders.Save(ctx, order); err != nil {
		return err
	}

	e.log.Debug("order filled",
		zap.String("order_id", order.ID.String()),
		zap.String("pair", order.PairCode),
		zap.String("price", price.String()),
		zap.String("margin", margin.String()))
	return nil
}

// fillPendingOrders retries limit orders left pending by earlier bars.
func (e *Engine) fillPendingOrders(ctx context.Context, state *runState, pd *pairData, account *domain.Account, bar *domain.Bar) error {
	active, err := e.activeOrders(ctx, state, account, pd.pair.PairCode)
	if err != nil {
		return err
	}
	for _, o := range active {
		if !o.IsPending() {
			continue
		}
		if err := e.tryFill(ctx, pd, o, bar); err != nil {
			return err
		}
	}
	return nil
}

// sweepProtections closes filled orders whose stop-loss or take-profit
// level falls inside the bar's range. Stop-loss wins when both trigger.
func (e *Engine) sweepProtections(ctx context.Context, state *runState, pd *pairData, account *domain.Account, bar *domain.Bar) error {
	active, err := e.activeOrders(ctx, state, account, pd.pair.PairCode)
	if err != nil {
		return err
	}
	for _, o := range active {
		if !o.IsFilled() {
			continue
		}
		price, reason, triggered := protectionTrigger(o, bar)
		if !triggered {
			continue
		}
		if err := e.closeOrder(ctx, pd, o, bar.Timestamp, price, reason); err != nil {
			return err
		}
	}
	return nil
}

// protectionTrigger checks an order's protection levels against the bar
// range and returns the exit price and reason.
func protectionTrigger(o *domain.TradingOrder, bar *domain.Bar) (decimal.Decimal, string, bool) {
	if o.Direction == domain.Long {
		if o.StopLoss != nil && !bar.Low.GreaterThan(*o.StopLoss) {
			return *o.StopLoss, "stop loss", true
		}
		if o.TakeProfit != nil && !bar.High.LessThan(*o.TakeProfit) {
			return *o.TakeProfit, "take profit", true
		}
		return decimal.Zero, "", false
	}
	if o.StopLoss != nil && !bar.High.LessThan(*o.StopLoss) {
		return *o.StopLoss, "stop loss", true
	}
	if o.TakeProfit != nil && !bar.Low.GreaterThan(*o.TakeProfit) {
		return *o.TakeProfit, "take profit", true
	}
	return decimal.Zero, "", false
}

// closeByID loads an order and closes it when it holds a position.
// Close requests for orders that already left the FILLED state are
// ignored: the protection sweep may have beaten the strategy to it.
func (e *Engine) closeByID(ctx context.Context, pd *pairData, orderID uuid.UUID, ts time.Time, price decimal.Decimal, reason string) error {
	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("close request for order %s: %w", orderID, err)
	}
	if !order.IsFilled() {
		return nil
	}
	return e.closeOrder(ctx, pd, order, ts, price, reason)
}

// closeOrder settles a filled order: close fee, state transition, margin
// return, and P&L settlement against the ledger.
func (e *Engine) closeOrder(ctx context.Context, pd *pairData, order *domain.TradingOrder, ts time.Time, price decimal.Decimal, reason string) error {
	notional := pd.pair.Notional(order.Volume, price)
	feeClose := pd.rules.FeeFor(domain.OnClose, order.Volume, notional, order.MarginReserved)

	if err := order.Close(ts, price, feeClose); err != nil {
		return err
	}

	if order.MarginReserved.Sign() > 0 {
		tx, err := ledger.ReturnMargin(order, ts, order.MarginReserved)
		if err != nil {
			return err
		}
		if err := e.ledger.Post(ctx, tx); err != nil {
			return err
		}
	}
	if feeClose.Sign() > 0 {
		tx, err := ledger.Fee(order, ts, feeClose, domain.TxFeeClose)
		if err != nil {
			return err
		}
		if err := e.ledger.Post(ctx, tx); err != nil {
			return err
		}
	}
	pnl, err := ledger.ClosePnL(order, ts, order.GrossPnL)
	if err != nil {
		return err
	}
	if err := e.ledger.Post(ctx, pnl); err != nil {
		return err
	}
	if err := e.orders.Save(ctx, order); err != nil {
		return err
	}

	e.log.Info("order closed",
		zap.String("order_id", order.ID.String()),
		zap.String("pair", order.PairCode),
		zap.String("reason", reason),
		zap.String("net_pnl", order.NetPnL.String()))
	return nil
}

// cancelOrder cancels a pending order, charging the cancellation fee.
func (e *Engine) cancelOrder(ctx context.Context, pd *pairData, order *domain.TradingOrder, ts time.Time, reason string) error {
	notional := pd.pair.Notional(order.Volume, order.CreatePrice)
	feeCancel := pd.rules.FeeFor(domain.OnCancel, order.Volume, notional, decimal.Zero)

	if err := order.Cancel(ts, feeCancel); err != nil {
		return err
	}
	if feeCancel.Sign() > 0 {
		tx, err := ledger.Fee(order, ts, feeCancel, domain.TxFeeCancel)
		if err != nil {
			return err
		}
		if err := e.ledger.Post(ctx, tx); err != nil {
			return err
		}
	}
	if err := e.orders.Save(ctx, order); err != nil {
		return err
	}

	e.log.Info("order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("reason", reason))
	return nil
}

// accrueOvernight charges overnight fees for positions held across the
// rules' overnight boundary between two consecutive bar timestamps.
func (e *Engine) accrueOvernight(ctx context.Context, state *runState, account *domain.Account, prev, cur time.Time) error {
	for _, code := range state.run.PairCodes {
		pd := state.pairs[code]
		if !hasOvernightFee(pd.rules) {
			continue
		}
		crossings := overnightCrossings(pd.rules, prev, cur)
		if crossings == 0 {
			continue
		}

		active, err := e.activeOrders(ctx, state, account, code)
		if err != nil {
			return err
		}
		for _, o := range active {
			if !o.IsFilled() {
				continue
			}
			price, ok := state.lastClose[code]
			if !ok {
				continue
			}
			notional := pd.pair.Notional(o.Volume, price)
			fee := pd.rules.FeeFor(domain.OnOvernight, o.Volume, notional, o.MarginReserved).
				Mul(decimal.NewFromInt(int64(crossings)))
			if fee.Sign() <= 0 {
				continue
			}

			if err := o.AddOvernightFees(fee); err != nil {
				return err
			}
			tx, err := ledger.Fee(o, cur, fee, domain.TxFeeOvernight)
			if err != nil {
				return err
			}
			if err := e.ledger.Post(ctx, tx); err != nil {
				return err
			}
			if err := e.orders.Save(ctx, o); err != nil {
				return err
			}

			e.log.Debug("overnight fees accrued",
				zap.String("order_id", o.ID.String()),
				zap.Int("crossings", crossings),
				zap.String("fee", fee.String()))
		}
	}
	return nil
}

// hasOvernightFee reports whether any configured fee charges overnight.
func hasOvernightFee(rules *domain.TradingRules) bool {
	for _, fee := range []*domain.Fee{rules.BrokerageFee, rules.CustodyFee, rules.LeverageFee} {
		if fee != nil && fee.Timing == domain.OnOvernight {
			return true
		}
	}
	return false
}

// overnightCrossings counts how many overnight boundaries lie in
// (prev, cur]. ON_PERIOD_CHANGE boundaries are UTC day changes;
// ON_FIXED_TIME boundaries are the configured wall-clock instant each
// UTC day.
func overnightCrossings(rules *domain.TradingRules, prev, cur time.Time) int {
	prev = prev.UTC()
	cur = cur.UTC()
	if !cur.After(prev) {
		return 0
	}

	switch rules.OvernightTiming {
	case domain.OnFixedTime:
		tod := rules.OvernightChargeTime
		count := 0
		for day := truncateDay(prev); !day.After(cur); day = day.AddDate(0, 0, 1) {
			instant := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, time.UTC)
			if instant.After(prev) && !instant.After(cur) {
				count++
			}
		}
		return count
	default: // ON_PERIOD_CHANGE
		return int(truncateDay(cur).Sub(truncateDay(prev)).Hours() / 24)
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
