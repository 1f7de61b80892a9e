package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Compute calculates the full report from a run's orders and balance
// curve. Orders may arrive in any state and order; only CLOSED orders
// count as trades. Balances must belong to one account and are sorted by
// timestamp before the drawdown walk.
func Compute(run *domain.BacktestRun, strategyName, pairCode string, orders []*domain.TradingOrder, balances []*domain.Balance, barsProcessed int) *Report {
	report := &Report{
		RunID:         run.ID,
		StrategyName:  strategyName,
		PairCode:      pairCode,
		BarsProcessed: barsProcessed,
	}

	closed := make([]*domain.TradingOrder, 0, len(orders))
	for _, o := range orders {
		switch o.Status {
		case domain.OrderClosed:
			closed = append(closed, o)
		case domain.OrderCancelled:
			report.CancelledOrders++
		}
		report.TotalFees = report.TotalFees.Add(o.TotalFees())
	}

	// Chronological by close time, id as tie-breaker, for the
	// order-dependent loss streak
	sort.Slice(closed, func(i, j int) bool {
		if !closed[i].CloseTime.Equal(closed[j].CloseTime) {
			return closed[i].CloseTime.Before(closed[j].CloseTime)
		}
		return closed[i].ID.String() < closed[j].ID.String()
	})

	grossWins := decimal.Zero
	grossLosses := decimal.Zero
	for _, o := range closed {
		report.TotalTrades++
		report.GrossPnL = report.GrossPnL.Add(o.GrossPnL)
		report.NetPnL = report.NetPnL.Add(o.NetPnL)
		if o.NetPnL.Sign() > 0 {
			report.WinningTrades++
			grossWins = grossWins.Add(o.NetPnL)
		} else {
			report.LosingTrades++
			grossLosses = grossLosses.Add(o.NetPnL.Abs())
		}
	}

	if report.TotalTrades > 0 {
		report.WinRatePct = decimal.NewFromInt(int64(report.WinningTrades)).
			Div(decimal.NewFromInt(int64(report.TotalTrades))).Mul(hundred)
	}
	if report.WinningTrades > 0 {
		report.AvgWin = grossWins.Div(decimal.NewFromInt(int64(report.WinningTrades)))
	}
	if report.LosingTrades > 0 {
		report.AvgLoss = grossLosses.Div(decimal.NewFromInt(int64(report.LosingTrades)))
	}
	if grossLosses.Sign() > 0 {
		report.ProfitFactor = grossWins.Div(grossLosses)
	}

	report.MaxConsecutiveLosses = computeMaxConsecutiveLosses(closed)
	applyBalanceCurve(report, balances)
	return report
}

// applyBalanceCurve fills the capital fields and max drawdown from the
// balance snapshots.
func applyBalanceCurve(report *Report, balances []*domain.Balance) {
	if len(balances) == 0 {
		return
	}

	sorted := make([]*domain.Balance, len(balances))
	copy(sorted, balances)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	report.InitialCapital = sorted[0].Total()
	report.FinalBalance = sorted[len(sorted)-1].Total()
	if report.InitialCapital.Sign() > 0 {
		report.TotalReturnPct = report.FinalBalance.Sub(report.InitialCapital).
			Div(report.InitialCapital).Mul(hundred)
	}
	report.MaxDrawdownPct = computeMaxDrawdownPct(sorted)
}

// computeMaxDrawdownPct walks the balance curve tracking the running peak
// and returns the worst peak-to-trough decline as a percentage of the
// peak. Balances must be in chronological order.
func computeMaxDrawdownPct(balances []*domain.Balance) decimal.Decimal {
	maxDrawdown := decimal.Zero
	peak := decimal.Zero

	for _, b := range balances {
		total := b.Total()
		if total.GreaterThan(peak) {
			peak = total
		}
		if peak.Sign() <= 0 {
			continue
		}
		drawdown := peak.Sub(total).Div(peak).Mul(hundred)
		if drawdown.GreaterThan(maxDrawdown) {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of net P&L <= 0.
// Orders must be in chronological order.
func computeMaxConsecutiveLosses(closed []*domain.TradingOrder) int {
	maxStreak := 0
	currentStreak := 0

	for _, o := range closed {
		if o.NetPnL.Sign() <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
