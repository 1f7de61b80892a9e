package strategy

import (
	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
)

// marketOrder builds a candidate market order from the current context.
func marketOrder(ctx *Context, bar *domain.Bar, direction domain.OrderDirection, volume decimal.Decimal, stopLoss, takeProfit *decimal.Decimal) (*domain.TradingOrder, error) {
	return domain.NewTradingOrder(domain.NewOrderParams{
		PairCode:      ctx.Pair.PairCode,
		Direction:     direction,
		Volume:        volume,
		CreateTime:    bar.Timestamp,
		CreatePrice:   bar.Close,
		AgentID:       ctx.Account.Agent.ID,
		AccountID:     ctx.Account.ID,
		BrokerID:      ctx.Account.Broker.ID,
		BacktestRunID: ctx.Run.ID,
		StopLoss:      stopLoss,
		TakeProfit:    takeProfit,
	})
}

// protectionLevels derives stop-loss and take-profit prices from
// percentage distances off the entry price. Either pct may be zero,
// yielding a nil level.
func protectionLevels(price decimal.Decimal, direction domain.OrderDirection, stopLossPct, takeProfitPct float64) (stopLoss, takeProfit *decimal.Decimal) {
	if stopLossPct > 0 {
		dist := price.Mul(decimal.NewFromFloat(stopLossPct))
		var level decimal.Decimal
		if direction == domain.Long {
			level = price.Sub(dist)
		} else {
			level = price.Add(dist)
		}
		stopLoss = &level
	}
	if takeProfitPct > 0 {
		dist := price.Mul(decimal.NewFromFloat(takeProfitPct))
		var level decimal.Decimal
		if direction == domain.Long {
			level = price.Add(dist)
		} else {
			level = price.Sub(dist)
		}
		takeProfit = &level
	}
	return stopLoss, takeProfit
}
