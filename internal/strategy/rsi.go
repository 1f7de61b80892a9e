package strategy

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
)

// RSIStrategy buys when RSI drops below the oversold level and exits
// when it rises above the overbought level.
type RSIStrategy struct {
	Period     int
	Oversold   float64
	Overbought float64
	Volume     decimal.Decimal
}

// NewRSIStrategy creates a new RSIStrategy.
func NewRSIStrategy(period int, oversold, overbought float64, volume decimal.Decimal) *RSIStrategy {
	return &RSIStrategy{
		Period:     period,
		Oversold:   oversold,
		Overbought: overbought,
		Volume:     volume,
	}
}

// Name returns the strategy identifier including parameters.
func (s *RSIStrategy) Name() string {
	return fmt.Sprintf("RSI_%d_%.0f_%.0f", s.Period, s.Oversold, s.Overbought)
}

// OnStart implements Strategy.
func (s *RSIStrategy) OnStart(_ *Context) error { return nil }

// OnBar opens a long position when RSI is oversold and requests closes
// when it is overbought. Bars before the warmup period produce nothing.
func (s *RSIStrategy) OnBar(ctx *Context, bar *domain.Bar) ([]*domain.TradingOrder, error) {
	closes := ctx.Closes()
	if len(closes) <= s.Period {
		return nil, nil
	}

	rsi := talib.Rsi(closes, s.Period)
	current := rsi[len(rsi)-1]

	if current >= s.Overbought {
		for _, o := range ctx.FilledOrders() {
			ctx.RequestClose(o.ID)
		}
		return nil, nil
	}

	if current <= s.Oversold && len(ctx.FilledOrders()) == 0 {
		order, err := marketOrder(ctx, bar, domain.Long, s.Volume, nil, nil)
		if err != nil {
			return nil, err
		}
		return []*domain.TradingOrder{order}, nil
	}

	return nil, nil
}

// OnEnd implements Strategy.
func (s *RSIStrategy) OnEnd(_ *Context) error { return nil }

// Ensure RSIStrategy implements Strategy
var _ Strategy = (*RSIStrategy)(nil)
