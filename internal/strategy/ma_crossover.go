package strategy

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
)

// MACrossoverStrategy goes long when the fast moving average crosses
// above the slow one and exits when it crosses back below.
type MACrossoverStrategy struct {
	FastPeriod int
	SlowPeriod int
	Volume     decimal.Decimal
}

// NewMACrossoverStrategy creates a new MACrossoverStrategy.
func NewMACrossoverStrategy(fastPeriod, slowPeriod int, volume decimal.Decimal) *MACrossoverStrategy {
	return &MACrossoverStrategy{
		FastPeriod: fastPeriod,
		SlowPeriod: slowPeriod,
		Volume:     volume,
	}
}

// Name returns the strategy identifier including parameters.
func (s *MACrossoverStrategy) Name() string {
	return fmt.Sprintf("MA_CROSSOVER_%d_%d", s.FastPeriod, s.SlowPeriod)
}

// OnStart implements Strategy.
func (s *MACrossoverStrategy) OnStart(_ *Context) error { return nil }

// OnBar opens a long position on a golden cross and requests closes on a
// death cross. Bars before the slow warmup period produce nothing.
func (s *MACrossoverStrategy) OnBar(ctx *Context, bar *domain.Bar) ([]*domain.TradingOrder, error) {
	closes := ctx.Closes()
	if len(closes) < s.SlowPeriod+1 {
		return nil, nil
	}

	fast := talib.Sma(closes, s.FastPeriod)
	slow := talib.Sma(closes, s.SlowPeriod)
	last := len(closes) - 1

	crossedUp := fast[last-1] <= slow[last-1] && fast[last] > slow[last]
	crossedDown := fast[last-1] >= slow[last-1] && fast[last] < slow[last]

	if crossedDown {
		for _, o := range ctx.FilledOrders() {
			ctx.RequestClose(o.ID)
		}
		return nil, nil
	}

	if crossedUp && len(ctx.FilledOrders()) == 0 {
		order, err := marketOrder(ctx, bar, domain.Long, s.Volume, nil, nil)
		if err != nil {
			return nil, err
		}
		return []*domain.TradingOrder{order}, nil
	}

	return nil, nil
}

// OnEnd implements Strategy.
func (s *MACrossoverStrategy) OnEnd(_ *Context) error { return nil }

// Ensure MACrossoverStrategy implements Strategy
var _ Strategy = (*MACrossoverStrategy)(nil)
