package strategy

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
)

// MomentumStrategy trades in the direction of price momentum, protected
// by stop-loss and take-profit levels set as percentage distances from
// the entry price. It is the only bundled strategy that opens shorts.
type MomentumStrategy struct {
	Period        int
	ThresholdPct  float64 // momentum as a fraction of price, e.g. 0.02
	Volume        decimal.Decimal
	StopLossPct   float64
	TakeProfitPct float64
}

// NewMomentumStrategy creates a new MomentumStrategy.
func NewMomentumStrategy(period int, thresholdPct float64, volume decimal.Decimal, stopLossPct, takeProfitPct float64) *MomentumStrategy {
	return &MomentumStrategy{
		Period:        period,
		ThresholdPct:  thresholdPct,
		Volume:        volume,
		StopLossPct:   stopLossPct,
		TakeProfitPct: takeProfitPct,
	}
}

// Name returns the strategy identifier including parameters.
func (s *MomentumStrategy) Name() string {
	return fmt.Sprintf("MOMENTUM_%d_%.3f", s.Period, s.ThresholdPct)
}

// OnStart implements Strategy.
func (s *MomentumStrategy) OnStart(_ *Context) error { return nil }

// OnBar opens a position when momentum over the lookback period exceeds
// the threshold in either direction. Exits are left to the protection
// levels attached to each order.
func (s *MomentumStrategy) OnBar(ctx *Context, bar *domain.Bar) ([]*domain.TradingOrder, error) {
	closes := ctx.Closes()
	if len(closes) <= s.Period {
		return nil, nil
	}
	if len(ctx.FilledOrders()) > 0 {
		return nil, nil
	}

	mom := talib.Mom(closes, s.Period)
	current := mom[len(mom)-1]
	threshold := closes[len(closes)-1] * s.ThresholdPct

	var direction domain.OrderDirection
	switch {
	case current > threshold:
		direction = domain.Long
	case current < -threshold:
		direction = domain.Short
	default:
		return nil, nil
	}

	stopLoss, takeProfit := protectionLevels(bar.Close, direction, s.StopLossPct, s.TakeProfitPct)
	order, err := marketOrder(ctx, bar, direction, s.Volume, stopLoss, takeProfit)
	if err != nil {
		return nil, err
	}
	return []*domain.TradingOrder{order}, nil
}

// OnEnd implements Strategy.
func (s *MomentumStrategy) OnEnd(_ *Context) error { return nil }

// Ensure MomentumStrategy implements Strategy
var _ Strategy = (*MomentumStrategy)(nil)
