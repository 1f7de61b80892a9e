package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV sample for a symbol over a time interval.
type Bar struct {
	Timestamp time.Time
	Symbol    string
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// NewBar creates a validated Bar. Violated OHLC relationships are
// construction-time errors: high >= low, open and close within
// [low, high], volume >= 0.
func NewBar(ts time.Time, symbol string, open, high, low, close, volume decimal.Decimal) (*Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("bar symbol cannot be empty")
	}
	if high.LessThan(low) {
		return nil, fmt.Errorf("bar high %s cannot be below low %s", high, low)
	}
	if open.LessThan(low) || open.GreaterThan(high) {
		return nil, fmt.Errorf("bar open %s outside [%s, %s]", open, low, high)
	}
	if close.LessThan(low) || close.GreaterThan(high) {
		return nil, fmt.Errorf("bar close %s outside [%s, %s]", close, low, high)
	}
	if volume.IsNegative() {
		return nil, fmt.Errorf("bar volume cannot be negative, got %s", volume)
	}
	return &Bar{
		Timestamp: ts,
		Symbol:    symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}, nil
}

// NewBarFromClose creates a Bar from a close price alone: open, high, and
// low default to close and volume to zero. Used when the source data only
// carries a close column.
func NewBarFromClose(ts time.Time, symbol string, close decimal.Decimal) (*Bar, error) {
	return NewBar(ts, symbol, close, close, close, close, decimal.Zero)
}
