package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradingPair represents a base/quote asset pair (e.g. BTC/USD).
// PairCode defaults to base ticker + quote ticker when not given.
type TradingPair struct {
	ID                uuid.UUID
	BaseAsset         *Asset
	QuoteAsset        *Asset
	PairCode          string
	MultiplyingFactor decimal.Decimal // price multiplier, e.g. 1000 for mini contracts
	ContractSize      decimal.Decimal // size of one contract in base asset units
	MinUnit           decimal.Decimal // minimum tradeable quantity
}

// NewTradingPair creates a validated TradingPair. Pass an empty pairCode
// to derive it from the asset tickers.
func NewTradingPair(base, quote *Asset, pairCode string, multiplyingFactor, contractSize, minUnit decimal.Decimal) (*TradingPair, error) {
	if base == nil || quote == nil {
		return nil, fmt.Errorf("trading pair requires base and quote assets")
	}
	if multiplyingFactor.Sign() <= 0 {
		return nil, fmt.Errorf("multiplying factor must be positive, got %s", multiplyingFactor)
	}
	if contractSize.Sign() <= 0 {
		return nil, fmt.Errorf("contract size must be positive, got %s", contractSize)
	}
	if minUnit.Sign() <= 0 {
		return nil, fmt.Errorf("min unit must be positive, got %s", minUnit)
	}
	if pairCode == "" {
		pairCode = base.Ticker + quote.Ticker
	}
	return &TradingPair{
		ID:                uuid.New(),
		BaseAsset:         base,
		QuoteAsset:        quote,
		PairCode:          pairCode,
		MultiplyingFactor: multiplyingFactor,
		ContractSize:      contractSize,
		MinUnit:           minUnit,
	}, nil
}

// Notional returns volume * price * contract size: the full face value of
// a trade on this pair.
func (p *TradingPair) Notional(volume, price decimal.Decimal) decimal.Decimal {
	return volume.Mul(price).Mul(p.ContractSize)
}
