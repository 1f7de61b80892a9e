package strategy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Strategy type identifiers accepted in configuration.
const (
	TypeMACrossover = "MA_CROSSOVER"
	TypeRSI         = "RSI"
	TypeMomentum    = "MOMENTUM"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrInvalidPeriod       = errors.New("period must be positive")
	ErrInvalidPeriodOrder  = errors.New("fast period must be below slow period")
	ErrInvalidVolume       = errors.New("volume must be positive")
	ErrInvalidRSILevels    = errors.New("RSI levels must satisfy 0 <= oversold < overbought <= 100")
	ErrInvalidThreshold    = errors.New("momentum threshold must be positive")
)

// Config selects a strategy and its parameters. Only the fields the
// chosen type reads are required.
type Config struct {
	Type   string
	Volume decimal.Decimal

	// MA_CROSSOVER
	FastPeriod int
	SlowPeriod int

	// RSI / MOMENTUM
	Period int

	// RSI
	Oversold   float64
	Overbought float64

	// MOMENTUM
	ThresholdPct  float64
	StopLossPct   float64
	TakeProfitPct float64
}

// FromConfig creates a Strategy from a Config. Validates required
// parameters per strategy type and returns clear errors for missing or
// invalid params.
func FromConfig(cfg Config) (Strategy, error) {
	if cfg.Volume.Sign() <= 0 {
		return nil, ErrInvalidVolume
	}

	switch cfg.Type {
	case TypeMACrossover:
		return fromMACrossoverConfig(cfg)
	case TypeRSI:
		return fromRSIConfig(cfg)
	case TypeMomentum:
		return fromMomentumConfig(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyType, cfg.Type)
	}
}

func fromMACrossoverConfig(cfg Config) (*MACrossoverStrategy, error) {
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 {
		return nil, ErrInvalidPeriod
	}
	if cfg.FastPeriod >= cfg.SlowPeriod {
		return nil, ErrInvalidPeriodOrder
	}
	return NewMACrossoverStrategy(cfg.FastPeriod, cfg.SlowPeriod, cfg.Volume), nil
}

func fromRSIConfig(cfg Config) (*RSIStrategy, error) {
	if cfg.Period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if cfg.Oversold < 0 || cfg.Oversold >= cfg.Overbought || cfg.Overbought > 100 {
		return nil, ErrInvalidRSILevels
	}
	return NewRSIStrategy(cfg.Period, cfg.Oversold, cfg.Overbought, cfg.Volume), nil
}

func fromMomentumConfig(cfg Config) (*MomentumStrategy, error) {
	if cfg.Period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if cfg.ThresholdPct <= 0 {
		return nil, ErrInvalidThreshold
	}
	return NewMomentumStrategy(cfg.Period, cfg.ThresholdPct, cfg.Volume, cfg.StopLossPct, cfg.TakeProfitPct), nil
}
