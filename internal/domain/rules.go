package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeverageType selects how margin is derived from a position.
type LeverageType string

// Leverage type constants.
const (
	NoLeverage          LeverageType = "NO_LEVERAGE"            // margin = full notional
	FlatMarginPerVolume LeverageType = "FLAT_MARGIN_PER_VOLUME" // margin = volume * leverage value
	MarginMultiplier    LeverageType = "MARGIN_MULTIPLIER"      // margin = notional / leverage value
)

// FeeType selects how a fee amount is computed.
type FeeType string

// Fee type constants.
const (
	NoFee             FeeType = "NO_FEE"
	FlatPerTrade      FeeType = "FLAT_PER_TRADE"
	FlatPerVolume     FeeType = "FLAT_PER_VOLUME"
	PercentOfNotional FeeType = "PERCENT_OF_NOTIONAL"
	PercentOfMargin   FeeType = "PERCENT_OF_MARGIN"
)

// FeeTiming tags the lifecycle stage at which a fee is charged.
type FeeTiming string

// Fee timing constants.
const (
	OnCreate    FeeTiming = "ON_CREATE"
	OnFill      FeeTiming = "ON_FILL"
	OnClose     FeeTiming = "ON_CLOSE"
	OnCancel    FeeTiming = "ON_CANCEL"
	OnOvernight FeeTiming = "ON_OVERNIGHT"
)

// OvernightTiming selects when overnight fees accrue.
type OvernightTiming string

// Overnight timing constants.
const (
	OnPeriodChange OvernightTiming = "ON_PERIOD_CHANGE" // at timeframe boundary, e.g. day change
	OnFixedTime    OvernightTiming = "ON_FIXED_TIME"    // at a specific time of day
)

// Fee is one fee definition: how it is computed, when it is charged, and
// the amount (interpretation depends on FeeType; percentages are fractions).
type Fee struct {
	Type   FeeType
	Timing FeeTiming
	Amount decimal.Decimal
}

// NewFee creates a validated Fee.
func NewFee(feeType FeeType, timing FeeTiming, amount decimal.Decimal) (*Fee, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("fee amount cannot be negative, got %s", amount)
	}
	return &Fee{Type: feeType, Timing: timing, Amount: amount}, nil
}

// Compute evaluates the fee for the given trade figures. The tagged
// dispatch is exhaustive over FeeType; unknown tags yield zero.
func (f *Fee) Compute(volume, notional, margin decimal.Decimal) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	switch f.Type {
	case FlatPerTrade:
		return f.Amount
	case FlatPerVolume:
		return f.Amount.Mul(volume)
	case PercentOfNotional:
		return f.Amount.Mul(notional)
	case PercentOfMargin:
		return f.Amount.Mul(margin)
	case NoFee:
		return decimal.Zero
	}
	return decimal.Zero
}

// TimeOfDay is a wall-clock time used for ON_FIXED_TIME overnight charges.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// TradingRules encodes the leverage, fee, and constraint policy for one
// (broker, pair) combination. Pure policy: no method here mutates state.
type TradingRules struct {
	ID       uuid.UUID
	BrokerID uuid.UUID
	PairCode string

	// Leverage
	LeverageType  LeverageType
	LeverageValue decimal.Decimal

	// Fees (any may be nil)
	BrokerageFee *Fee
	CustodyFee   *Fee
	LeverageFee  *Fee

	// Overnight charging
	OvernightTiming     OvernightTiming
	OvernightChargeTime *TimeOfDay // required for ON_FIXED_TIME

	// Constraints
	MinVolume         decimal.Decimal
	MinNotionalAmount decimal.Decimal
	MinMarginAmount   decimal.Decimal
	AllowsLong        bool
	AllowsShort       bool
}

// NewTradingRules validates and creates a TradingRules policy.
func NewTradingRules(r TradingRules) (*TradingRules, error) {
	if strings.TrimSpace(r.PairCode) == "" {
		return nil, fmt.Errorf("pair code cannot be empty")
	}
	switch r.LeverageType {
	case NoLeverage:
		if !r.LeverageValue.Equal(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("NO_LEVERAGE requires leverage value 1, got %s", r.LeverageValue)
		}
	case FlatMarginPerVolume, MarginMultiplier:
		if r.LeverageValue.Sign() <= 0 {
			return nil, fmt.Errorf("%s requires positive leverage value, got %s", r.LeverageType, r.LeverageValue)
		}
	default:
		return nil, fmt.Errorf("unknown leverage type %q", r.LeverageType)
	}
	if r.OvernightTiming == OnFixedTime && r.OvernightChargeTime == nil {
		return nil, fmt.Errorf("ON_FIXED_TIME requires an overnight charge time")
	}
	if r.MinVolume.IsNegative() {
		return nil, fmt.Errorf("min volume cannot be negative")
	}
	if r.MinNotionalAmount.IsNegative() {
		return nil, fmt.Errorf("min notional amount cannot be negative")
	}
	if r.MinMarginAmount.IsNegative() {
		return nil, fmt.Errorf("min margin amount cannot be negative")
	}
	if !r.AllowsLong && !r.AllowsShort {
		return nil, fmt.Errorf("at least one of long or short must be allowed")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return &r, nil
}

// MarginRequired computes the margin needed for a position of the given
// volume at the given price.
func (r *TradingRules) MarginRequired(volume, price, contractSize decimal.Decimal) decimal.Decimal {
	notional := volume.Mul(price).Mul(contractSize)
	switch r.LeverageType {
	case FlatMarginPerVolume:
		return volume.Mul(r.LeverageValue)
	case MarginMultiplier:
		return notional.Div(r.LeverageValue)
	case NoLeverage:
		return notional
	}
	return notional
}

// ValidateOrder checks a candidate order against the rules. Business-rule
// violations are not errors: the result is (false, reason) and the first
// failing check wins. Checks run in order: direction, min volume, min
// notional, min margin, available margin.
func (r *TradingRules) ValidateOrder(volume, price, availableMargin decimal.Decimal, isLong bool, contractSize decimal.Decimal) (bool, string) {
	if isLong && !r.AllowsLong {
		return false, "long positions not allowed"
	}
	if !isLong && !r.AllowsShort {
		return false, "short positions not allowed"
	}
	if volume.LessThan(r.MinVolume) {
		return false, fmt.Sprintf("volume %s below minimum %s", volume, r.MinVolume)
	}
	notional := volume.Mul(price).Mul(contractSize)
	if notional.LessThan(r.MinNotionalAmount) {
		return false, fmt.Sprintf("notional %s below minimum %s", notional, r.MinNotionalAmount)
	}
	required := r.MarginRequired(volume, price, contractSize)
	if required.LessThan(r.MinMarginAmount) {
		return false, fmt.Sprintf("margin %s below minimum %s", required, r.MinMarginAmount)
	}
	if availableMargin.LessThan(required) {
		return false, fmt.Sprintf("insufficient margin: need %s, have %s", required, availableMargin)
	}
	return true, ""
}

// FeeFor sums every configured fee that charges at the given stage.
func (r *TradingRules) FeeFor(timing FeeTiming, volume, notional, margin decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, fee := range []*Fee{r.BrokerageFee, r.CustodyFee, r.LeverageFee} {
		if fee != nil && fee.Timing == timing {
			total = total.Add(fee.Compute(volume, notional, margin))
		}
	}
	return total
}
