package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned when an order lifecycle method is
// called in a state that does not allow it. The order is left unchanged.
var ErrInvalidTransition = errors.New("invalid order state transition")

// OrderDirection is the side of a trading order.
type OrderDirection string

// Order direction constants.
const (
	Long  OrderDirection = "LONG"
	Short OrderDirection = "SHORT"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order status constants.
const (
	OrderPending   OrderStatus = "PENDING"   // created, waiting to be filled
	OrderFilled    OrderStatus = "FILLED"    // filled, position open
	OrderClosed    OrderStatus = "CLOSED"    // position closed
	OrderCancelled OrderStatus = "CANCELLED" // cancelled before fill
)

// TradingOrder tracks a leveraged order/position through its full
// lifecycle: PENDING -> FILLED -> CLOSED, or PENDING -> CANCELLED.
// Fees are accumulated independently per stage. The order never touches
// accounts or balances itself; callers emit the matching Transactions.
type TradingOrder struct {
	ID            uuid.UUID
	PairCode      string
	Direction     OrderDirection
	Volume        decimal.Decimal
	Status        OrderStatus
	AgentID       uuid.UUID
	AccountID     uuid.UUID
	BrokerID      uuid.UUID
	BacktestRunID uuid.UUID

	// Lifecycle timestamps and prices
	CreateTime  time.Time
	CreatePrice decimal.Decimal
	FillTime    time.Time
	FillPrice   decimal.Decimal
	CloseTime   time.Time
	ClosePrice  decimal.Decimal
	CancelTime  time.Time

	// Optional order features (nil when unset)
	LimitPrice *decimal.Decimal
	StopLoss   *decimal.Decimal
	TakeProfit *decimal.Decimal
	Leverage   *decimal.Decimal

	// Fee accumulators per stage
	FeesOnCreate    decimal.Decimal
	FeesOnFill      decimal.Decimal
	FeesOnClose     decimal.Decimal
	FeesOnCancel    decimal.Decimal
	FeesOnOvernight decimal.Decimal

	// Financial tracking
	MarginReserved decimal.Decimal
	GrossPnL       decimal.Decimal
	NetPnL         decimal.Decimal

	// Split/modification chain
	ParentOrderID *uuid.UUID
	RootOrderID   uuid.UUID
}

// NewOrderParams carries the inputs for NewTradingOrder. Optional fields
// may be nil.
type NewOrderParams struct {
	PairCode      string
	Direction     OrderDirection
	Volume        decimal.Decimal
	CreateTime    time.Time
	CreatePrice   decimal.Decimal
	AgentID       uuid.UUID
	AccountID     uuid.UUID
	BrokerID      uuid.UUID
	BacktestRunID uuid.UUID
	LimitPrice    *decimal.Decimal
	StopLoss      *decimal.Decimal
	TakeProfit    *decimal.Decimal
	Leverage      *decimal.Decimal
	ParentOrderID *uuid.UUID
	RootOrderID   *uuid.UUID // required when ParentOrderID is set
}

// NewTradingOrder creates a validated PENDING order. An order with no
// parent is its own root.
func NewTradingOrder(p NewOrderParams) (*TradingOrder, error) {
	if strings.TrimSpace(p.PairCode) == "" {
		return nil, fmt.Errorf("pair code cannot be empty")
	}
	if p.Direction != Long && p.Direction != Short {
		return nil, fmt.Errorf("unknown order direction %q", p.Direction)
	}
	if p.Volume.Sign() <= 0 {
		return nil, fmt.Errorf("volume must be positive, got %s", p.Volume)
	}
	if p.CreatePrice.Sign() <= 0 {
		return nil, fmt.Errorf("create price must be positive, got %s", p.CreatePrice)
	}
	if p.LimitPrice != nil && p.LimitPrice.Sign() <= 0 {
		return nil, fmt.Errorf("limit price must be positive if set, got %s", p.LimitPrice)
	}
	if p.Leverage != nil && p.Leverage.Sign() <= 0 {
		return nil, fmt.Errorf("leverage must be positive if set, got %s", p.Leverage)
	}

	id := uuid.New()
	rootID := id
	if p.ParentOrderID != nil {
		if p.RootOrderID == nil {
			return nil, fmt.Errorf("orders with a parent must carry the chain root id")
		}
		rootID = *p.RootOrderID
	}

	return &TradingOrder{
		ID:            id,
		PairCode:      p.PairCode,
		Direction:     p.Direction,
		Volume:        p.Volume,
		Status:        OrderPending,
		AgentID:       p.AgentID,
		AccountID:     p.AccountID,
		BrokerID:      p.BrokerID,
		BacktestRunID: p.BacktestRunID,
		CreateTime:    p.CreateTime,
		CreatePrice:   p.CreatePrice,
		LimitPrice:    p.LimitPrice,
		StopLoss:      p.StopLoss,
		TakeProfit:    p.TakeProfit,
		Leverage:      p.Leverage,
		ParentOrderID: p.ParentOrderID,
		RootOrderID:   rootID,
	}, nil
}

// IsPending reports whether the order is waiting to be filled.
func (o *TradingOrder) IsPending() bool { return o.Status == OrderPending }

// IsFilled reports whether the order holds an open position.
func (o *TradingOrder) IsFilled() bool { return o.Status == OrderFilled }

// IsClosed reports whether the position has been closed.
func (o *TradingOrder) IsClosed() bool { return o.Status == OrderClosed }

// IsCancelled reports whether the order was cancelled before fill.
func (o *TradingOrder) IsCancelled() bool { return o.Status == OrderCancelled }

// IsActive reports whether the order is pending or filled.
func (o *TradingOrder) IsActive() bool {
	return o.Status == OrderPending || o.Status == OrderFilled
}

// IsLimitOrder reports whether a limit price is set.
func (o *TradingOrder) IsLimitOrder() bool { return o.LimitPrice != nil }

// TotalFees sums the fee accumulators across all stages.
func (o *TradingOrder) TotalFees() decimal.Decimal {
	return o.FeesOnCreate.
		Add(o.FeesOnFill).
		Add(o.FeesOnClose).
		Add(o.FeesOnCancel).
		Add(o.FeesOnOvernight)
}

// Fill transitions PENDING -> FILLED, recording the fill price, fees, and
// the margin reserved for the position.
func (o *TradingOrder) Fill(fillTime time.Time, fillPrice, feesOnFill, marginReserved decimal.Decimal) error {
	if o.Status != OrderPending {
		return fmt.Errorf("cannot fill order in status %s: %w", o.Status, ErrInvalidTransition)
	}
	o.FillTime = fillTime
	o.FillPrice = fillPrice
	o.FeesOnFill = feesOnFill
	o.MarginReserved = marginReserved
	o.Status = OrderFilled
	return nil
}

// Close transitions FILLED -> CLOSED and computes gross and net P&L.
// LONG: gross = (close - fill) * volume. SHORT: gross = (fill - close) * volume.
func (o *TradingOrder) Close(closeTime time.Time, closePrice, feesOnClose decimal.Decimal) error {
	if o.Status != OrderFilled {
		return fmt.Errorf("cannot close order in status %s: %w", o.Status, ErrInvalidTransition)
	}
	o.CloseTime = closeTime
	o.ClosePrice = closePrice
	o.FeesOnClose = feesOnClose
	o.Status = OrderClosed

	if o.Direction == Long {
		o.GrossPnL = closePrice.Sub(o.FillPrice).Mul(o.Volume)
	} else {
		o.GrossPnL = o.FillPrice.Sub(closePrice).Mul(o.Volume)
	}
	o.NetPnL = o.GrossPnL.Sub(o.TotalFees())
	return nil
}

// Cancel transitions PENDING -> CANCELLED. Net P&L becomes the negative of
// all fees incurred so far.
func (o *TradingOrder) Cancel(cancelTime time.Time, feesOnCancel decimal.Decimal) error {
	if o.Status != OrderPending {
		return fmt.Errorf("cannot cancel order in status %s: %w", o.Status, ErrInvalidTransition)
	}
	o.CancelTime = cancelTime
	o.FeesOnCancel = feesOnCancel
	o.Status = OrderCancelled
	o.NetPnL = o.TotalFees().Neg()
	return nil
}

// AddOvernightFees accrues overnight fees. Allowed at any point after
// fill, including after close, in which case net P&L is recomputed.
func (o *TradingOrder) AddOvernightFees(fees decimal.Decimal) error {
	if fees.IsNegative() {
		return fmt.Errorf("overnight fees cannot be negative, got %s", fees)
	}
	o.FeesOnOvernight = o.FeesOnOvernight.Add(fees)
	if o.Status == OrderClosed {
		o.NetPnL = o.GrossPnL.Sub(o.TotalFees())
	}
	return nil
}

// UnrealizedPnL values an open position against the given price. Zero for
// orders that are not filled.
func (o *TradingOrder) UnrealizedPnL(currentPrice decimal.Decimal) decimal.Decimal {
	if o.Status != OrderFilled {
		return decimal.Zero
	}
	if o.Direction == Long {
		return currentPrice.Sub(o.FillPrice).Mul(o.Volume)
	}
	return o.FillPrice.Sub(currentPrice).Mul(o.Volume)
}
