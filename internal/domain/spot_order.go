package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpotOrder is an order for direct asset exchange on spot markets: no
// leverage, no margin. Unlike TradingOrder it is immutable; lifecycle
// steps produce a new value via FilledCopy / CancelledCopy, preserving
// the original as an audit record. Partial execution is supported by
// tracking filled and cancelled volume separately.
type SpotOrder struct {
	ID            uuid.UUID
	BrokerID      uuid.UUID
	PairCode      string
	AgentID       uuid.UUID
	AccountID     uuid.UUID
	BacktestRunID uuid.UUID
	OrderNumber   int // sequential per agent
	Direction     OrderDirection
	Status        OrderStatus
	CreateTime    time.Time
	Volume        decimal.Decimal
	LimitPrice    *decimal.Decimal // nil = market order

	// Split/modification chain
	ParentID *uuid.UUID
	RootID   uuid.UUID

	// Fill information
	FillTime   time.Time
	FillPrice  *decimal.Decimal
	FillVolume *decimal.Decimal

	// Cancel information
	CancelTime   time.Time
	CancelVolume *decimal.Decimal

	// Fees at each stage (nil = none charged)
	FeeCreate *decimal.Decimal
	FeeFill   *decimal.Decimal
	FeeCancel *decimal.Decimal
}

// NewSpotOrderParams carries the inputs for NewSpotOrder.
type NewSpotOrderParams struct {
	BrokerID      uuid.UUID
	PairCode      string
	AgentID       uuid.UUID
	AccountID     uuid.UUID
	BacktestRunID uuid.UUID
	OrderNumber   int
	Direction     OrderDirection
	CreateTime    time.Time
	Volume        decimal.Decimal
	LimitPrice    *decimal.Decimal
	FeeCreate     *decimal.Decimal
	ParentID      *uuid.UUID
	RootID        *uuid.UUID // required when ParentID is set
}

// NewSpotOrder creates a validated PENDING spot order. An order with no
// parent is its own root.
func NewSpotOrder(p NewSpotOrderParams) (*SpotOrder, error) {
	if strings.TrimSpace(p.PairCode) == "" {
		return nil, fmt.Errorf("pair code cannot be empty")
	}
	if p.Volume.Sign() <= 0 {
		return nil, fmt.Errorf("volume must be positive, got %s", p.Volume)
	}
	if p.OrderNumber < 0 {
		return nil, fmt.Errorf("order number must be non-negative, got %d", p.OrderNumber)
	}
	if p.LimitPrice != nil && p.LimitPrice.Sign() <= 0 {
		return nil, fmt.Errorf("limit price must be positive if set, got %s", p.LimitPrice)
	}

	id := uuid.New()
	rootID := id
	if p.ParentID != nil {
		if p.RootID == nil {
			return nil, fmt.Errorf("spot orders with a parent must carry the chain root id")
		}
		rootID = *p.RootID
	}

	return &SpotOrder{
		ID:            id,
		BrokerID:      p.BrokerID,
		PairCode:      p.PairCode,
		AgentID:       p.AgentID,
		AccountID:     p.AccountID,
		BacktestRunID: p.BacktestRunID,
		OrderNumber:   p.OrderNumber,
		Direction:     p.Direction,
		Status:        OrderPending,
		CreateTime:    p.CreateTime,
		Volume:        p.Volume,
		LimitPrice:    p.LimitPrice,
		FeeCreate:     p.FeeCreate,
		ParentID:      p.ParentID,
		RootID:        rootID,
	}, nil
}

// IsPending reports whether the order can still fill or cancel.
func (o *SpotOrder) IsPending() bool { return o.Status == OrderPending }

// IsMarketOrder reports whether no limit price is set.
func (o *SpotOrder) IsMarketOrder() bool { return o.LimitPrice == nil }

// TotalFees sums the fees charged so far.
func (o *SpotOrder) TotalFees() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range []*decimal.Decimal{o.FeeCreate, o.FeeFill, o.FeeCancel} {
		if fee != nil {
			total = total.Add(*fee)
		}
	}
	return total
}

// RemainingVolume is the volume not yet filled or cancelled.
func (o *SpotOrder) RemainingVolume() decimal.Decimal {
	remaining := o.Volume
	if o.FillVolume != nil {
		remaining = remaining.Sub(*o.FillVolume)
	}
	if o.CancelVolume != nil {
		remaining = remaining.Sub(*o.CancelVolume)
	}
	return remaining
}

// FilledCopy produces a new FILLED version of this order. A nil
// fillVolume fills the full remaining volume. The receiver is unchanged.
func (o *SpotOrder) FilledCopy(fillTime time.Time, fillPrice decimal.Decimal, fillVolume, feeFill *decimal.Decimal) (*SpotOrder, error) {
	if o.Status != OrderPending {
		return nil, fmt.Errorf("cannot fill spot order in status %s: %w", o.Status, ErrInvalidTransition)
	}
	vol := o.RemainingVolume()
	if fillVolume != nil {
		vol = *fillVolume
	}
	if vol.Sign() <= 0 || vol.GreaterThan(o.RemainingVolume()) {
		return nil, fmt.Errorf("invalid fill volume %s, remaining %s", vol, o.RemainingVolume())
	}

	next := *o
	next.Status = OrderFilled
	next.FillTime = fillTime
	next.FillPrice = &fillPrice
	next.FillVolume = &vol
	next.FeeFill = feeFill
	return &next, nil
}

// CancelledCopy produces a new CANCELLED version of this order. A nil
// cancelVolume cancels the full remaining volume. The receiver is
// unchanged.
func (o *SpotOrder) CancelledCopy(cancelTime time.Time, cancelVolume, feeCancel *decimal.Decimal) (*SpotOrder, error) {
	if o.Status != OrderPending {
		return nil, fmt.Errorf("cannot cancel spot order in status %s: %w", o.Status, ErrInvalidTransition)
	}
	vol := o.RemainingVolume()
	if cancelVolume != nil {
		vol = *cancelVolume
	}
	if vol.Sign() <= 0 || vol.GreaterThan(o.RemainingVolume()) {
		return nil, fmt.Errorf("invalid cancel volume %s, remaining %s", vol, o.RemainingVolume())
	}

	next := *o
	next.Status = OrderCancelled
	next.CancelTime = cancelTime
	next.CancelVolume = &vol
	next.FeeCancel = feeCancel
	return &next, nil
}

// ChildCopy produces a new PENDING order in the same chain, used for
// splits and modifications. The child keeps the chain's root id and
// points at this order as its parent.
func (o *SpotOrder) ChildCopy(createTime time.Time, volume decimal.Decimal, limitPrice *decimal.Decimal) (*SpotOrder, error) {
	if volume.Sign() <= 0 {
		return nil, fmt.Errorf("volume must be positive, got %s", volume)
	}
	parentID := o.ID
	child := *o
	child.ID = uuid.New()
	child.Status = OrderPending
	child.CreateTime = createTime
	child.Volume = volume
	child.LimitPrice = limitPrice
	child.ParentID = &parentID
	child.RootID = o.RootID
	child.FillTime = time.Time{}
	child.FillPrice = nil
	child.FillVolume = nil
	child.CancelTime = time.Time{}
	child.CancelVolume = nil
	child.FeeFill = nil
	child.FeeCancel = nil
	return &child, nil
}
