package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BacktestRun identifies one backtest execution and its configuration
// window. Orders, transactions, and balances all carry the run id so that
// runtime state can be cleared per run while configuration persists.
type BacktestRun struct {
	ID          uuid.UUID
	BrokerID    uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	PairCodes   []string
	AgentIDs    []uuid.UUID
	Description string
}

// NewBacktestRun creates a validated BacktestRun.
func NewBacktestRun(brokerID uuid.UUID, start, end time.Time, pairCodes []string, agentIDs []uuid.UUID, description string) (*BacktestRun, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("run start %s must be before end %s", start, end)
	}
	if len(pairCodes) == 0 {
		return nil, fmt.Errorf("run requires at least one trading pair")
	}
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("run requires at least one agent")
	}
	return &BacktestRun{
		ID:          uuid.New(),
		BrokerID:    brokerID,
		StartDate:   start,
		EndDate:     end,
		PairCodes:   pairCodes,
		AgentIDs:    agentIDs,
		Description: description,
	}, nil
}

// OrderSnapshot records an order's P&L state at one bar, used for
// tracking realized and unrealized P&L over time.
type OrderSnapshot struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Timestamp     time.Time
	Status        OrderStatus
	UnrealizedPnL decimal.Decimal
	RealizedPnL   decimal.Decimal
	CurrentPrice  decimal.Decimal
	TotalFees     decimal.Decimal
}

// NewOrderSnapshot captures the P&L state of an order at a price point.
func NewOrderSnapshot(order *TradingOrder, ts time.Time, currentPrice decimal.Decimal) *OrderSnapshot {
	realized := decimal.Zero
	if order.Status == OrderClosed || order.Status == OrderCancelled {
		realized = order.NetPnL
	}
	return &OrderSnapshot{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Timestamp:     ts,
		Status:        order.Status,
		UnrealizedPnL: order.UnrealizedPnL(currentPrice),
		RealizedPnL:   realized,
		CurrentPrice:  currentPrice,
		TotalFees:     order.TotalFees(),
	}
}
