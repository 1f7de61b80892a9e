package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is a point-in-time snapshot of an account's available and
// unavailable (reserved) balance. Balances are only produced by ledger
// reconciliation, never constructed ad hoc by business logic.
type Balance struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	BacktestRunID uuid.UUID
	Timestamp     time.Time
	Available     decimal.Decimal
	Unavailable   decimal.Decimal
}

// NewBalance creates a validated Balance. Negative components fail: a
// negative value here means the transaction stream was corrupted, e.g.
// margin reserved beyond the available balance.
func NewBalance(accountID, runID uuid.UUID, ts time.Time, available, unavailable decimal.Decimal) (*Balance, error) {
	if available.IsNegative() {
		return nil, fmt.Errorf("available balance cannot be negative, got %s", available)
	}
	if unavailable.IsNegative() {
		return nil, fmt.Errorf("unavailable balance cannot be negative, got %s", unavailable)
	}
	return &Balance{
		ID:            uuid.New(),
		AccountID:     accountID,
		BacktestRunID: runID,
		Timestamp:     ts,
		Available:     available,
		Unavailable:   unavailable,
	}, nil
}

// Total is available + unavailable.
func (b *Balance) Total() decimal.Decimal {
	return b.Available.Add(b.Unavailable)
}

// UtilizationPct is the share of the balance that is reserved, as a
// percentage. Zero when the total is zero.
func (b *Balance) UtilizationPct() decimal.Decimal {
	total := b.Total()
	if total.IsZero() {
		return decimal.Zero
	}
	return b.Unavailable.Div(total).Mul(decimal.NewFromInt(100))
}
