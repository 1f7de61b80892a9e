package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestOrder(t *testing.T, direction OrderDirection) *TradingOrder {
	t.Helper()
	order, err := NewTradingOrder(NewOrderParams{
		PairCode:      "BTCUSD",
		Direction:     direction,
		Volume:        dec("0.1"),
		CreateTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatePrice:   dec("50000"),
		AgentID:       uuid.New(),
		AccountID:     uuid.New(),
		BrokerID:      uuid.New(),
		BacktestRunID: uuid.New(),
	})
	require.NoError(t, err)
	return order
}

func TestNewTradingOrder_Validation(t *testing.T) {
	base := NewOrderParams{
		PairCode:    "BTCUSD",
		Direction:   Long,
		Volume:      dec("1"),
		CreatePrice: dec("100"),
	}

	p := base
	p.PairCode = "  "
	_, err := NewTradingOrder(p)
	assert.Error(t, err)

	p = base
	p.Direction = "SIDEWAYS"
	_, err = NewTradingOrder(p)
	assert.Error(t, err)

	p = base
	p.Volume = dec("0")
	_, err = NewTradingOrder(p)
	assert.Error(t, err)

	p = base
	p.CreatePrice = dec("-1")
	_, err = NewTradingOrder(p)
	assert.Error(t, err)

	negative := dec("-5")
	p = base
	p.LimitPrice = &negative
	_, err = NewTradingOrder(p)
	assert.Error(t, err)
}

func TestTradingOrder_IsOwnRootWithoutParent(t *testing.T) {
	order := newTestOrder(t, Long)
	assert.Equal(t, order.ID, order.RootOrderID)
	assert.Nil(t, order.ParentOrderID)
}

func TestTradingOrder_ChainPreservesRoot(t *testing.T) {
	root := newTestOrder(t, Long)

	child, err := NewTradingOrder(NewOrderParams{
		PairCode:      root.PairCode,
		Direction:     root.Direction,
		Volume:        dec("0.05"),
		CreateTime:    root.CreateTime,
		CreatePrice:   root.CreatePrice,
		AccountID:     root.AccountID,
		BacktestRunID: root.BacktestRunID,
		ParentOrderID: &root.ID,
		RootOrderID:   &root.RootOrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *child.ParentOrderID)
	assert.Equal(t, root.ID, child.RootOrderID)

	grandchild, err := NewTradingOrder(NewOrderParams{
		PairCode:      root.PairCode,
		Direction:     root.Direction,
		Volume:        dec("0.02"),
		CreateTime:    root.CreateTime,
		CreatePrice:   root.CreatePrice,
		AccountID:     root.AccountID,
		BacktestRunID: root.BacktestRunID,
		ParentOrderID: &child.ID,
		RootOrderID:   &child.RootOrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, child.ID, *grandchild.ParentOrderID)
	assert.Equal(t, root.ID, grandchild.RootOrderID)
}

func TestTradingOrder_ChainRequiresRoot(t *testing.T) {
	root := newTestOrder(t, Long)
	_, err := NewTradingOrder(NewOrderParams{
		PairCode:      root.PairCode,
		Direction:     Long,
		Volume:        dec("0.05"),
		CreatePrice:   dec("50000"),
		ParentOrderID: &root.ID,
	})
	assert.Error(t, err)
}

func TestTradingOrder_FullLifecycleLong(t *testing.T) {
	order := newTestOrder(t, Long)
	fillTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	closeTime := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	order.FeesOnCreate = dec("5.01")
	require.NoError(t, order.Fill(fillTime, dec("50000"), dec("5.50"), dec("500")))
	assert.Equal(t, OrderFilled, order.Status)
	assert.True(t, order.IsActive())

	require.NoError(t, order.Close(closeTime, dec("55000"), dec("1.50")))
	assert.Equal(t, OrderClosed, order.Status)
	assert.False(t, order.IsActive())

	// (55000 - 50000) * 0.1 = 500 gross, minus 12.01 total fees
	assert.True(t, order.GrossPnL.Equal(dec("500")), "gross = %s", order.GrossPnL)
	assert.True(t, order.NetPnL.Equal(dec("487.99")), "net = %s", order.NetPnL)
	assert.True(t, order.TotalFees().Equal(dec("12.01")))
}

func TestTradingOrder_ShortPnLSign(t *testing.T) {
	order := newTestOrder(t, Short)
	require.NoError(t, order.Fill(order.CreateTime, dec("50000"), decimal.Zero, dec("500")))
	require.NoError(t, order.Close(order.CreateTime.Add(time.Hour), dec("45000"), decimal.Zero))

	// Shorts profit when price falls: (50000 - 45000) * 0.1
	assert.True(t, order.GrossPnL.Equal(dec("500")))

	loser := newTestOrder(t, Short)
	require.NoError(t, loser.Fill(loser.CreateTime, dec("50000"), decimal.Zero, dec("500")))
	require.NoError(t, loser.Close(loser.CreateTime.Add(time.Hour), dec("55000"), decimal.Zero))
	assert.True(t, loser.GrossPnL.Equal(dec("-500")))
}

func TestTradingOrder_InvalidTransitionsLeaveOrderUnchanged(t *testing.T) {
	order := newTestOrder(t, Long)
	now := order.CreateTime

	// Close and overnight-accrual targets must be FILLED
	before := *order
	err := order.Close(now, dec("55000"), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, *order)

	require.NoError(t, order.Fill(now, dec("50000"), decimal.Zero, dec("500")))

	before = *order
	err = order.Fill(now, dec("51000"), decimal.Zero, dec("500"))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, *order)

	before = *order
	err = order.Cancel(now, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, *order)

	require.NoError(t, order.Close(now, dec("55000"), decimal.Zero))

	before = *order
	err = order.Close(now, dec("56000"), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, *order)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTradingOrder_CancelNetsNegativeFees(t *testing.T) {
	order := newTestOrder(t, Long)
	order.FeesOnCreate = dec("2.50")

	require.NoError(t, order.Cancel(order.CreateTime.Add(time.Hour), dec("1.00")))
	assert.Equal(t, OrderCancelled, order.Status)
	assert.True(t, order.NetPnL.Equal(dec("-3.50")))
}

func TestTradingOrder_OvernightFeesRecomputeClosedNet(t *testing.T) {
	order := newTestOrder(t, Long)
	require.NoError(t, order.Fill(order.CreateTime, dec("50000"), decimal.Zero, dec("500")))

	require.NoError(t, order.AddOvernightFees(dec("1.25")))
	require.NoError(t, order.AddOvernightFees(dec("1.25")))
	assert.True(t, order.FeesOnOvernight.Equal(dec("2.50")))

	require.NoError(t, order.Close(order.CreateTime.Add(time.Hour), dec("55000"), decimal.Zero))
	assert.True(t, order.NetPnL.Equal(dec("497.50")))

	// Accrual after close recomputes net P&L
	require.NoError(t, order.AddOvernightFees(dec("0.50")))
	assert.True(t, order.NetPnL.Equal(dec("497")))

	assert.Error(t, order.AddOvernightFees(dec("-1")))
}

func TestTradingOrder_UnrealizedPnL(t *testing.T) {
	order := newTestOrder(t, Long)
	assert.True(t, order.UnrealizedPnL(dec("60000")).IsZero())

	require.NoError(t, order.Fill(order.CreateTime, dec("50000"), decimal.Zero, dec("500")))
	assert.True(t, order.UnrealizedPnL(dec("52000")).Equal(dec("200")))
	assert.True(t, order.UnrealizedPnL(dec("49000")).Equal(dec("-100")))
}
