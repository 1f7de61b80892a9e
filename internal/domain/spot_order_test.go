package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpotOrder(t *testing.T) *SpotOrder {
	t.Helper()
	order, err := NewSpotOrder(NewSpotOrderParams{
		BrokerID:      uuid.New(),
		PairCode:      "BTCUSD",
		AgentID:       uuid.New(),
		AccountID:     uuid.New(),
		BacktestRunID: uuid.New(),
		OrderNumber:   1,
		Direction:     Long,
		CreateTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Volume:        dec("2"),
	})
	require.NoError(t, err)
	return order
}

func TestNewSpotOrder_Validation(t *testing.T) {
	_, err := NewSpotOrder(NewSpotOrderParams{PairCode: "", Volume: dec("1")})
	assert.Error(t, err)

	_, err = NewSpotOrder(NewSpotOrderParams{PairCode: "BTCUSD", Volume: dec("0")})
	assert.Error(t, err)

	_, err = NewSpotOrder(NewSpotOrderParams{PairCode: "BTCUSD", Volume: dec("1"), OrderNumber: -1})
	assert.Error(t, err)

	zero := decimal.Zero
	_, err = NewSpotOrder(NewSpotOrderParams{PairCode: "BTCUSD", Volume: dec("1"), LimitPrice: &zero})
	assert.Error(t, err)

	parent := uuid.New()
	_, err = NewSpotOrder(NewSpotOrderParams{PairCode: "BTCUSD", Volume: dec("1"), ParentID: &parent})
	assert.Error(t, err, "a parented order must carry the chain root")
}

func TestSpotOrder_FilledCopyLeavesReceiverUnchanged(t *testing.T) {
	order := newTestSpotOrder(t)
	before := *order
	fillTime := order.CreateTime.Add(time.Minute)
	fee := dec("0.50")

	filled, err := order.FilledCopy(fillTime, dec("50000"), nil, &fee)
	require.NoError(t, err)

	assert.Equal(t, before, *order, "receiver must not mutate")
	assert.Equal(t, OrderFilled, filled.Status)
	assert.True(t, filled.FillPrice.Equal(dec("50000")))
	assert.True(t, filled.FillVolume.Equal(dec("2")), "nil volume fills the full remainder")
	assert.True(t, filled.RemainingVolume().IsZero())
	assert.True(t, filled.TotalFees().Equal(dec("0.50")))
	assert.Equal(t, order.ID, filled.ID, "a fill is a new version of the same order")
}

func TestSpotOrder_PartialFill(t *testing.T) {
	order := newTestSpotOrder(t)
	partial := dec("0.5")

	filled, err := order.FilledCopy(order.CreateTime, dec("50000"), &partial, nil)
	require.NoError(t, err)
	assert.True(t, filled.RemainingVolume().Equal(dec("1.5")))

	tooMuch := dec("3")
	_, err = order.FilledCopy(order.CreateTime, dec("50000"), &tooMuch, nil)
	assert.Error(t, err)

	negative := dec("-1")
	_, err = order.FilledCopy(order.CreateTime, dec("50000"), &negative, nil)
	assert.Error(t, err)

	// A filled version cannot fill again
	_, err = filled.FilledCopy(order.CreateTime, dec("51000"), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSpotOrder_CancelledCopy(t *testing.T) {
	order := newTestSpotOrder(t)
	before := *order

	cancelled, err := order.CancelledCopy(order.CreateTime.Add(time.Hour), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, before, *order)
	assert.Equal(t, OrderCancelled, cancelled.Status)
	assert.True(t, cancelled.CancelVolume.Equal(dec("2")))
	assert.True(t, cancelled.RemainingVolume().IsZero())

	_, err = cancelled.CancelledCopy(order.CreateTime, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSpotOrder_ChildCopyKeepsChain(t *testing.T) {
	root := newTestSpotOrder(t)

	child, err := root.ChildCopy(root.CreateTime.Add(time.Minute), dec("1"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, root.ID, child.ID)
	assert.Equal(t, root.ID, *child.ParentID)
	assert.Equal(t, root.RootID, child.RootID)
	assert.Equal(t, OrderPending, child.Status)
	assert.Nil(t, child.FillPrice)
	assert.Nil(t, child.FeeFill)

	grandchild, err := child.ChildCopy(child.CreateTime.Add(time.Minute), dec("0.5"), nil)
	require.NoError(t, err)
	assert.Equal(t, child.ID, *grandchild.ParentID)
	assert.Equal(t, root.ID, grandchild.RootID)

	_, err = root.ChildCopy(root.CreateTime, dec("0"), nil)
	assert.Error(t, err)
}
