package strategy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestContext builds a Context over daily bars with the given closes.
func newTestContext(t *testing.T, closes ...string) *Context {
	t.Helper()

	btc, err := domain.NewAsset("BTC", "Bitcoin", domain.AssetCrypto, dec("0.00000001"))
	require.NoError(t, err)
	usd, err := domain.NewAsset("USD", "US Dollar", domain.AssetCurrency, dec("0.01"))
	require.NoError(t, err)
	broker, err := domain.NewBroker("Test Broker", "TEST", "US")
	require.NoError(t, err)
	pair, err := domain.NewTradingPair(btc, usd, "", dec("1"), dec("1"), dec("0.001"))
	require.NoError(t, err)
	agent, err := domain.NewTraderAgent("tester", "strategy test agent")
	require.NoError(t, err)
	regime, err := domain.NewTaxRegime("exempt", decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	account, err := domain.NewAccount(agent, usd, broker, regime, dec("100000"))
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var history []*domain.Bar
	for i, close := range closes {
		bar, err := domain.NewBarFromClose(base.AddDate(0, 0, i), pair.PairCode, dec(close))
		require.NoError(t, err)
		history = append(history, bar)
	}

	run, err := domain.NewBacktestRun(broker.ID, base, base.AddDate(0, 1, 0),
		[]string{pair.PairCode}, []uuid.UUID{agent.ID}, "strategy test")
	require.NoError(t, err)

	return &Context{
		Account: account,
		Pair:    pair,
		Run:     run,
		History: history,
	}
}

func lastBar(ctx *Context) *domain.Bar {
	return ctx.History[len(ctx.History)-1]
}

func TestContext_ClosesAndRequests(t *testing.T) {
	ctx := newTestContext(t, "10", "11", "12")

	assert.Equal(t, []float64{10, 11, 12}, ctx.Closes())

	filled, err := marketOrder(ctx, lastBar(ctx), domain.Long, dec("1"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, filled.Fill(lastBar(ctx).Timestamp, dec("12"), decimal.Zero, dec("1.2")))
	pending, err := marketOrder(ctx, lastBar(ctx), domain.Long, dec("1"), nil, nil)
	require.NoError(t, err)
	ctx.Active = []*domain.TradingOrder{filled, pending}

	assert.Len(t, ctx.FilledOrders(), 1)

	ctx.RequestClose(filled.ID)
	drained := ctx.DrainCloseRequests()
	require.Len(t, drained, 1)
	assert.Equal(t, filled.ID, drained[0])
	assert.Empty(t, ctx.DrainCloseRequests(), "drain clears the queue")
}

func TestMACrossover_GoldenCrossOpensLong(t *testing.T) {
	strat := NewMACrossoverStrategy(2, 3, dec("1"))

	// fast SMA(2) moves from below slow SMA(3) to above it on the last bar
	ctx := newTestContext(t, "10", "9", "8", "20")
	orders, err := strat.OnBar(ctx, lastBar(ctx))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.Long, orders[0].Direction)
	assert.True(t, orders[0].CreatePrice.Equal(dec("20")))
}

func TestMACrossover_DeathCrossRequestsExit(t *testing.T) {
	strat := NewMACrossoverStrategy(2, 3, dec("1"))

	ctx := newTestContext(t, "10", "11", "12", "2")
	position, err := marketOrder(ctx, lastBar(ctx), domain.Long, dec("1"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, position.Fill(lastBar(ctx).Timestamp, dec("12"), decimal.Zero, dec("1.2")))
	ctx.Active = []*domain.TradingOrder{position}

	orders, err := strat.OnBar(ctx, lastBar(ctx))
	require.NoError(t, err)
	assert.Empty(t, orders)

	drained := ctx.DrainCloseRequests()
	require.Len(t, drained, 1)
	assert.Equal(t, position.ID, drained[0])
}

func TestMACrossover_WarmupProducesNothing(t *testing.T) {
	strat := NewMACrossoverStrategy(2, 3, dec("1"))

	ctx := newTestContext(t, "10", "9", "8")
	orders, err := strat.OnBar(ctx, lastBar(ctx))
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, ctx.DrainCloseRequests())
}

func TestMomentum_OpensShortOnNegativeMomentum(t *testing.T) {
	strat := NewMomentumStrategy(2, 0.02, dec("1"), 0.05, 0.10)

	// momentum over 2 bars: 80 - 100 = -20, threshold 0.02 * 80 = 1.6
	ctx := newTestContext(t, "100", "90", "80")
	orders, err := strat.OnBar(ctx, lastBar(ctx))
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, domain.Short, order.Direction)
	require.NotNil(t, order.StopLoss)
	require.NotNil(t, order.TakeProfit)
	// Short protections sit on the opposite sides of the entry
	assert.True(t, order.StopLoss.Equal(dec("84")), "stop loss = %s", order.StopLoss)
	assert.True(t, order.TakeProfit.Equal(dec("72")), "take profit = %s", order.TakeProfit)
}

func TestMomentum_HoldsWhilePositionOpen(t *testing.T) {
	strat := NewMomentumStrategy(2, 0.02, dec("1"), 0, 0)

	ctx := newTestContext(t, "100", "110", "130")
	position, err := marketOrder(ctx, lastBar(ctx), domain.Long, dec("1"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, position.Fill(lastBar(ctx).Timestamp, dec("130"), decimal.Zero, dec("13")))
	ctx.Active = []*domain.TradingOrder{position}

	orders, err := strat.OnBar(ctx, lastBar(ctx))
	require.NoError(t, err)
	assert.Empty(t, orders, "one position at a time")
}

func TestProtectionLevels(t *testing.T) {
	stopLoss, takeProfit := protectionLevels(dec("100"), domain.Long, 0.05, 0.10)
	require.NotNil(t, stopLoss)
	require.NotNil(t, takeProfit)
	assert.True(t, stopLoss.Equal(dec("95")))
	assert.True(t, takeProfit.Equal(dec("110")))

	stopLoss, takeProfit = protectionLevels(dec("100"), domain.Short, 0.05, 0)
	require.NotNil(t, stopLoss)
	assert.True(t, stopLoss.Equal(dec("105")))
	assert.Nil(t, takeProfit)
}
