package strategy

import (
	"github.com/google/uuid"

	"backtest-lab/internal/domain"
)

// Context is the per-(account, pair) view a strategy receives on each
// call. The engine rebuilds History and Active before every OnBar;
// strategies read from it and may queue close requests, nothing else.
type Context struct {
	Account *domain.Account
	Pair    *domain.TradingPair
	Rules   *domain.TradingRules
	Run     *domain.BacktestRun

	// History holds the bars seen so far, oldest first, including the
	// bar currently being processed.
	History []*domain.Bar

	// Active holds the account's pending and filled orders on this pair.
	Active []*domain.TradingOrder

	closeRequests []uuid.UUID
}

// RequestClose asks the engine to close a filled order at the current
// bar's close price.
func (c *Context) RequestClose(orderID uuid.UUID) {
	c.closeRequests = append(c.closeRequests, orderID)
}

// DrainCloseRequests returns and clears the queued close requests.
func (c *Context) DrainCloseRequests() []uuid.UUID {
	requests := c.closeRequests
	c.closeRequests = nil
	return requests
}

// Closes returns the history's close prices as float64, the form the
// indicator library works in.
func (c *Context) Closes() []float64 {
	closes := make([]float64, len(c.History))
	for i, bar := range c.History {
		closes[i] = bar.Close.InexactFloat64()
	}
	return closes
}

// FilledOrders returns the active orders currently holding a position.
func (c *Context) FilledOrders() []*domain.TradingOrder {
	var filled []*domain.TradingOrder
	for _, o := range c.Active {
		if o.IsFilled() {
			filled = append(filled, o)
		}
	}
	return filled
}

// Strategy reacts to market bars by producing candidate orders. The
// engine guarantees OnStart is called once before the first bar, OnBar
// once per bar in timestamp order, and OnEnd once after the last bar.
// Returned orders are candidates only: the engine validates them against
// the trading rules and cancels rejects.
type Strategy interface {
	// Name returns the strategy identifier (includes parameters).
	Name() string

	OnStart(ctx *Context) error
	OnBar(ctx *Context, bar *domain.Bar) ([]*domain.TradingOrder, error)
	OnEnd(ctx *Context) error
}
