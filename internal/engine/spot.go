package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// SpotOrderRequest describes a spot exchange to execute.
type SpotOrderRequest struct {
	Run         *domain.BacktestRun
	Account     *domain.Account
	PairCode    string
	OrderNumber int
	Direction   domain.OrderDirection
	Volume      decimal.Decimal
}

// ExecuteSpotMarketOrder places and immediately fills a spot market
// order at the given price. Spot fills move the full notional through
// the ledger as a SPOT_EXCHANGE: buys debit the quote balance, sells
// credit it, with the fill fee deducted in the same movement. Both the
// pending and the filled version are kept in the spot order store.
func (e *Engine) ExecuteSpotMarketOrder(ctx context.Context, req SpotOrderRequest, ts time.Time, price decimal.Decimal) (*domain.SpotOrder, error) {
	pair, err := e.pairs.GetByCode(ctx, req.PairCode)
	if err != nil {
		return nil, fmt.Errorf("pair %s: %w", req.PairCode, err)
	}
	rules, err := e.rules.GetByBrokerPair(ctx, req.Account.Broker.ID, req.PairCode)
	if err != nil {
		return nil, fmt.Errorf("rules for pair %s: %w", req.PairCode, err)
	}

	order, err := domain.NewSpotOrder(domain.NewSpotOrderParams{
		BrokerID:      req.Account.Broker.ID,
		PairCode:      req.PairCode,
		AgentID:       req.Account.Agent.ID,
		AccountID:     req.Account.ID,
		BacktestRunID: req.Run.ID,
		OrderNumber:   req.OrderNumber,
		Direction:     req.Direction,
		CreateTime:    ts,
		Volume:        req.Volume,
	})
	if err != nil {
		return nil, err
	}
	if err := e.spotOrders.Append(ctx, order); err != nil {
		return nil, err
	}

	notional := pair.Notional(order.Volume, price)
	feeFill := rules.FeeFor(domain.OnFill, order.Volume, notional, decimal.Zero)

	filled, err := order.FilledCopy(ts, price, nil, &feeFill)
	if err != nil {
		return nil, err
	}
	if err := e.spotOrders.Append(ctx, filled); err != nil {
		return nil, err
	}

	amount := notional.Neg()
	if filled.Direction == domain.Short {
		amount = notional
	}
	amount = amount.Sub(feeFill)

	tx, err := ledger.SpotExchange(filled, ts, amount)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Post(ctx, tx); err != nil {
		return nil, err
	}

	e.log.Info("spot order filled",
		zap.String("order_id", filled.ID.String()),
		zap.String("pair", filled.PairCode),
		zap.String("price", price.String()),
		zap.String("notional", notional.String()))
	return filled, nil
}
