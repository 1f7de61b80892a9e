package metrics

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report is the performance summary of one backtest run, computed from
// the run's closed orders and balance curve.
type Report struct {
	RunID         uuid.UUID `json:"run_id"`
	StrategyName  string    `json:"strategy_name"`
	PairCode      string    `json:"pair_code"`
	BarsProcessed int       `json:"bars_processed"`

	// Capital
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalBalance   decimal.Decimal `json:"final_balance"`
	TotalReturnPct decimal.Decimal `json:"total_return_pct"`

	// P&L
	GrossPnL  decimal.Decimal `json:"gross_pnl"`
	NetPnL    decimal.Decimal `json:"net_pnl"`
	TotalFees decimal.Decimal `json:"total_fees"`

	// Trades
	TotalTrades     int `json:"total_trades"`
	WinningTrades   int `json:"winning_trades"`
	LosingTrades    int `json:"losing_trades"`
	CancelledOrders int `json:"cancelled_orders"`

	// Quality
	WinRatePct           decimal.Decimal `json:"win_rate_pct"`
	AvgWin               decimal.Decimal `json:"avg_win"`
	AvgLoss              decimal.Decimal `json:"avg_loss"`
	ProfitFactor         decimal.Decimal `json:"profit_factor"`
	MaxDrawdownPct       decimal.Decimal `json:"max_drawdown_pct"`
	MaxConsecutiveLosses int             `json:"max_consecutive_losses"`
}
