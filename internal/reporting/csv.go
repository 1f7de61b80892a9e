package reporting

import (
	"fmt"
	"strings"

	"backtest-lab/internal/metrics"
)

// RenderCSV renders one or more reports as a CSV string, one row per
// report. Useful for collecting sweep results into a single file.
func RenderCSV(reports []*metrics.Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,strategy,pair,bars,initial_capital,final_balance,total_return_pct,")
	sb.WriteString("gross_pnl,net_pnl,total_fees,total_trades,winning_trades,losing_trades,")
	sb.WriteString("cancelled_orders,win_rate_pct,avg_win,avg_loss,profit_factor,")
	sb.WriteString("max_drawdown_pct,max_consecutive_losses\n")

	// Rows
	for _, r := range reports {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%s,%s,%s,%s,%s,%s,%d,%d,%d,%d,%s,%s,%s,%s,%s,%d\n",
			r.RunID,
			r.StrategyName,
			r.PairCode,
			r.BarsProcessed,
			r.InitialCapital,
			r.FinalBalance,
			r.TotalReturnPct.StringFixed(4),
			r.GrossPnL,
			r.NetPnL,
			r.TotalFees,
			r.TotalTrades,
			r.WinningTrades,
			r.LosingTrades,
			r.CancelledOrders,
			r.WinRatePct.StringFixed(4),
			r.AvgWin,
			r.AvgLoss,
			r.ProfitFactor.StringFixed(4),
			r.MaxDrawdownPct.StringFixed(4),
			r.MaxConsecutiveLosses,
		))
	}

	return sb.String()
}
