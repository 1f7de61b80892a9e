package reporting

import (
	"fmt"
	"strings"

	"backtest-lab/internal/metrics"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *metrics.Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s | Strategy: %s | Pair: %s\n\n", r.RunID, r.StrategyName, r.PairCode))

	// Capital
	sb.WriteString("## Capital\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | %s |\n", r.InitialCapital))
	sb.WriteString(fmt.Sprintf("| Final Balance | %s |\n", r.FinalBalance))
	sb.WriteString(fmt.Sprintf("| Total Return | %s%% |\n", r.TotalReturnPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s%% |\n", r.MaxDrawdownPct.StringFixed(2)))
	sb.WriteString("\n")

	// P&L
	sb.WriteString("## P&L\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Gross P&L | %s |\n", r.GrossPnL))
	sb.WriteString(fmt.Sprintf("| Net P&L | %s |\n", r.NetPnL))
	sb.WriteString(fmt.Sprintf("| Total Fees | %s |\n", r.TotalFees))
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trades\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Bars Processed | %d |\n", r.BarsProcessed))
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winning Trades | %d |\n", r.WinningTrades))
	sb.WriteString(fmt.Sprintf("| Losing Trades | %d |\n", r.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Cancelled Orders | %d |\n", r.CancelledOrders))
	sb.WriteString(fmt.Sprintf("| Win Rate | %s%% |\n", r.WinRatePct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Avg Win | %s |\n", r.AvgWin))
	sb.WriteString(fmt.Sprintf("| Avg Loss | %s |\n", r.AvgLoss))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", r.ProfitFactor.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", r.MaxConsecutiveLosses))
	sb.WriteString("\n")

	return sb.String()
}
