package reporting

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/metrics"
)

func sampleReport() *metrics.Report {
	return &metrics.Report{
		RunID:          uuid.New(),
		StrategyName:   "MA_CROSSOVER_10_30",
		PairCode:       "BTCUSD",
		BarsProcessed:  250,
		InitialCapital: decimal.RequireFromString("100000"),
		FinalBalance:   decimal.RequireFromString("104870.50"),
		TotalReturnPct: decimal.RequireFromString("4.8705"),
		GrossPnL:       decimal.RequireFromString("5000"),
		NetPnL:         decimal.RequireFromString("4870.50"),
		TotalFees:      decimal.RequireFromString("129.50"),
		TotalTrades:    12,
		WinningTrades:  7,
		LosingTrades:   5,
		WinRatePct:     decimal.RequireFromString("58.3333"),
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(sampleReport())

	assert.Contains(t, out, "# Backtest Report")
	assert.Contains(t, out, "MA_CROSSOVER_10_30")
	assert.Contains(t, out, "| Final Balance | 104870.5 |")
	assert.Contains(t, out, "| Total Return | 4.87% |")
	assert.Contains(t, out, "| Win Rate | 58.33% |")
}

func TestRenderCSV(t *testing.T) {
	out := RenderCSV([]*metrics.Report{sampleReport(), sampleReport()})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "header plus one row per report")

	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")
	assert.Len(t, row, len(header))
	assert.Equal(t, "run_id", header[0])
	assert.Equal(t, "MA_CROSSOVER_10_30", row[1])
}

func TestRenderJSON(t *testing.T) {
	report := sampleReport()
	out, err := RenderJSON(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "BTCUSD", decoded["pair_code"])
	assert.Equal(t, "104870.5", decoded["final_balance"])
}
