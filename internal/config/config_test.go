package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/domain"
)

const sampleConfig = `
broker:
  name: Test Broker
  code: TEST
  land: US
assets:
  base:
    ticker: BTC
    name: Bitcoin
    type: CRYPTO
    min_unit: "0.00000001"
  quote:
    ticker: USD
    name: US Dollar
    type: CURRENCY
    min_unit: "0.01"
pair:
  contract_size: "1"
rules:
  leverage_type: MARGIN_MULTIPLIER
  leverage_value: "10"
  brokerage_fee:
    type: PERCENT_OF_NOTIONAL
    timing: ON_FILL
    amount: "0.001"
  overnight_timing: ON_FIXED_TIME
  overnight_charge_time: "22:00"
  min_volume: "0.001"
  allows_long: true
  allows_short: true
account:
  agent_name: tester
  initial_balance: "100000"
data:
  csv: /tmp/bars.csv
  timeframe: 1d
run:
  start: 2024-01-01T00:00:00Z
  end: 2024-03-01T00:00:00Z
  description: config test run
strategy:
  type: MA_CROSSOVER
  volume: "0.1"
  fast_period: 10
  slow_period: 30
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndBuild(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	universe, err := cfg.Build()
	require.NoError(t, err)

	assert.Equal(t, "TEST", universe.Broker.Code)
	assert.Equal(t, "BTCUSD", universe.Pair.PairCode, "pair code derives from the asset tickers")
	assert.Equal(t, domain.AssetCrypto, universe.BaseAsset.AssetType)
	assert.True(t, universe.Account.InitialBalance.Equal(decimal.RequireFromString("100000")))
	assert.Equal(t, universe.QuoteAsset, universe.Account.BaseAsset, "accounts are denominated in the quote asset")

	rules := universe.Rules
	assert.Equal(t, domain.MarginMultiplier, rules.LeverageType)
	require.NotNil(t, rules.BrokerageFee)
	assert.Equal(t, domain.OnFill, rules.BrokerageFee.Timing)
	assert.Equal(t, domain.OnFixedTime, rules.OvernightTiming)
	require.NotNil(t, rules.OvernightChargeTime)
	assert.Equal(t, 22, rules.OvernightChargeTime.Hour)
	assert.Equal(t, 0, rules.OvernightChargeTime.Minute)

	run, err := cfg.BuildRun(universe)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), run.StartDate.UTC())
	assert.Equal(t, []string{"BTCUSD"}, run.PairCodes)
	require.Len(t, run.AgentIDs, 1)
	assert.Equal(t, universe.Agent.ID, run.AgentIDs[0])

	strat, err := cfg.BuildStrategy()
	require.NoError(t, err)
	assert.Equal(t, "MA_CROSSOVER_10_30", strat.Name())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "broker: [unclosed"))
	assert.Error(t, err)
}

func TestBuild_RequiredFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.Account.InitialBalance = ""
	_, err = cfg.Build()
	assert.Error(t, err, "initial balance has no default")
}

func TestBuildStrategy_RequiresVolume(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.Strategy.Volume = ""
	_, err = cfg.BuildStrategy()
	assert.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := parseTimeOfDay("06:30")
	require.NoError(t, err)
	assert.Equal(t, 6, tod.Hour)
	assert.Equal(t, 30, tod.Minute)

	for _, raw := range []string{"25:00", "12:71", "noon", "12"} {
		_, err := parseTimeOfDay(raw)
		assert.Error(t, err, raw)
	}
}
