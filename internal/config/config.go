// Package config loads backtest run configuration from YAML and builds
// the domain objects it describes. Money-valued fields are strings in
// the file and parsed into decimals; semantic validation is left to the
// domain constructors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/strategy"
)

// Config is the root of a backtest configuration file.
type Config struct {
	Broker   BrokerConfig   `yaml:"broker"`
	Assets   AssetsConfig   `yaml:"assets"`
	Pair     PairConfig     `yaml:"pair"`
	Rules    RulesConfig    `yaml:"rules"`
	Account  AccountConfig  `yaml:"account"`
	Data     DataConfig     `yaml:"data"`
	Run      RunConfig      `yaml:"run"`
	Strategy StrategyConfig `yaml:"strategy"`
}

// BrokerConfig describes the broker.
type BrokerConfig struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
	Land string `yaml:"land"`
}

// AssetConfig describes one asset.
type AssetConfig struct {
	Ticker  string `yaml:"ticker"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	MinUnit string `yaml:"min_unit"`
}

// AssetsConfig holds the pair's base and quote assets.
type AssetsConfig struct {
	Base  AssetConfig `yaml:"base"`
	Quote AssetConfig `yaml:"quote"`
}

// PairConfig describes the trading pair.
type PairConfig struct {
	Code              string `yaml:"code"`
	MultiplyingFactor string `yaml:"multiplying_factor"`
	ContractSize      string `yaml:"contract_size"`
	MinUnit           string `yaml:"min_unit"`
}

// FeeConfig describes one fee definition.
type FeeConfig struct {
	Type   string `yaml:"type"`
	Timing string `yaml:"timing"`
	Amount string `yaml:"amount"`
}

// RulesConfig describes the trading rules for the broker/pair.
type RulesConfig struct {
	LeverageType        string     `yaml:"leverage_type"`
	LeverageValue       string     `yaml:"leverage_value"`
	BrokerageFee        *FeeConfig `yaml:"brokerage_fee"`
	CustodyFee          *FeeConfig `yaml:"custody_fee"`
	LeverageFee         *FeeConfig `yaml:"leverage_fee"`
	OvernightTiming     string     `yaml:"overnight_timing"`
	OvernightChargeTime string     `yaml:"overnight_charge_time"` // "HH:MM"
	MinVolume           string     `yaml:"min_volume"`
	MinNotional         string     `yaml:"min_notional"`
	MinMargin           string     `yaml:"min_margin"`
	AllowsLong          bool       `yaml:"allows_long"`
	AllowsShort         bool       `yaml:"allows_short"`
}

// AccountConfig describes the trading account.
type AccountConfig struct {
	AgentName          string `yaml:"agent_name"`
	InitialBalance     string `yaml:"initial_balance"`
	TaxRegimeName      string `yaml:"tax_regime_name"`
	IncomeTaxRate      string `yaml:"income_tax_rate"`
	WithholdingTaxRate string `yaml:"withholding_tax_rate"`
}

// DataConfig points at the market data input.
type DataConfig struct {
	CSV       string `yaml:"csv"`
	Timeframe string `yaml:"timeframe"`
}

// RunConfig bounds the backtest window.
type RunConfig struct {
	Start       time.Time `yaml:"start"`
	End         time.Time `yaml:"end"`
	Description string    `yaml:"description"`
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Type          string  `yaml:"type"`
	Volume        string  `yaml:"volume"`
	FastPeriod    int     `yaml:"fast_period"`
	SlowPeriod    int     `yaml:"slow_period"`
	Period        int     `yaml:"period"`
	Oversold      float64 `yaml:"oversold"`
	Overbought    float64 `yaml:"overbought"`
	ThresholdPct  float64 `yaml:"threshold_pct"`
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Universe holds the domain objects built from a Config.
type Universe struct {
	Broker     *domain.Broker
	BaseAsset  *domain.Asset
	QuoteAsset *domain.Asset
	Pair       *domain.TradingPair
	Rules      *domain.TradingRules
	Agent      *domain.TraderAgent
	TaxRegime  *domain.TaxRegime
	Account    *domain.Account
}

// Build constructs the full domain universe described by the config.
func (c *Config) Build() (*Universe, error) {
	broker, err := domain.NewBroker(c.Broker.Name, c.Broker.Code, c.Broker.Land)
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}

	base, err := buildAsset(c.Assets.Base)
	if err != nil {
		return nil, fmt.Errorf("base asset: %w", err)
	}
	quote, err := buildAsset(c.Assets.Quote)
	if err != nil {
		return nil, fmt.Errorf("quote asset: %w", err)
	}

	factor, err := parseDecimal(c.Pair.MultiplyingFactor, "1")
	if err != nil {
		return nil, fmt.Errorf("pair multiplying factor: %w", err)
	}
	contractSize, err := parseDecimal(c.Pair.ContractSize, "1")
	if err != nil {
		return nil, fmt.Errorf("pair contract size: %w", err)
	}
	pairMinUnit, err := parseDecimal(c.Pair.MinUnit, "1")
	if err != nil {
		return nil, fmt.Errorf("pair min unit: %w", err)
	}
	pair, err := domain.NewTradingPair(base, quote, c.Pair.Code, factor, contractSize, pairMinUnit)
	if err != nil {
		return nil, fmt.Errorf("pair: %w", err)
	}

	rules, err := c.Rules.build(broker.ID, pair.PairCode)
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}

	agent, err := domain.NewTraderAgent(c.Account.AgentName, "")
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	incomeTax, err := parseDecimal(c.Account.IncomeTaxRate, "0")
	if err != nil {
		return nil, fmt.Errorf("income tax rate: %w", err)
	}
	withholdingTax, err := parseDecimal(c.Account.WithholdingTaxRate, "0")
	if err != nil {
		return nil, fmt.Errorf("withholding tax rate: %w", err)
	}
	regimeName := c.Account.TaxRegimeName
	if regimeName == "" {
		regimeName = "default"
	}
	regime, err := domain.NewTaxRegime(regimeName, incomeTax, withholdingTax)
	if err != nil {
		return nil, fmt.Errorf("tax regime: %w", err)
	}
	initialBalance, err := parseDecimal(c.Account.InitialBalance, "")
	if err != nil {
		return nil, fmt.Errorf("initial balance: %w", err)
	}
	account, err := domain.NewAccount(agent, quote, broker, regime, initialBalance)
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}

	return &Universe{
		Broker:     broker,
		BaseAsset:  base,
		QuoteAsset: quote,
		Pair:       pair,
		Rules:      rules,
		Agent:      agent,
		TaxRegime:  regime,
		Account:    account,
	}, nil
}

// BuildStrategy constructs the configured strategy.
func (c *Config) BuildStrategy() (strategy.Strategy, error) {
	volume, err := parseDecimal(c.Strategy.Volume, "")
	if err != nil {
		return nil, fmt.Errorf("strategy volume: %w", err)
	}
	return strategy.FromConfig(strategy.Config{
		Type:          c.Strategy.Type,
		Volume:        volume,
		FastPeriod:    c.Strategy.FastPeriod,
		SlowPeriod:    c.Strategy.SlowPeriod,
		Period:        c.Strategy.Period,
		Oversold:      c.Strategy.Oversold,
		Overbought:    c.Strategy.Overbought,
		ThresholdPct:  c.Strategy.ThresholdPct,
		StopLossPct:   c.Strategy.StopLossPct,
		TakeProfitPct: c.Strategy.TakeProfitPct,
	})
}

// BuildRun constructs the BacktestRun for the universe.
func (c *Config) BuildRun(u *Universe) (*domain.BacktestRun, error) {
	return domain.NewBacktestRun(u.Broker.ID, c.Run.Start, c.Run.End,
		[]string{u.Pair.PairCode}, []uuid.UUID{u.Agent.ID}, c.Run.Description)
}

func buildAsset(cfg AssetConfig) (*domain.Asset, error) {
	minUnit, err := parseDecimal(cfg.MinUnit, "1")
	if err != nil {
		return nil, fmt.Errorf("min unit: %w", err)
	}
	return domain.NewAsset(cfg.Ticker, cfg.Name, domain.AssetType(cfg.Type), minUnit)
}

func (r RulesConfig) build(brokerID uuid.UUID, pairCode string) (*domain.TradingRules, error) {
	leverageValue, err := parseDecimal(r.LeverageValue, "1")
	if err != nil {
		return nil, fmt.Errorf("leverage value: %w", err)
	}
	brokerage, err := buildFee(r.BrokerageFee)
	if err != nil {
		return nil, fmt.Errorf("brokerage fee: %w", err)
	}
	custody, err := buildFee(r.CustodyFee)
	if err != nil {
		return nil, fmt.Errorf("custody fee: %w", err)
	}
	leverage, err := buildFee(r.LeverageFee)
	if err != nil {
		return nil, fmt.Errorf("leverage fee: %w", err)
	}
	minVolume, err := parseDecimal(r.MinVolume, "0")
	if err != nil {
		return nil, fmt.Errorf("min volume: %w", err)
	}
	minNotional, err := parseDecimal(r.MinNotional, "0")
	if err != nil {
		return nil, fmt.Errorf("min notional: %w", err)
	}
	minMargin, err := parseDecimal(r.MinMargin, "0")
	if err != nil {
		return nil, fmt.Errorf("min margin: %w", err)
	}

	timing := domain.OvernightTiming(r.OvernightTiming)
	if r.OvernightTiming == "" {
		timing = domain.OnPeriodChange
	}
	var chargeTime *domain.TimeOfDay
	if r.OvernightChargeTime != "" {
		chargeTime, err = parseTimeOfDay(r.OvernightChargeTime)
		if err != nil {
			return nil, fmt.Errorf("overnight charge time: %w", err)
		}
	}

	return domain.NewTradingRules(domain.TradingRules{
		BrokerID:            brokerID,
		PairCode:            pairCode,
		LeverageType:        domain.LeverageType(r.LeverageType),
		LeverageValue:       leverageValue,
		BrokerageFee:        brokerage,
		CustodyFee:          custody,
		LeverageFee:         leverage,
		OvernightTiming:     timing,
		OvernightChargeTime: chargeTime,
		MinVolume:           minVolume,
		MinNotionalAmount:   minNotional,
		MinMarginAmount:     minMargin,
		AllowsLong:          r.AllowsLong,
		AllowsShort:         r.AllowsShort,
	})
}

func buildFee(cfg *FeeConfig) (*domain.Fee, error) {
	if cfg == nil {
		return nil, nil
	}
	amount, err := parseDecimal(cfg.Amount, "")
	if err != nil {
		return nil, err
	}
	return domain.NewFee(domain.FeeType(cfg.Type), domain.FeeTiming(cfg.Timing), amount)
}

// parseDecimal parses a decimal string, using fallback when the field is
// empty. An empty fallback makes the field required.
func parseDecimal(raw, fallback string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if fallback == "" {
			return decimal.Zero, fmt.Errorf("value is required")
		}
		raw = fallback
	}
	return decimal.NewFromString(raw)
}

// parseTimeOfDay parses "HH:MM".
func parseTimeOfDay(raw string) (*domain.TimeOfDay, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected HH:MM, got %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid minute in %q", raw)
	}
	return &domain.TimeOfDay{Hour: hour, Minute: minute}, nil
}
