package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"backtest-lab/internal/config"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/engine"
	"backtest-lab/internal/ledger"
	"backtest-lab/internal/marketdata"
	"backtest-lab/internal/metrics"
	"backtest-lab/internal/reporting"
	"backtest-lab/internal/storage/memory"
	"backtest-lab/internal/strategy"
)

var (
	flagConfig  string
	flagOutput  string
	flagOutFile string
	flagVerbose bool

	flagFastPeriods []int
	flagSlowPeriods []int
	flagWorkers     int
)

func main() {
	root := &cobra.Command{
		Use:   "backtest",
		Short: "Run a trading strategy backtest over CSV market data",
		RunE:  runSingle,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML configuration (required)")
	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", "markdown", "report format: markdown, csv, json")
	root.PersistentFlags().StringVar(&flagOutFile, "out", "", "write report to file instead of stdout")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	_ = root.MarkPersistentFlagRequired("config")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the configured MA crossover across a period grid in parallel",
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntSliceVar(&flagFastPeriods, "fast-periods", []int{5, 10, 20}, "fast MA periods to sweep")
	sweepCmd.Flags().IntSliceVar(&flagSlowPeriods, "slow-periods", []int{30, 50}, "slow MA periods to sweep")
	sweepCmd.Flags().IntVar(&flagWorkers, "workers", 0, "max parallel runs (0 = all CPUs)")
	root.AddCommand(sweepCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runSingle(_ *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	strat, err := cfg.BuildStrategy()
	if err != nil {
		return err
	}

	result, err := executeRun(ctx, cfg, strat, logger)
	if err != nil {
		return err
	}
	return writeReports(result.Reports)
}

func runSweep(_ *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cfg.Strategy.Type != strategy.TypeMACrossover {
		return fmt.Errorf("sweep supports %s strategies, config has %q", strategy.TypeMACrossover, cfg.Strategy.Type)
	}

	var variants []engine.Variant
	for _, fast := range flagFastPeriods {
		for _, slow := range flagSlowPeriods {
			if fast >= slow {
				continue
			}
			variantCfg := *cfg
			variantCfg.Strategy.FastPeriod = fast
			variantCfg.Strategy.SlowPeriod = slow
			strat, err := variantCfg.BuildStrategy()
			if err != nil {
				return err
			}
			variants = append(variants, engine.Variant{
				Name: strat.Name(),
				Execute: func(ctx context.Context) (*engine.RunResult, error) {
					return executeRun(ctx, &variantCfg, strat, logger)
				},
			})
		}
	}
	if len(variants) == 0 {
		return fmt.Errorf("no valid fast/slow period combinations to sweep")
	}

	results := engine.Sweep(ctx, variants, flagWorkers)

	var reports []*metrics.Report
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("sweep variant failed", zap.String("variant", r.Name), zap.Error(r.Err))
			continue
		}
		reports = append(reports, r.Result.Reports...)
	}
	if len(reports) == 0 {
		return fmt.Errorf("all sweep variants failed")
	}
	return writeOutput(reporting.RenderCSV(reports))
}

// executeRun wires an isolated set of stores, loads the market data, and
// runs the engine once.
func executeRun(ctx context.Context, cfg *config.Config, strat strategy.Strategy, logger *zap.Logger) (*engine.RunResult, error) {
	universe, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	stores := memory.NewStores()
	for _, asset := range []*domain.Asset{universe.BaseAsset, universe.QuoteAsset} {
		if err := stores.Assets.Insert(ctx, asset); err != nil {
			return nil, fmt.Errorf("store asset %s: %w", asset.Ticker, err)
		}
	}
	if err := stores.Brokers.Insert(ctx, universe.Broker); err != nil {
		return nil, fmt.Errorf("store broker: %w", err)
	}
	if err := stores.Pairs.Insert(ctx, universe.Pair); err != nil {
		return nil, fmt.Errorf("store pair: %w", err)
	}
	if err := stores.Rules.Insert(ctx, universe.Rules); err != nil {
		return nil, fmt.Errorf("store rules: %w", err)
	}
	if err := stores.Accounts.Insert(ctx, universe.Account); err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}

	timeframe := cfg.Data.Timeframe
	if timeframe == "" {
		timeframe = "1d"
	}
	bars, err := marketdata.LoadCSV(cfg.Data.CSV, universe.Pair.PairCode)
	if err != nil {
		return nil, err
	}
	if err := stores.Bars.AddBatch(ctx, timeframe, bars); err != nil {
		return nil, fmt.Errorf("store bars: %w", err)
	}

	run, err := cfg.BuildRun(universe)
	if err != nil {
		return nil, err
	}

	eng := engine.New(engine.Options{
		Accounts:   stores.Accounts,
		Pairs:      stores.Pairs,
		Rules:      stores.Rules,
		Orders:     stores.Orders,
		SpotOrders: stores.SpotOrders,
		Bars:       stores.Bars,
		Balances:   stores.Balances,
		Snapshots:  stores.Snapshots,
		Ledger:     ledger.New(stores.Transactions, stores.Balances),
		Strategies: map[uuid.UUID]strategy.Strategy{universe.Agent.ID: strat},
		Timeframe:  timeframe,
		Logger:     logger,
	})
	return eng.Run(ctx, run)
}

func writeReports(reports []*metrics.Report) error {
	switch flagOutput {
	case "markdown", "md":
		var out string
		for _, r := range reports {
			out += reporting.RenderMarkdown(r)
		}
		return writeOutput(out)
	case "csv":
		return writeOutput(reporting.RenderCSV(reports))
	case "json":
		var out string
		for _, r := range reports {
			rendered, err := reporting.RenderJSON(r)
			if err != nil {
				return err
			}
			out += rendered
		}
		return writeOutput(out)
	default:
		return fmt.Errorf("unknown output format %q", flagOutput)
	}
}

func writeOutput(content string) error {
	if flagOutFile == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(flagOutFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
