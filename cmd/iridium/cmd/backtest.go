package cmd

import (
	"context"
	"fmt"

	"github.com/shine15/iridium-engine/backtest"
	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/config"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/internal/logx"
	"github.com/shine15/iridium-engine/journal"
	"github.com/shine15/iridium-engine/sim"
	"github.com/shine15/iridium-engine/strategies"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest from a config file and historical candles",
	Long: `Backtest drives a simulated account through a candlestick CSV file
on the trading-week calendar, calling the strategy named in the config
once per clock tick.

Example:
  iridium backtest --config backtest.yaml --candles eurusd-h1.csv`,
	RunE: runBacktest,
}

var (
	btConfigPath  string
	btCandlesPath string
	btCloseEnd    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to config file (YAML or JSON) (required)")
	backtestCmd.Flags().StringVarP(&btCandlesPath, "candles", "d", "", "path to candlestick CSV (time,open,high,low,close,volume) (required)")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "close all open positions at the end of the run")

	backtestCmd.MarkFlagRequired("config")
	backtestCmd.MarkFlagRequired("candles")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	in, err := instrument.New(cfg.Strategy.Instrument)
	if err != nil {
		return fmt.Errorf("strategy instrument: %w", err)
	}

	outer, err := cfg.Calendar.Outer()
	if err != nil {
		return fmt.Errorf("calendar outer freq: %w", err)
	}

	bars, err := candle.LoadCSV(btCandlesPath)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	store := candle.NewMemStore()
	store.Load(in, outer, bars)

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.Strategy.Instrument, cfg.Strategy.Units)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	var j journal.Journal
	switch cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	acct := sim.New(cfg.Account.Currency, cfg.Account.Leverage, cfg.Account.CapitalBase, cfg.Account.SpreadFor(in))

	// InnerFreq is left unset: this command loads one candle series at
	// OuterFreq from a single CSV, so every outer tick has exactly one
	// sub-tick, itself.
	runner := &backtest.Runner{
		Account:     acct,
		Store:       store,
		OuterFreq:   outer,
		HistCount:   cfg.Calendar.HistDataCount,
		Region:      cfg.Calendar.Region,
		Instruments: []instrument.Instrument{in},
		Strategy:    strat,
		Journal:     j,
		Log:         logx.NewStdSink(),
		Options: backtest.RunnerOptions{
			CloseEnd:    btCloseEnd,
			CloseReason: "EndOfRun",
		},
	}

	fmt.Printf("running backtest: %s on %s, %s .. %s\n",
		cfg.Strategy.Name, cfg.Strategy.Instrument,
		cfg.Calendar.Begin().Format("2006-01-02"), cfg.Calendar.End().Format("2006-01-02"))

	result, err := runner.Run(context.Background(), cfg.Calendar.Begin(), cfg.Calendar.End())
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	fmt.Println()
	fmt.Printf("balance:  %.2f\n", result.Balance)
	fmt.Printf("equity:   %.2f\n", result.Equity)
	fmt.Printf("trades:   %d (wins %d, losses %d)\n", result.Trades, result.Wins, result.Losses)
	fmt.Printf("period:   %s .. %s\n", result.Start.Format("2006-01-02 15:04"), result.End.Format("2006-01-02 15:04"))

	return nil
}
