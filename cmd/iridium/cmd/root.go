package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "iridium",
	Short: "An event-driven FX backtesting and simulation engine",
	Long: `Iridium replays historical candlestick data through a trading-week
calendar, driving a simulated margin account one clock tick at a time.

It provides tools for:
  - Backtesting strategies against historical candle data
  - Fetching and aggregating Dukascopy tick data into candles
  - Managing trade journals and equity curves
  - Serving a Prometheus metrics endpoint

Complete documentation is available at https://github.com/shine15/iridium-engine`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
