package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/market/dukas"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download Dukascopy ticks and aggregate them into a candle CSV",
	Long: `Fetch downloads hourly .bi5 tick archives from Dukascopy for one
instrument, decompresses and decodes them, and aggregates the ticks
into candlestick bars written to a CSV file suitable for "iridium
backtest --candles".

Example:
  iridium fetch --instrument EUR_USD --begin 2024-01-01 --end 2024-01-08 --freq H1 --output eurusd-h1.csv`,
	RunE: runFetch,
}

var (
	fetchInstrument string
	fetchBegin      string
	fetchEnd        string
	fetchFreq       string
	fetchOutput     string
	fetchWorkdir    string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchInstrument, "instrument", "EUR_USD", "instrument to fetch")
	fetchCmd.Flags().StringVar(&fetchBegin, "begin", "", "begin date, YYYY-MM-DD (required)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "end date, YYYY-MM-DD, exclusive (required)")
	fetchCmd.Flags().StringVar(&fetchFreq, "freq", "H1", "bar frequency to aggregate ticks into")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output candle CSV path (required)")
	fetchCmd.Flags().StringVar(&fetchWorkdir, "workdir", "./dukas-cache", "directory to cache downloaded .bi5/.raw files")

	fetchCmd.MarkFlagRequired("begin")
	fetchCmd.MarkFlagRequired("end")
	fetchCmd.MarkFlagRequired("output")
}

func runFetch(cmd *cobra.Command, args []string) error {
	in, err := instrument.New(fetchInstrument)
	if err != nil {
		return fmt.Errorf("instrument: %w", err)
	}

	freq, err := candle.ParseFreq(fetchFreq)
	if err != nil {
		return fmt.Errorf("freq: %w", err)
	}

	begin, err := time.Parse("2006-01-02", fetchBegin)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	end, err := time.Parse("2006-01-02", fetchEnd)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if !begin.Before(end) {
		return fmt.Errorf("begin must precede end")
	}

	dl := dukas.NewDownloader(nil)
	ctx := context.Background()

	var allTicks []dukas.Tick
	for hour := begin; hour.Before(end); hour = hour.Add(time.Hour) {
		bi5Path := filepath.Join(fetchWorkdir, fetchInstrument, hour.Format("2006/01/02"), fmt.Sprintf("%02dh_ticks.bi5", hour.Hour()))
		ok, err := dl.FetchHour(ctx, fetchInstrument, hour, bi5Path)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", hour, err)
		}
		if !ok {
			continue
		}

		rawPath := bi5Path + ".raw"
		if err := dukas.Decompress(bi5Path, rawPath); err != nil {
			return fmt.Errorf("decompress %s: %w", hour, err)
		}

		data, err := os.ReadFile(rawPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", rawPath, err)
		}

		ticks, err := dukas.ParseTicks(data, hour, in)
		if err != nil {
			return fmt.Errorf("parse ticks %s: %w", hour, err)
		}
		allTicks = append(allTicks, ticks...)

		fmt.Printf("fetched %s: %d ticks\n", hour.Format("2006-01-02T15"), len(ticks))
	}

	bars := dukas.AggregateToCandles(allTicks, freq)
	if err := writeCandleCSV(fetchOutput, bars); err != nil {
		return fmt.Errorf("write candles: %w", err)
	}

	fmt.Printf("wrote %d bars to %s\n", len(bars), fetchOutput)
	return nil
}

func writeCandleCSV(path string, bars []candle.Candlestick) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Time.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
