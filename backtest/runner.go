// Package backtest drives a simulation account through historical
// candles on the FX trading-week calendar, one clock tick at a time.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shine15/iridium-engine/calendar"
	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/fx"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/internal/logx"
	"github.com/shine15/iridium-engine/journal"
	"github.com/shine15/iridium-engine/sim"
	"github.com/shine15/iridium-engine/strategies"
)

// RunnerOptions controls how a run behaves beyond walking the clock.
type RunnerOptions struct {
	// CloseEnd closes every open position once the clock runs out,
	// at the last observed quote for each instrument.
	CloseEnd    bool
	CloseReason string
}

// Runner wires an Account to a candle.Store over a set of
// instruments, driving it through a calendar.Clock and calling a
// Strategy once per sub-tick after its history window has been
// fetched and before orders are processed for that sub-tick.
//
// OuterFreq paces the calendar clock and is also the frequency of the
// history window handed to the strategy. InnerFreq, if set, slices
// each outer tick into OuterFreq/InnerFreq uniform sub-ticks and is
// the frequency of the candle snapshot fetched at each of them; left
// zero, a tick has exactly one sub-tick, itself.
type Runner struct {
	Account     *sim.Account
	Store       candle.Store
	OuterFreq   candle.Freq
	InnerFreq   candle.Freq
	HistCount   int
	Region      string
	Instruments []instrument.Instrument
	Strategy    strategies.Strategy
	Journal     journal.Journal
	Log         logx.Sink
	Options     RunnerOptions
}

// Result summarizes one run.
type Result struct {
	Balance float64
	Equity  float64
	Trades  int
	Wins    int
	Losses  int
	Start   time.Time
	End     time.Time
}

// tickQuotes exposes one sub-tick's candles as a sim.Quotes.
type tickQuotes map[instrument.Instrument]candle.Candlestick

func (q tickQuotes) Quote(in instrument.Instrument) (sim.Quote, bool) {
	c, ok := q[in]
	if !ok {
		return sim.Quote{}, false
	}
	return sim.Quote{Low: c.Low, High: c.High, Mid: c.Close}, true
}

// Run walks the calendar from begin to end. At each outer tick it
// loads every instrument's history window, atomically skipping the
// tick if any window isn't yet available; it then walks that tick's
// sub-ticks, calling the strategy for each instrument quoted at a
// sub-tick before processing the account's pending and protective
// orders against that sub-tick's snapshot.
func (r *Runner) Run(ctx context.Context, begin, end time.Time) (Result, error) {
	if r.Account == nil {
		return Result{}, fmt.Errorf("backtest: Account is required")
	}
	if r.Store == nil {
		return Result{}, fmt.Errorf("backtest: Store is required")
	}
	if len(r.Instruments) == 0 {
		return Result{}, fmt.Errorf("backtest: at least one instrument is required")
	}
	if r.OuterFreq == 0 {
		return Result{}, fmt.Errorf("backtest: OuterFreq is required")
	}
	log := r.Log
	if log == nil {
		log = logx.Nop{}
	}

	histCount := r.HistCount
	if histCount <= 0 {
		histCount = 1
	}
	innerFreq := r.InnerFreq
	if innerFreq == 0 {
		innerFreq = r.OuterFreq
	}
	steps := int(r.OuterFreq / innerFreq)
	if steps < 1 {
		steps = 1
	}
	step := time.Duration(innerFreq) * time.Second

	clk, err := calendar.NewClock(begin, end, r.Region, r.OuterFreq)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}

	var result Result
	var lastQuotes tickQuotes

	it := clk.Iterator()
	for {
		tick, ok := it.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		histories, err := r.historyWindows(tick, histCount)
		if err != nil {
			return Result{}, err
		}
		if histories == nil {
			log.Warnf("backtest: skipping tick %s: history window not yet available for every instrument", tick)
			continue
		}

		for s := 0; s < steps; s++ {
			subTick := tick.Add(time.Duration(s) * step)
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}

			bars, err := r.snapshot(subTick, innerFreq)
			if err != nil {
				return Result{}, err
			}
			if len(bars) == 0 {
				continue
			}
			lastQuotes = bars

			if r.Strategy != nil {
				for _, in := range r.Instruments {
					if _, ok := bars[in]; !ok {
						continue
					}
					if err := r.Strategy.OnTick(ctx, subTick, in, histories[in], r.Account, bars); err != nil {
						return Result{}, fmt.Errorf("backtest: strategy at %s: %w", subTick, err)
					}
				}
			}

			if err := r.Account.ProcessOrders(ctx, subTick, bars); err != nil {
				return Result{}, fmt.Errorf("backtest: process orders at %s: %w", subTick, err)
			}

			if result.Start.IsZero() {
				result.Start = subTick
			}
			result.End = subTick

			if nav, ok := r.Account.NetAssetValue(bars); ok {
				used, _ := r.Account.MarginUsedNow(bars)
				available := fx.MarginAvailable(nav, used)
				log.Infof("backtest: %s NAV=%.2f balance=%.2f margin_used=%.2f margin_available=%.2f",
					subTick, nav, r.Account.Balance, used, available)
				if r.Journal != nil {
					snap := journal.EquitySnapshot{
						Time:        subTick,
						Balance:     r.Account.Balance,
						Equity:      nav,
						MarginUsed:  used,
						FreeMargin:  available,
						MarginLevel: marginLevel(nav, used),
					}
					if err := r.Journal.RecordEquity(snap); err != nil {
						log.Warnf("backtest: record equity at %s: %v", subTick, err)
					}
				}
			}
		}
	}

	if r.Options.CloseEnd && lastQuotes != nil {
		reason := r.Options.CloseReason
		if reason == "" {
			reason = "EndOfRun"
		}
		if err := r.Account.CloseAll(result.End, lastQuotes); err != nil {
			return Result{}, fmt.Errorf("backtest: close at end: %w", err)
		}
		log.Infof("backtest: closed all open positions at end of run (%s)", reason)
	}

	result.Balance = r.Account.Balance
	result.Equity = r.Account.Equity

	if r.Journal != nil && !result.Start.IsZero() && !result.End.IsZero() {
		recs, err := r.Journal.TradesClosedBetween(result.Start, result.End.Add(time.Nanosecond))
		if err != nil {
			log.Warnf("backtest: list closed trades: %v", err)
		} else {
			result.Trades = len(recs)
			for _, tr := range recs {
				switch {
				case tr.RealizedPL > 0:
					result.Wins++
				case tr.RealizedPL < 0:
					result.Losses++
				}
			}
		}
	}

	return result, nil
}

// historyWindows fetches every instrument's length-histCount window
// ending at tick, at OuterFreq. It returns a nil map, not an error, if
// any instrument's window isn't available yet: the caller skips the
// whole tick rather than feed the strategy a partial set of windows.
func (r *Runner) historyWindows(tick time.Time, histCount int) (map[instrument.Instrument][]candle.Candlestick, error) {
	out := make(map[instrument.Instrument][]candle.Candlestick, len(r.Instruments))
	for _, in := range r.Instruments {
		h, err := r.Store.History(in, tick, histCount, r.OuterFreq)
		if err != nil {
			if errors.Is(err, candle.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		out[in] = h
	}
	return out, nil
}

// snapshot fetches every instrument's candle at t and freq, silently
// omitting instruments with no candle at that sub-tick.
func (r *Runner) snapshot(t time.Time, freq candle.Freq) (tickQuotes, error) {
	bars := make(tickQuotes, len(r.Instruments))
	for _, in := range r.Instruments {
		c, err := r.Store.Candle(in, t, freq)
		if err != nil {
			if errors.Is(err, candle.ErrNotFound) {
				continue
			}
			return nil, err
		}
		bars[in] = c
	}
	return bars, nil
}

func marginLevel(nav, marginUsed float64) float64 {
	if marginUsed == 0 {
		return 0
	}
	return nav / marginUsed * 100
}
