// Package strategies holds the pluggable decision logic a backtest
// run calls once per sub-tick and instrument, before the account
// processes its pending and protective orders for that sub-tick.
package strategies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/sim"
)

// Strategy is the minimal interface a backtest strategy must
// implement. It is called once per sub-tick for every instrument that
// has a candle at that sub-tick, after that instrument's history
// window has been fetched and before the account processes its
// pending and protective orders. history always has the length the
// driver was configured to fetch.
type Strategy interface {
	OnTick(ctx context.Context, now time.Time, in instrument.Instrument, history []candle.Candlestick, acct *sim.Account, quotes sim.Quotes) error
}

var registry = make(map[string]Strategy)

// Register makes a strategy available to ByName under name.
func Register(name string, strat Strategy) {
	registry[strings.ToLower(name)] = strat
}

// ByName constructs a strategy by its registered or built-in name.
func ByName(name string, in string, units int64) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil
	case "open-once":
		return &OpenOnce{Instrument: in, Units: units}, nil
	}
	if strat, ok := registry[strings.ToLower(name)]; ok {
		return strat, nil
	}
	return nil, fmt.Errorf("strategies: unknown strategy %q (supported: noop, open-once)", name)
}
