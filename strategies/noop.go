package strategies

import (
	"context"
	"time"

	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/sim"
)

// Noop does nothing; it's useful as a baseline to measure the cost of
// spread and financing alone, and as a smoke test for the runner.
type Noop struct{}

func (Noop) OnTick(ctx context.Context, now time.Time, in instrument.Instrument, history []candle.Candlestick, acct *sim.Account, quotes sim.Quotes) error {
	return nil
}
