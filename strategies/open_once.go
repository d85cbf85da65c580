package strategies

import (
	"context"
	"errors"
	"time"

	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/sim"
	"github.com/shine15/iridium-engine/trade"
)

// OpenOnce opens a single market position the first tick a quote is
// available for Instrument, then does nothing for the rest of the
// run. It exists to exercise the account and journal end to end
// without any real signal logic.
type OpenOnce struct {
	Instrument string
	Units      int64

	opened bool
}

func (s *OpenOnce) OnTick(ctx context.Context, now time.Time, in instrument.Instrument, history []candle.Candlestick, acct *sim.Account, quotes sim.Quotes) error {
	if s.opened {
		return nil
	}
	want, err := instrument.New(s.Instrument)
	if err != nil {
		return err
	}
	if in != want {
		return nil
	}
	if _, ok := quotes.Quote(in); !ok {
		return nil
	}
	if _, err := acct.CreateMarketOrder(ctx, now, in, s.Units, quotes, trade.Params{}); err != nil {
		if errors.Is(err, sim.ErrInsufficientMargin) {
			return nil
		}
		return err
	}
	s.opened = true
	return nil
}
