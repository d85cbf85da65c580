package sim

import (
	"context"
	"errors"
	"time"

	"github.com/shine15/iridium-engine/fx"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/order"
	"github.com/shine15/iridium-engine/trade"
)

// ProcessOrders drives the account through one tick: pending limit
// orders are checked against the period's trading range and filled or
// left pending, then every open trade's protective orders (take
// profit, stop loss, trailing stop) are checked against the same
// range, and finally margin is enforced by liquidating positions if
// equity has fallen below margin used.
func (a *Account) ProcessOrders(ctx context.Context, now time.Time, quotes Quotes) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.processLimitOrdersLocked(now, quotes); err != nil {
		return err
	}
	a.processTriggerOrdersLocked(now, quotes)
	return a.enforceMarginLocked(now, quotes)
}

// processLimitOrdersLocked fills pending limit orders whose price was
// touched during the period. A buy limit fills once the ask has
// traded at or below its price; a sell limit fills once the bid has
// traded at or above it. An order that can't be filled for lack of
// margin stays Pending.
func (a *Account) processLimitOrdersLocked(now time.Time, quotes Quotes) error {
	for _, lo := range a.limitOrders {
		if lo.State != order.Pending {
			continue
		}
		in, err := instrument.New(lo.Instrument)
		if err != nil {
			continue
		}
		q, ok := quotes.Quote(in)
		if !ok {
			continue
		}

		fillable := false
		if lo.Units > 0 {
			askLow := q.Low + a.Spread/2
			fillable = askLow <= lo.Price
		} else {
			bidHigh := q.High - a.Spread/2
			fillable = bidHigh >= lo.Price
		}
		if !fillable {
			continue
		}

		units := lo.Units
		if lo.PositionFill == order.ReduceOnly {
			net := a.netPositionLocked(in)
			if net == 0 || sign64(units) == sign64(net) {
				continue
			}
			if abs64(units) > abs64(net) {
				units = -net
			}
		}

		_, err = a.openOrNetLocked(now, in, units, lo.Price, quotes, trade.Params{})
		if err != nil {
			if errors.Is(err, ErrInsufficientMargin) {
				continue
			}
			return err
		}
		lo.State = order.Filled
	}
	return nil
}

func (a *Account) netPositionLocked(in instrument.Instrument) int64 {
	var units int64
	for _, t := range a.openTradesLocked(in) {
		units += t.CurrentUnits
	}
	return units
}

// processTriggerOrdersLocked checks each open trade's protective
// orders against the period's range and closes the trade on the
// first one hit. Only one of take profit, stop loss or trailing stop
// can fire per trade per tick: once a trade is closed the others are
// skipped rather than re-evaluated against a trade that no longer has
// a position, which avoids double-closing the same trade in one tick.
func (a *Account) processTriggerOrdersLocked(now time.Time, quotes Quotes) {
	for _, t := range a.trades {
		if t.State != trade.Open {
			continue
		}
		q, ok := quotes.Quote(t.Instrument)
		if !ok {
			continue
		}
		rate, ok := fx.AccountCurrencyRate(a.Currency, t.Instrument.Quote(), quotesAdapter{quotes})
		if !ok {
			continue
		}

		var low, high float64
		if t.CurrentUnits > 0 {
			low, high = q.Low-a.Spread/2, q.High-a.Spread/2
		} else {
			low, high = q.Low+a.Spread/2, q.High+a.Spread/2
		}

		if tp := t.TakeProfit; tp != nil && tp.State == order.Pending && tp.Hit(low, high) {
			tp.State = order.Triggered
			pl := t.Close(rate, tp.Price, now)
			a.Balance += pl
			a.notifyClosed(t.ID, "TakeProfit")
			continue
		}
		if sl := t.StopLoss; sl != nil && sl.State == order.Pending && sl.Hit(low, high) {
			sl.State = order.Triggered
			pl := t.Close(rate, sl.Price, now)
			a.Balance += pl
			a.notifyClosed(t.ID, "StopLoss")
			continue
		}
		if ts := t.TrailingStop; ts != nil && ts.State == order.Pending {
			if ts.Hit(low, high) {
				ts.State = order.Triggered
				pl := t.Close(rate, ts.StopPrice, now)
				a.Balance += pl
				a.notifyClosed(t.ID, "TrailingStop")
				continue
			}
			ts.Ratchet(q.Mid)
		}
	}
}

// enforceMarginLocked liquidates open trades, worst unrealized loss
// first, until equity is no longer below margin used. It updates
// Equity and MarginUsed as a side effect so callers can read them
// after ProcessOrders without a further valuation pass.
func (a *Account) enforceMarginLocked(now time.Time, quotes Quotes) error {
	for {
		nav, ok := a.netAssetValueLocked(quotes)
		if !ok {
			return nil
		}
		used, ok := a.marginUsedLocked(quotes)
		if !ok {
			return nil
		}
		a.Equity = nav
		a.MarginUsed = used

		if used == 0 || nav >= used {
			return nil
		}

		worst, worstPL, rate, closePrice, found := a.worstUnrealizedTradeLocked(quotes)
		if !found {
			return nil
		}
		_ = worstPL
		pl := worst.Close(rate, closePrice, now)
		a.Balance += pl
		a.notifyClosed(worst.ID, "Liquidation")
	}
}

func (a *Account) worstUnrealizedTradeLocked(quotes Quotes) (t *trade.Trade, pl float64, rate float64, closePrice float64, found bool) {
	var (
		worst      *trade.Trade
		worstPL    = 0.0
		worstRate  = 0.0
		worstPrice = 0.0
	)
	for _, candidate := range a.trades {
		if candidate.State != trade.Open {
			continue
		}
		q, ok := quotes.Quote(candidate.Instrument)
		if !ok {
			continue
		}
		r, ok := fx.AccountCurrencyRate(a.Currency, candidate.Instrument.Quote(), quotesAdapter{quotes})
		if !ok {
			continue
		}
		candidatePL := candidate.UnrealizedPL(r, q.Mid)
		if worst == nil || candidatePL < worstPL {
			worst = candidate
			worstPL = candidatePL
			worstRate = r
			worstPrice = q.Mid
			if candidate.CurrentUnits < 0 {
				worstPrice = q.Mid + a.Spread/2
			} else {
				worstPrice = q.Mid - a.Spread/2
			}
		}
	}
	if worst == nil {
		return nil, 0, 0, 0, false
	}
	return worst, worstPL, worstRate, worstPrice, true
}
