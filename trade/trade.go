// Package trade models an open or closed position: its entry price,
// remaining size, realized P/L, and the protective orders attached to
// it.
package trade

import (
	"time"

	"github.com/shine15/iridium-engine/fx"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/internal/id"
	"github.com/shine15/iridium-engine/order"
)

// State is a trade's lifecycle stage.
type State int

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "CLOSED"
	}
	return "OPEN"
}

// Trade is a position opened by a filled market or limit order. Spread
// is charged as a trading cost on every close, at full value for
// realized closes and at half value when only estimating unrealized
// P/L — the same asymmetry OANDA's own profit calculators use, since a
// position that hasn't closed hasn't paid the exit side of the spread
// yet.
type Trade struct {
	ID            string
	Instrument    instrument.Instrument
	Price         float64 // entry price
	State         State
	OpenTime      time.Time
	InitialUnits  int64
	InitialMargin float64
	CurrentUnits  int64
	RealizedPL    float64
	CloseTime     time.Time
	ClosePrice    float64
	Spread        float64
	Financing     float64
	Commission    float64

	TakeProfit    *order.PriceTrigger
	StopLoss      *order.PriceTrigger
	TrailingStop  *order.TrailingStop
}

// Params bundles the optional protective-order prices a new trade may
// be opened with.
type Params struct {
	TakeProfitPrice      *float64
	StopLossPrice        *float64
	TrailingStopDistance *float64
}

// New opens a trade. initialMargin must already have been checked
// against the account's available margin by the caller.
func New(in instrument.Instrument, price float64, openTime time.Time, units int64, initialMargin, spread, financing, commission float64, p Params) *Trade {
	t := &Trade{
		ID:            id.New(),
		Instrument:    in,
		Price:         price,
		State:         Open,
		OpenTime:      openTime,
		InitialUnits:  units,
		InitialMargin: initialMargin,
		CurrentUnits:  units,
		Spread:        spread,
		Financing:     financing,
		Commission:    commission,
	}
	if p.TakeProfitPrice != nil {
		t.TakeProfit = order.NewTakeProfit(openTime, t.ID, *p.TakeProfitPrice)
	}
	if p.StopLossPrice != nil {
		t.StopLoss = order.NewStopLoss(openTime, t.ID, *p.StopLossPrice)
	}
	if p.TrailingStopDistance != nil {
		t.TrailingStop = order.NewTrailingStop(openTime, t.ID, *p.TrailingStopDistance, price, units < 0)
	}
	return t
}

// UpdateTakeProfit sets or replaces the take-profit price.
func (t *Trade) UpdateTakeProfit(price float64, now time.Time) {
	if t.TakeProfit != nil {
		t.TakeProfit.Price = price
		return
	}
	t.TakeProfit = order.NewTakeProfit(now, t.ID, price)
}

// UpdateStopLoss sets or replaces the stop-loss price.
func (t *Trade) UpdateStopLoss(price float64, now time.Time) {
	if t.StopLoss != nil {
		t.StopLoss.Price = price
		return
	}
	t.StopLoss = order.NewStopLoss(now, t.ID, price)
}

// UpdateTrailingStop sets or replaces the trailing-stop distance.
func (t *Trade) UpdateTrailingStop(distance float64, now time.Time) {
	if t.TrailingStop != nil {
		t.TrailingStop.Distance = distance
		return
	}
	t.TrailingStop = order.NewTrailingStop(now, t.ID, distance, t.Price, t.CurrentUnits < 0)
}

// PartiallyClose closes units of the position at currentPrice, given
// the account-vs-quote-currency rate, charging the full spread as a
// trading cost. It updates CurrentUnits and RealizedPL and returns the
// realized profit or loss in account currency.
func (t *Trade) PartiallyClose(rate, currentPrice float64, units int64) float64 {
	tradingCost := fx.GainsLosses(t.Spread, abs64(units), rate, t.Instrument.PipDecimals()) + t.Commission
	profitLoss := (currentPrice-t.Price)*(1/rate)*float64(units) - tradingCost
	t.CurrentUnits -= units
	t.RealizedPL += profitLoss
	return profitLoss
}

// Close fully closes the remaining position at currentPrice and time,
// cancels any protective orders that haven't already triggered, and
// returns the realized profit or loss from this final close.
func (t *Trade) Close(rate, currentPrice float64, closeTime time.Time) float64 {
	profitLoss := t.PartiallyClose(rate, currentPrice, t.CurrentUnits)
	t.ClosePrice = currentPrice
	t.CloseTime = closeTime
	t.State = Closed

	for _, o := range []*order.PriceTrigger{t.TakeProfit, t.StopLoss} {
		if o != nil && o.State != order.Triggered {
			o.State = order.Cancelled
		}
	}
	if t.TrailingStop != nil && t.TrailingStop.State != order.Triggered {
		t.TrailingStop.State = order.Cancelled
	}
	return profitLoss
}

// UnrealizedPL estimates the profit or loss if the remaining position
// closed right now at currentPrice, given the account-vs-quote-currency
// rate. It charges only half the spread, since the open side of the
// spread has already been paid and only the exit side remains.
func (t *Trade) UnrealizedPL(rate, currentPrice float64) float64 {
	cost := fx.GainsLosses(t.Spread/2, abs64(t.CurrentUnits), rate, t.Instrument.PipDecimals()) + t.Commission
	return (currentPrice-t.Price)*(1/rate)*float64(t.CurrentUnits) - cost
}

// MarginUsed returns the account-currency margin this trade's
// remaining position reserves, given the account-vs-base-currency
// rate and the account's leverage.
func (t *Trade) MarginUsed(rate float64, leverage int) float64 {
	return fx.MarginUsed(t.CurrentUnits, rate, leverage)
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
