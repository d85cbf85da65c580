// Package order models the protective and entry orders an account
// tracks: limit orders awaiting fill, and the price/trailing-stop
// trigger orders attached to an open trade.
package order

import (
	"time"

	"github.com/shine15/iridium-engine/internal/id"
)

// State is an order's position in its lifecycle. Every transition out
// of Pending is terminal.
type State int

const (
	Pending State = iota
	Filled
	Triggered
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Filled:
		return "FILLED"
	case Triggered:
		return "TRIGGERED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// PositionFill controls how a filled order interacts with an existing
// position in the same instrument.
type PositionFill int

const (
	// OpenOnly marks an order that opens or extends a position.
	// sim.Account fills it the same way as ReduceFirst: an
	// opposite-side position is netted first.
	OpenOnly PositionFill = iota
	// ReduceFirst fully reduces (nets against) an opposite-side
	// position before opening a new one with any remaining units.
	ReduceFirst
	// ReduceOnly only reduces an existing opposite-side position,
	// discarding any units left over once it is fully closed.
	ReduceOnly
)

// Base holds the fields common to every order.
type Base struct {
	ID         string
	State      State
	CreateTime time.Time
}

func newBase(createTime time.Time) Base {
	return Base{ID: id.New(), State: Pending, CreateTime: createTime}
}

// Limit is a resting order to open or extend a position once the
// market trades at Price or better.
type Limit struct {
	Base
	Instrument   string
	Units        int64
	Price        float64
	PositionFill PositionFill
}

// NewLimit returns a new Limit order in state Pending.
func NewLimit(createTime time.Time, instrument string, units int64, price float64, fill PositionFill) *Limit {
	return &Limit{Base: newBase(createTime), Instrument: instrument, Units: units, Price: price, PositionFill: fill}
}

// Cancel transitions a pending limit order to Cancelled. It is a
// no-op if the order is already in a terminal state.
func (l *Limit) Cancel() {
	if l.State == Pending {
		l.State = Cancelled
	}
}

// PriceTrigger is a stop-loss or take-profit order attached to a
// trade: it triggers once Price lies within the tick's [low, high]
// range (see Hit), closing the trade at Price.
type PriceTrigger struct {
	Base
	TradeID string
	Price   float64
}

// NewStopLoss and NewTakeProfit both construct a PriceTrigger; the two
// constructors exist only to make call sites self-documenting, since
// the matching logic (does the tick's [low, high] window cross Price)
// is identical for both kinds of order.
func NewStopLoss(createTime time.Time, tradeID string, price float64) *PriceTrigger {
	return &PriceTrigger{Base: newBase(createTime), TradeID: tradeID, Price: price}
}

func NewTakeProfit(createTime time.Time, tradeID string, price float64) *PriceTrigger {
	return &PriceTrigger{Base: newBase(createTime), TradeID: tradeID, Price: price}
}

// Hit reports whether the trigger price falls within [low, high], the
// tick's traded range.
func (p *PriceTrigger) Hit(low, high float64) bool {
	return p.Price >= low && p.Price <= high
}

// TrailingStop is a stop-loss that ratchets toward the market as price
// moves favorably, at a fixed distance, and never retreats.
type TrailingStop struct {
	Base
	TradeID      string
	Distance     float64
	StopPrice    float64
	IsShort      bool
}

// NewTrailingStop returns a TrailingStop anchored distance away from
// entryPrice on the side that favors the position (below for longs,
// above for shorts).
func NewTrailingStop(createTime time.Time, tradeID string, distance, entryPrice float64, isShort bool) *TrailingStop {
	t := &TrailingStop{Base: newBase(createTime), TradeID: tradeID, Distance: distance, IsShort: isShort}
	if isShort {
		t.StopPrice = entryPrice + distance
	} else {
		t.StopPrice = entryPrice - distance
	}
	return t
}

// Hit reports whether the current stop price falls within the tick's
// traded range.
func (t *TrailingStop) Hit(low, high float64) bool {
	return t.StopPrice >= low && t.StopPrice <= high
}

// Ratchet advances the trailing stop toward currentPrice if the
// market has moved far enough past Distance to justify tightening it.
// The stop price never moves against the position.
func (t *TrailingStop) Ratchet(currentPrice float64) {
	if t.IsShort {
		if t.StopPrice-currentPrice > t.Distance {
			t.StopPrice = currentPrice + t.Distance
		}
	} else {
		if currentPrice-t.StopPrice > t.Distance {
			t.StopPrice = currentPrice - t.Distance
		}
	}
}
