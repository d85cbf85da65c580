// Package sim implements the simulation account: an in-memory broker
// that fills market and limit orders against quoted prices, tracks
// open trades and their protective orders, and enforces margin.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shine15/iridium-engine/fx"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/shine15/iridium-engine/order"
	"github.com/shine15/iridium-engine/trade"
)

// ErrInsufficientMargin is returned when an order would need more
// margin than the account currently has available. Limit orders that
// fail this check stay Pending rather than being cancelled, so they
// can fill on a later tick once margin frees up.
var ErrInsufficientMargin = errors.New("sim: insufficient margin available")

// ErrNoQuote is returned when an operation needs a price for an
// instrument the Quotes source doesn't have yet.
var ErrNoQuote = errors.New("sim: no quote available for instrument")

// Quote is the tradeable range an instrument moved through since the
// last tick: its closing (mid) price plus the low/high of the period,
// all before the bid/ask spread is applied.
type Quote struct {
	Low  float64
	High float64
	Mid  float64
}

// Quotes resolves the current Quote for an instrument. The backtest
// runner satisfies this by projecting each tick's candle OHLC into a
// Quote.
type Quotes interface {
	Quote(in instrument.Instrument) (Quote, bool)
}

// quotesAdapter lets fx.AccountCurrencyRate read mid prices straight
// out of a Quotes source.
type quotesAdapter struct{ q Quotes }

func (a quotesAdapter) Mid(instrumentName string) (float64, bool) {
	in, err := instrument.New(instrumentName)
	if err != nil {
		return 0, false
	}
	q, ok := a.q.Quote(in)
	return q.Mid, ok
}

// Listener is notified whenever the account fully closes a trade, with
// the reason: "TakeProfit", "StopLoss", "TrailingStop", "Liquidation",
// "Netting", or "ManualClose". Partial closes are not reported.
type Listener interface {
	OnTradeClosed(tradeID, reason string)
}

// Account is a simulation trading account: one currency, one
// leverage, a fixed spread assumption, and the set of trades and
// limit orders it has placed.
type Account struct {
	mu sync.Mutex

	Currency string
	Leverage int
	Spread   float64

	Balance    float64
	Equity     float64
	MarginUsed float64

	trades      []*trade.Trade
	limitOrders []*order.Limit

	listener Listener
}

// New returns an account funded with capitalBase in the given
// currency.
func New(currency string, leverage int, capitalBase, spread float64) *Account {
	return &Account{
		Currency: currency,
		Leverage: leverage,
		Spread:   spread,
		Balance:  capitalBase,
		Equity:   capitalBase,
	}
}

// SetListener installs a callback for every trade the account fully
// closes.
func (a *Account) SetListener(l Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

func (a *Account) notifyClosed(tradeID, reason string) {
	if a.listener != nil {
		a.listener.OnTradeClosed(tradeID, reason)
	}
}

// Trades returns every trade the account has ever opened, open and
// closed alike. Callers must not mutate the returned trades.
func (a *Account) Trades() []*trade.Trade {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*trade.Trade, len(a.trades))
	copy(out, a.trades)
	return out
}

// LimitOrders returns every limit order the account has ever placed.
func (a *Account) LimitOrders() []*order.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*order.Limit, len(a.limitOrders))
	copy(out, a.limitOrders)
	return out
}

func (a *Account) openTradesLocked(in instrument.Instrument) []*trade.Trade {
	var out []*trade.Trade
	for _, t := range a.trades {
		if t.State == trade.Open && t.Instrument == in {
			out = append(out, t)
		}
	}
	return out
}

// HasOpenTrades reports whether the account has an open position in
// the given instrument.
func (a *Account) HasOpenTrades(in instrument.Instrument) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.openTradesLocked(in)) > 0
}

// HasPendingOrders reports whether the account has a pending limit
// order in the given instrument.
func (a *Account) HasPendingOrders(in instrument.Instrument) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, lo := range a.limitOrders {
		if lo.State == order.Pending {
			if pendingInstrument, err := instrument.New(lo.Instrument); err == nil && pendingInstrument == in {
				return true
			}
		}
	}
	return false
}

// PositionSize returns the net open units the account holds in the
// given instrument.
func (a *Account) PositionSize(in instrument.Instrument) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var size int64
	for _, t := range a.openTradesLocked(in) {
		size += t.CurrentUnits
	}
	return size
}

// NetAssetValue returns the account's balance plus the unrealized
// profit or loss of every open trade. It reports ok=false if any open
// trade's instrument has no current quote or resolvable conversion
// rate, mirroring the original engine's "can't value the book"
// signal.
func (a *Account) NetAssetValue(quotes Quotes) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.netAssetValueLocked(quotes)
}

func (a *Account) netAssetValueLocked(quotes Quotes) (float64, bool) {
	nav := a.Balance
	for _, t := range a.trades {
		if t.State != trade.Open {
			continue
		}
		q, ok := quotes.Quote(t.Instrument)
		if !ok {
			return 0, false
		}
		rate, ok := fx.AccountCurrencyRate(a.Currency, t.Instrument.Quote(), quotesAdapter{quotes})
		if !ok {
			return 0, false
		}
		nav += t.UnrealizedPL(rate, q.Mid)
	}
	return nav, true
}

// MarginUsedNow returns the total margin reserved by open trades at
// current quotes, or ok=false if any can't be valued.
func (a *Account) MarginUsedNow(quotes Quotes) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.marginUsedLocked(quotes)
}

func (a *Account) marginUsedLocked(quotes Quotes) (float64, bool) {
	var used float64
	for _, t := range a.trades {
		if t.State != trade.Open {
			continue
		}
		if _, ok := quotes.Quote(t.Instrument); !ok {
			return 0, false
		}
		rate, ok := fx.AccountCurrencyRate(a.Currency, t.Instrument.Base(), quotesAdapter{quotes})
		if !ok {
			return 0, false
		}
		used += t.MarginUsed(rate, a.Leverage)
	}
	return used, true
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func sign64(x int64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// CreateMarketOrder opens (or nets against an existing opposite-side
// position in) units of in at the current ask (long) or bid (short).
// It returns the newly opened trade, or nil if the order only netted
// against existing trades, or ErrInsufficientMargin if the remaining
// units after netting would exceed available margin.
func (a *Account) CreateMarketOrder(ctx context.Context, now time.Time, in instrument.Instrument, units int64, quotes Quotes, p trade.Params) (*trade.Trade, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	q, ok := quotes.Quote(in)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoQuote, in)
	}
	fillPrice := q.Mid + a.Spread/2
	if units < 0 {
		fillPrice = q.Mid - a.Spread/2
	}
	return a.openOrNetLocked(now, in, units, fillPrice, quotes, p)
}

// openOrNetLocked is CreateMarketOrder's netting-then-open algorithm,
// shared with limit order fills: existing opposite-side trades are
// closed (fully or partially) before any remaining units open a new
// trade, ported from the reference engine's CreateMarketOrder.
func (a *Account) openOrNetLocked(now time.Time, in instrument.Instrument, units int64, fillPrice float64, quotes Quotes, p trade.Params) (*trade.Trade, error) {
	accQuoteRate, ok := fx.AccountCurrencyRate(a.Currency, in.Quote(), quotesAdapter{quotes})
	if !ok {
		return nil, fmt.Errorf("%w: no %s rate", ErrNoQuote, in.Quote())
	}

	existing := a.openTradesLocked(in)
	var existingUnits int64
	for _, t := range existing {
		existingUnits += t.CurrentUnits
	}

	remaining := units
	if remaining != 0 && existingUnits != 0 && sign64(remaining) != sign64(existingUnits) {
		for _, t := range existing {
			if t.CurrentUnits == 0 {
				continue
			}
			if abs64(remaining) >= abs64(t.CurrentUnits) {
				remaining += t.CurrentUnits
				pl := t.Close(accQuoteRate, fillPrice, now)
				a.Balance += pl
				a.notifyClosed(t.ID, "Netting")
			} else {
				pl := t.PartiallyClose(accQuoteRate, fillPrice, -remaining)
				a.Balance += pl
				remaining = 0
			}
			if remaining == 0 {
				break
			}
		}
	}

	if remaining == 0 {
		return nil, nil
	}

	accBaseRate, ok := fx.AccountCurrencyRate(a.Currency, in.Base(), quotesAdapter{quotes})
	if !ok {
		return nil, fmt.Errorf("%w: no %s rate", ErrNoQuote, in.Base())
	}
	initialMargin := fx.MarginUsed(remaining, accBaseRate, a.Leverage)

	nav, ok := a.netAssetValueLocked(quotes)
	if !ok {
		return nil, fmt.Errorf("%w: can't value account", ErrNoQuote)
	}
	marginUsed, ok := a.marginUsedLocked(quotes)
	if !ok {
		return nil, fmt.Errorf("%w: can't value margin", ErrNoQuote)
	}
	available := fx.MarginAvailable(nav, marginUsed)
	if available < initialMargin {
		return nil, ErrInsufficientMargin
	}

	// a.Spread is a price-scale offset (it priced fillPrice above);
	// trade.New wants the raw pip count, since fx.GainsLosses applies
	// its own pip-to-price conversion on every close.
	spreadPips := a.Spread * math.Pow(10, float64(in.PipDecimals()))
	t := trade.New(in, fillPrice, now, remaining, initialMargin, spreadPips, 0, 0, p)
	a.trades = append(a.trades, t)
	return t, nil
}

// CreateLimitOrder places a resting order to open or extend a
// position once the market reaches price. Margin is not checked at
// creation time; an order that can't be filled for lack of margin
// simply stays Pending until ProcessOrders can afford it.
func (a *Account) CreateLimitOrder(now time.Time, in instrument.Instrument, units int64, price float64, fill order.PositionFill) *order.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	lo := order.NewLimit(now, in.Name(), units, price, fill)
	a.limitOrders = append(a.limitOrders, lo)
	return lo
}

// CancelLimitOrder cancels a pending limit order, if it is still
// pending.
func (a *Account) CancelLimitOrder(orderID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, lo := range a.limitOrders {
		if lo.ID == orderID {
			lo.Cancel()
			return nil
		}
	}
	return fmt.Errorf("sim: limit order %q not found", orderID)
}

// CloserPosition closes every open trade in the given instrument at
// current quotes.
func (a *Account) CloserPosition(now time.Time, in instrument.Instrument, quotes Quotes) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	q, ok := quotes.Quote(in)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoQuote, in)
	}
	rate, ok := fx.AccountCurrencyRate(a.Currency, in.Quote(), quotesAdapter{quotes})
	if !ok {
		return fmt.Errorf("%w: no %s rate", ErrNoQuote, in.Quote())
	}

	for _, t := range a.openTradesLocked(in) {
		closePrice := q.Mid - a.Spread/2
		if t.CurrentUnits < 0 {
			closePrice = q.Mid + a.Spread/2
		}
		pl := t.Close(rate, closePrice, now)
		a.Balance += pl
		a.notifyClosed(t.ID, "ManualClose")
	}
	return nil
}

// CloseAll closes every open trade across every instrument, using
// quotes to value each.
func (a *Account) CloseAll(now time.Time, quotes Quotes) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, t := range a.trades {
		if t.State != trade.Open {
			continue
		}
		q, ok := quotes.Quote(t.Instrument)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoQuote, t.Instrument)
		}
		rate, ok := fx.AccountCurrencyRate(a.Currency, t.Instrument.Quote(), quotesAdapter{quotes})
		if !ok {
			return fmt.Errorf("%w: no %s rate", ErrNoQuote, t.Instrument.Quote())
		}
		closePrice := q.Mid - a.Spread/2
		if t.CurrentUnits < 0 {
			closePrice = q.Mid + a.Spread/2
		}
		pl := t.Close(rate, closePrice, now)
		a.Balance += pl
		a.notifyClosed(t.ID, "ManualClose")
	}
	return nil
}

// UpdateTradeStopLoss, UpdateTradeTakeProfit and UpdateTrailingStop
// set or replace a trade's protective orders. They return an error if
// tradeID doesn't name an open trade.
func (a *Account) UpdateTradeStopLoss(tradeID string, price float64, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.mustOpenTradeLocked(tradeID)
	if err != nil {
		return err
	}
	t.UpdateStopLoss(price, now)
	return nil
}

func (a *Account) UpdateTradeTakeProfit(tradeID string, price float64, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.mustOpenTradeLocked(tradeID)
	if err != nil {
		return err
	}
	t.UpdateTakeProfit(price, now)
	return nil
}

func (a *Account) UpdateTrailingStop(tradeID string, distance float64, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.mustOpenTradeLocked(tradeID)
	if err != nil {
		return err
	}
	t.UpdateTrailingStop(distance, now)
	return nil
}

func (a *Account) mustOpenTradeLocked(tradeID string) (*trade.Trade, error) {
	for _, t := range a.trades {
		if t.ID == tradeID {
			if t.State != trade.Open {
				return nil, fmt.Errorf("sim: trade %q is not open", tradeID)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("sim: trade %q not found", tradeID)
}
