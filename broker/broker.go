// Package broker is the seam a live driver uses instead of
// backtest.Runner + candle.Store: a Broker gives quotes and an account
// snapshot from a real venue and accepts market orders against it.
package broker

import (
	"context"
	"time"

	"github.com/shine15/iridium-engine/instrument"
)

// Broker is implemented by live venue adapters (oanda.OandaBroker) and
// consumed by a live-trading driver the same way backtest.Runner
// consumes candle.Store and sim.Account.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)
	GetQuote(ctx context.Context, in instrument.Instrument) (Quote, error)
	CreateMarketOrder(ctx context.Context, req MarketOrderRequest) (OrderFill, error)
}

// Quote is one venue-reported bid/ask at a point in time.
type Quote struct {
	Time time.Time
	Bid  float64
	Ask  float64
}

// Mid returns the midpoint of Bid and Ask.
func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// Account is a venue-reported account snapshot.
type Account struct {
	ID          string
	Currency    string
	Balance     float64
	Equity      float64
	MarginUsed  float64
	FreeMargin  float64
	MarginLevel float64
}

// MarketOrderRequest requests a venue fill at the current market price.
type MarketOrderRequest struct {
	Instrument instrument.Instrument
	Units      int64
	StopLoss   *float64
	TakeProfit *float64
}

// OrderFill is a venue's response to a MarketOrderRequest.
type OrderFill struct {
	TradeID    string
	Instrument string
	Units      int64
	Price      float64
}
