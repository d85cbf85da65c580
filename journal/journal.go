// Package journal persists closed trades and periodic equity
// snapshots from a backtest or live run, for later review.
package journal

import "time"

// TradeRecord is one closed trade, as recorded after the account
// realizes its profit or loss.
type TradeRecord struct {
	TradeID    string
	Instrument string
	Units      int64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// EquitySnapshot is the account's valuation at one point in time.
type EquitySnapshot struct {
	Time        time.Time
	Balance     float64
	Equity      float64
	MarginUsed  float64
	FreeMargin  float64
	MarginLevel float64
}

// Journal records trades and equity snapshots as a run progresses.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	TradesClosedBetween(start, end time.Time) ([]TradeRecord, error)
	Close() error
}
