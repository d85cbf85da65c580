package risk

import (
	"time"

	"github.com/shine15/iridium-engine/instrument"
)

// Policy is the set of limits a TradeIntent is checked against. It is
// never consulted by sim.Account; a strategy calls Evaluate itself
// before placing an order.
type Policy struct {
	AccountBaseCurrency string
	AccountStartBalance float64

	DefaultRiskPct float64
	MaxRiskPct     float64

	MaxDailyLossPct  float64
	MaxWeeklyLossPct float64

	MaxOpenTrades int
	MaxMarginPct  float64

	MinRR float64
}

// TradeIntent describes a trade a strategy is considering.
type TradeIntent struct {
	Now        time.Time
	Instrument instrument.Instrument
	Units      int64

	Entry      float64
	Stop       float64
	TakeProfit float64

	RiskBucket string
}

// AccountSnapshot is the subset of sim.Account state Evaluate reads.
type AccountSnapshot struct {
	Balance float64
	Equity  float64

	MarginUsed  float64
	MarginAvail float64

	OpenTrades int
}

// PnLSnapshot carries realized P/L rolled up for circuit breaker checks.
type PnLSnapshot struct {
	DayRealized  float64
	WeekRealized float64
}
