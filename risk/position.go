package risk

import (
	"math"

	"github.com/shine15/iridium-engine/fx"
	"github.com/shine15/iridium-engine/instrument"
)

// Inputs describes a position-sizing request: size a trade on in so
// that a stop at StopPrice risks exactly RiskPct of Equity.
type Inputs struct {
	Equity         float64
	RiskPct        float64
	EntryPrice     float64
	StopPrice      float64
	Instrument     instrument.Instrument
	QuoteToAccount float64 // EUR_USD in a USD account: 1.0
}

// Result is the sized position and the figures used to derive it.
type Result struct {
	Units      int64
	StopPips   float64
	RiskAmount float64
}

// Calculate sizes a position via fx.PositionSize, the same pip math
// sim.Account uses to mark trades, rounding the stop distance to the
// nearest whole pip since fx.PositionSize takes an integer pip count.
func Calculate(in Inputs) Result {
	stopPips := math.Abs(in.EntryPrice-in.StopPrice) / in.Instrument.PipSize()
	riskAmt := in.Equity * in.RiskPct

	rounded := int(math.Round(stopPips))
	if rounded <= 0 {
		return Result{Units: 0, StopPips: stopPips, RiskAmount: riskAmt}
	}

	// fx.PositionSize's rate is quote-currency-per-account-currency, the
	// inverse of the quote-to-account convention callers pass in here.
	units := fx.PositionSize(in.Equity, in.RiskPct, rounded, 1/in.QuoteToAccount, in.Instrument.PipDecimals())
	return Result{
		Units:      units,
		StopPips:   stopPips,
		RiskAmount: riskAmt,
	}
}
