package risk

import (
	"math"

	"github.com/shine15/iridium-engine/fx"
	"github.com/shine15/iridium-engine/instrument"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// PlannedRiskUSD computes the account-currency loss if stop is hit on a
// position of the given size, routed through fx.GainsLosses so the pip
// math matches what the account itself uses to mark trades.
func PlannedRiskUSD(units int64, entry, stop float64, in instrument.Instrument, accountQuoteRate float64) float64 {
	pips := abs(entry-stop) / in.PipSize()
	return abs(fx.GainsLosses(pips, units, accountQuoteRate, in.PipDecimals()))
}

// RR returns the reward:risk ratio of a trade plan.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RiskPct returns plannedRiskUSD as a fraction of equity.
func RiskPct(plannedRiskUSD, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return plannedRiskUSD / equity
}
