package risk

import "fmt"

// Violation is one rule the intent failed.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the result of Evaluate: whether the intent is allowed,
// the violations that blocked it (if any), and the planned figures
// that drove the checks.
type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRiskUSD float64
	PlannedRiskPct float64
	PlannedRR      float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks a TradeIntent against a Policy, given a snapshot of
// account state and rolling realized P/L. It never mutates acct or
// reaches into sim.Account: callers pass in whatever snapshot they
// already have.
func Evaluate(p Policy, intent TradeIntent, acct AccountSnapshot, pnl PnLSnapshot, quoteToAccountRate float64) Decision {
	d := Decision{Allowed: true}

	if intent.Stop == 0 || intent.Entry == 0 {
		d.add("NO_STOP_OR_ENTRY", "entry/stop must be set")
		return d
	}
	if intent.Units == 0 {
		d.add("NO_UNITS", "units must be non-zero")
		return d
	}

	d.PlannedRiskUSD = PlannedRiskUSD(intent.Units, intent.Entry, intent.Stop, intent.Instrument, 1/quoteToAccountRate)
	d.PlannedRiskPct = RiskPct(d.PlannedRiskUSD, acct.Equity)
	d.PlannedRR = RR(intent.Entry, intent.Stop, intent.TakeProfit)

	if d.PlannedRiskPct > p.MaxRiskPct {
		d.add("RISK_TOO_HIGH",
			fmt.Sprintf("planned risk %.2f%% exceeds max %.2f%%",
				100*d.PlannedRiskPct, 100*p.MaxRiskPct))
	}
	if d.PlannedRiskPct > p.DefaultRiskPct {
		d.add("RISK_OVER_DEFAULT",
			fmt.Sprintf("planned risk %.2f%% exceeds default %.2f%% (requires override)",
				100*d.PlannedRiskPct, 100*p.DefaultRiskPct))
	}
	if d.PlannedRR < p.MinRR {
		d.add("RR_TOO_LOW",
			fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
	}

	if acct.OpenTrades >= p.MaxOpenTrades {
		d.add("TOO_MANY_OPEN_TRADES",
			fmt.Sprintf("open trades %d >= max %d", acct.OpenTrades, p.MaxOpenTrades))
	}

	if acct.Equity > 0 && acct.MarginUsed/acct.Equity > p.MaxMarginPct {
		d.add("MARGIN_TOO_HIGH",
			fmt.Sprintf("margin used %.2f%% exceeds max %.2f%%",
				100*(acct.MarginUsed/acct.Equity), 100*p.MaxMarginPct))
	}

	dayLimit := -p.MaxDailyLossPct * acct.Equity
	if pnl.DayRealized <= dayLimit {
		d.add("DAILY_LOSS_LIMIT", fmt.Sprintf("day realized %.2f <= limit %.2f", pnl.DayRealized, dayLimit))
	}
	weekLimit := -p.MaxWeeklyLossPct * acct.Equity
	if pnl.WeekRealized <= weekLimit {
		d.add("WEEKLY_LOSS_LIMIT", fmt.Sprintf("week realized %.2f <= limit %.2f", pnl.WeekRealized, weekLimit))
	}

	return d
}
