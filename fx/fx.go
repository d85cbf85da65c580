// Package fx is the engine's forex math kernel: pip value, gains and
// losses, margin, and position sizing. Every formula here is a pure
// function of its arguments — no state, no I/O.
package fx

import "math"

// PipValue returns the account-currency value of one pip for a
// position of the given size, given the account-vs-quote-currency
// rate and the instrument's pip decimal count.
//
// https://www.fxpro.com/trading-tools/calculators/pip
func PipValue(units int64, accountQuoteRate float64, pipDecimals int) float64 {
	return float64(units) * math.Pow(10, -float64(pipDecimals)) * (1 / accountQuoteRate)
}

// GainsLosses returns the account-currency profit or loss for a move
// of change pips on a position of size units.
//
// https://www.oanda.com/forex-trading/analysis/profit-calculator/
func GainsLosses(change float64, units int64, accountQuoteRate float64, pipDecimals int) float64 {
	return change * PipValue(units, accountQuoteRate, pipDecimals)
}

// MarginUsed returns the account-currency margin a position of the
// given size reserves, given the account-vs-base-currency rate and
// the account's leverage.
//
// https://www.oanda.com/resources/legal/united-states/legal/margin-rules
func MarginUsed(units int64, accountBaseRate float64, leverage int) float64 {
	return math.Abs(float64(units)) * (1 / accountBaseRate) * (1 / float64(leverage))
}

// MarginAvailable returns the margin still free given net asset value
// and margin already in use. Never negative.
func MarginAvailable(nav, marginUsed float64) float64 {
	if available := nav - marginUsed; available > 0 {
		return available
	}
	return 0
}

// MarginCall reports whether net asset value has fallen to half or
// less of margin used, the point at which a broker would force-close
// positions.
//
// https://www.oanda.com/resources/legal/australia/legal/margin-rules
func MarginCall(nav, marginUsed float64) bool {
	return nav <= marginUsed/2
}

// PositionSize returns the number of units to trade so that a stop
// loss of stopLossPips pips away risks exactly riskPct of equity,
// rounded down toward zero.
//
// https://www.babypips.com/tools/position-size-calculator
func PositionSize(equity, riskPct float64, stopLossPips int, accountQuoteRate float64, pipDecimals int) int64 {
	loss := equity * riskPct
	quoteCurrencyLoss := loss * accountQuoteRate
	pipValue := quoteCurrencyLoss / float64(stopLossPips)
	return int64(math.Floor(pipValue * math.Pow(10, float64(pipDecimals))))
}

// PositionValue returns the account-currency value of a position of
// the given size at the given price.
func PositionValue(units int64, currentPrice, accountQuoteRate float64) float64 {
	return math.Abs(float64(units)) * currentPrice * (1 / accountQuoteRate)
}

// StopLossPositionSize sizes a position so a stop at stopLossPrice
// risks riskPct of equity, then clamps it down to whatever margin is
// actually available and floors it to zero below minSize.
//
// https://www.babypips.com/tools/position-size-calculator
func StopLossPositionSize(
	equity, marginUsed float64,
	leverage int,
	riskPct, orderPrice, stopLossPrice, accountQuoteRate float64,
	pipDecimals int,
	isShort bool,
	minSize int64,
) int64 {
	stopPips := math.Round(math.Abs(orderPrice-stopLossPrice) * math.Pow(10, float64(pipDecimals)))
	if stopPips <= 0 {
		return 0
	}

	size := PositionSize(equity, riskPct, int(stopPips), accountQuoteRate, pipDecimals)

	marginAvailable := MarginAvailable(equity, marginUsed)
	if marginAvailable == 0 {
		size = 0
	} else if tradeValue := PositionValue(size, orderPrice, accountQuoteRate); tradeValue >= marginAvailable*float64(leverage) {
		size = int64(math.Floor(marginAvailable * float64(leverage) * accountQuoteRate / orderPrice))
	}

	if size < minSize {
		return 0
	}
	if isShort {
		return -size
	}
	return size
}
