package fx

import "fmt"

// Quotes resolves the current mid price of a BASE_QUOTE instrument
// name, reporting ok=false when no quote is available yet. It is
// satisfied by candle.Store snapshots and market tick maps alike.
type Quotes interface {
	Mid(instrumentName string) (price float64, ok bool)
}

// AccountCurrencyRate returns how many units of currency one unit of
// accountCurrency is worth: the mid of ACCOUNT_currency if quoted, else
// the inverse of the currency_ACCOUNT mid.
//
// Ported from original_source's account_currency_rate: if currency
// already equals accountCurrency the rate is 1; otherwise the account
// currency must appear on one side of some instrument paired with
// currency. Only direct pairs are resolved — true cross conversions
// (neither leg quoted against accountCurrency) report ok=false, same
// as the original's std::optional<double>.
func AccountCurrencyRate(accountCurrency, currency string, quotes Quotes) (float64, bool) {
	if currency == accountCurrency {
		return 1.0, true
	}
	if mid, ok := quotes.Mid(accountCurrency + "_" + currency); ok {
		return mid, true
	}
	if mid, ok := quotes.Mid(currency + "_" + accountCurrency); ok && mid != 0 {
		return 1.0 / mid, true
	}
	return 0, false
}

// ErrNoRate is returned by callers that need a hard error instead of
// the bool-ok form AccountCurrencyRate uses.
type ErrNoRate struct {
	AccountCurrency string
	Currency        string
}

func (e *ErrNoRate) Error() string {
	return fmt.Sprintf("fx: no rate to convert %s into %s", e.Currency, e.AccountCurrency)
}
