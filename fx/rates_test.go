package fx

import "testing"

type fakeQuotes map[string]float64

func (f fakeQuotes) Mid(name string) (float64, bool) {
	v, ok := f[name]
	return v, ok
}

func TestAccountCurrencyRateSameCurrency(t *testing.T) {
	rate, ok := AccountCurrencyRate("USD", "USD", fakeQuotes{})
	if !ok || rate != 1.0 {
		t.Fatalf("rate=%v ok=%v, want 1.0/true", rate, ok)
	}
}

func TestAccountCurrencyRateDirectPair(t *testing.T) {
	quotes := fakeQuotes{"USD_JPY": 150.0}
	rate, ok := AccountCurrencyRate("USD", "JPY", quotes)
	if !ok || rate != 150.0 {
		t.Fatalf("rate=%v ok=%v, want 150.0/true", rate, ok)
	}
}

func TestAccountCurrencyRateInversePair(t *testing.T) {
	quotes := fakeQuotes{"EUR_USD": 1.10}
	rate, ok := AccountCurrencyRate("USD", "EUR", quotes)
	if !ok {
		t.Fatal("expected a resolvable rate via the inverse pair")
	}
	want := 1.0 / 1.10
	if diff := rate - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("rate=%v, want %v", rate, want)
	}
}

func TestAccountCurrencyRateUnresolvable(t *testing.T) {
	if _, ok := AccountCurrencyRate("USD", "NZD", fakeQuotes{}); ok {
		t.Fatal("expected no resolvable rate with no quotes available")
	}
}
