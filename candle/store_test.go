package candle

import (
	"testing"
	"time"

	"github.com/shine15/iridium-engine/instrument"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMemStoreCandleFloor(t *testing.T) {
	s := NewMemStore()
	eurusd := instrument.MustNew("EUR_USD")
	s.Load(eurusd, M1, []Candlestick{
		{Time: mustTime("2024-01-02T00:00:00Z"), Close: 1.10},
		{Time: mustTime("2024-01-02T00:01:00Z"), Close: 1.11},
		{Time: mustTime("2024-01-02T00:03:00Z"), Close: 1.12},
	})

	// exact match
	c, err := s.Candle(eurusd, mustTime("2024-01-02T00:01:00Z"), M1)
	if err != nil || c.Close != 1.11 {
		t.Fatalf("exact match: %+v err=%v", c, err)
	}

	// between bars: largest time <= target
	c, err = s.Candle(eurusd, mustTime("2024-01-02T00:02:30Z"), M1)
	if err != nil || c.Close != 1.11 {
		t.Fatalf("floor lookup: %+v err=%v", c, err)
	}

	// before any data
	if _, err := s.Candle(eurusd, mustTime("2024-01-01T00:00:00Z"), M1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreHistory(t *testing.T) {
	s := NewMemStore()
	eurusd := instrument.MustNew("EUR_USD")
	for i := 0; i < 5; i++ {
		s.Load(eurusd, M1, []Candlestick{
			{Time: mustTime("2024-01-02T00:00:00Z").Add(time.Duration(i) * time.Minute), Close: float64(i)},
		})
	}

	hist, err := s.History(eurusd, mustTime("2024-01-02T00:04:00Z"), 3, M1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("len = %d", len(hist))
	}
	if hist[0].Close != 2 || hist[2].Close != 4 {
		t.Fatalf("unexpected window: %+v", hist)
	}
}

func TestMemStoreHistoryNotFoundWhenTooShort(t *testing.T) {
	s := NewMemStore()
	eurusd := instrument.MustNew("EUR_USD")
	for i := 0; i < 3; i++ {
		s.Load(eurusd, M1, []Candlestick{
			{Time: mustTime("2024-01-02T00:00:00Z").Add(time.Duration(i) * time.Minute), Close: float64(i)},
		})
	}

	if _, err := s.History(eurusd, mustTime("2024-01-02T00:02:00Z"), 5, M1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound when fewer than count candles precede end, got %v", err)
	}
}

func TestMemStoreUnknownInstrument(t *testing.T) {
	s := NewMemStore()
	if _, err := s.Candle(instrument.MustNew("GBP_JPY"), time.Now(), M1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
