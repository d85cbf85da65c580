package order

import (
	"testing"
	"time"
)

func TestLimitCancel(t *testing.T) {
	now := time.Now()
	l := NewLimit(now, "EUR_USD", 1000, 1.1000, ReduceFirst)
	if l.State != Pending {
		t.Fatalf("new limit order should be pending, got %v", l.State)
	}
	l.Cancel()
	if l.State != Cancelled {
		t.Fatalf("expected cancelled, got %v", l.State)
	}
}

func TestLimitCancelIsNoOpOnceFilled(t *testing.T) {
	l := NewLimit(time.Now(), "EUR_USD", 1000, 1.1000, ReduceFirst)
	l.State = Filled
	l.Cancel()
	if l.State != Filled {
		t.Fatalf("cancel should not override a terminal state, got %v", l.State)
	}
}

func TestPriceTriggerHit(t *testing.T) {
	sl := NewStopLoss(time.Now(), "trade-1", 1.0950)
	if !sl.Hit(1.0900, 1.0960) {
		t.Fatal("expected stop loss to be hit when price is within [low, high]")
	}
	if sl.Hit(1.0960, 1.1000) {
		t.Fatal("expected stop loss not to be hit when price is outside [low, high]")
	}
}

func TestTrailingStopLongRatchetsUpOnly(t *testing.T) {
	ts := NewTrailingStop(time.Now(), "trade-1", 0.0020, 1.1000, false)
	if ts.StopPrice != 1.0980 {
		t.Fatalf("initial stop = %v, want 1.0980", ts.StopPrice)
	}

	ts.Ratchet(1.1025) // moved 0.0045 favorably, past the 0.0020 distance
	if ts.StopPrice != 1.1005 {
		t.Fatalf("after favorable move, stop = %v, want 1.1005", ts.StopPrice)
	}

	before := ts.StopPrice
	ts.Ratchet(1.0990) // price retreats; stop must not move backward
	if ts.StopPrice != before {
		t.Fatalf("stop moved against the position: %v -> %v", before, ts.StopPrice)
	}
}

func TestTrailingStopShortRatchetsDownOnly(t *testing.T) {
	ts := NewTrailingStop(time.Now(), "trade-1", 0.0020, 1.1000, true)
	if ts.StopPrice != 1.1020 {
		t.Fatalf("initial stop = %v, want 1.1020", ts.StopPrice)
	}

	ts.Ratchet(1.0975) // moved 0.0045 favorably for a short
	if ts.StopPrice != 1.0995 {
		t.Fatalf("after favorable move, stop = %v, want 1.0995", ts.StopPrice)
	}
}
