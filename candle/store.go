package candle

import (
	"sort"
	"time"

	"github.com/shine15/iridium-engine/instrument"
)

// Store serves candlestick lookups for a fixed set of instruments and
// frequencies. Implementations must support "largest time <= target"
// semantics: the bar in effect at a point in time, not an exact match.
type Store interface {
	// Candle returns the single bar of the given frequency in effect
	// at t for instrument in, i.e. the bar with the largest start time
	// <= t. ErrNotFound if none exists.
	Candle(in instrument.Instrument, t time.Time, freq Freq) (Candlestick, error)

	// History returns exactly count bars of the given frequency ending
	// with the bar in effect at end, oldest first. ErrNotFound if fewer
	// than count such bars exist.
	History(in instrument.Instrument, end time.Time, count int, freq Freq) ([]Candlestick, error)

	// HistoryRange returns every bar of the given frequency in
	// [begin, end], oldest first.
	HistoryRange(in instrument.Instrument, begin, end time.Time, freq Freq) ([]Candlestick, error)
}

// series holds one instrument+frequency's bars, sorted ascending by
// time, plus a parallel time index for binary search.
type series struct {
	times []int64
	bars  []Candlestick
}

func (s *series) insert(c Candlestick) {
	t := c.Time.Unix()
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= t })
	if i < len(s.times) && s.times[i] == t {
		s.bars[i] = c
		return
	}
	s.times = append(s.times, 0)
	s.bars = append(s.bars, Candlestick{})
	copy(s.times[i+1:], s.times[i:])
	copy(s.bars[i+1:], s.bars[i:])
	s.times[i] = t
	s.bars[i] = c
}

// floorIndex returns the index of the largest time <= t, or -1.
func (s *series) floorIndex(t int64) int {
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t })
	return i - 1
}

// MemStore is an in-memory Store backed by sorted per-series slices.
// It is safe for concurrent reads; Load must not race with lookups.
type MemStore struct {
	series map[string]*series
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{series: make(map[string]*series)}
}

func key(in instrument.Instrument, freq Freq) string {
	return in.Name() + "|" + freq.String()
}

// Load inserts bars for the given instrument and frequency. Bars may
// be loaded out of order; Load keeps the series sorted.
func (m *MemStore) Load(in instrument.Instrument, freq Freq, bars []Candlestick) {
	k := key(in, freq)
	s, ok := m.series[k]
	if !ok {
		s = &series{}
		m.series[k] = s
	}
	for _, c := range bars {
		s.insert(c)
	}
}

func (m *MemStore) Candle(in instrument.Instrument, t time.Time, freq Freq) (Candlestick, error) {
	s, ok := m.series[key(in, freq)]
	if !ok {
		return Candlestick{}, ErrNotFound
	}
	i := s.floorIndex(t.Unix())
	if i < 0 {
		return Candlestick{}, ErrNotFound
	}
	return s.bars[i], nil
}

func (m *MemStore) History(in instrument.Instrument, end time.Time, count int, freq Freq) ([]Candlestick, error) {
	s, ok := m.series[key(in, freq)]
	if !ok {
		return nil, ErrNotFound
	}
	i := s.floorIndex(end.Unix())
	if i < 0 {
		return nil, ErrNotFound
	}
	start := i - count + 1
	if start < 0 {
		return nil, ErrNotFound
	}
	out := make([]Candlestick, i-start+1)
	copy(out, s.bars[start:i+1])
	return out, nil
}

func (m *MemStore) HistoryRange(in instrument.Instrument, begin, end time.Time, freq Freq) ([]Candlestick, error) {
	s, ok := m.series[key(in, freq)]
	if !ok {
		return nil, ErrNotFound
	}
	hi := s.floorIndex(end.Unix())
	if hi < 0 {
		return nil, ErrNotFound
	}
	lo := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= begin.Unix() })
	if lo > hi {
		return nil, nil
	}
	out := make([]Candlestick, hi-lo+1)
	copy(out, s.bars[lo:hi+1])
	return out, nil
}

// Mid implements fx.Quotes: it returns the close of the latest-timed
// bar loaded for the instrument, across every frequency in the store.
func (m *MemStore) Mid(instrumentName string) (float64, bool) {
	best := Candlestick{}
	found := false
	for k, s := range m.series {
		if len(s.bars) == 0 {
			continue
		}
		if name, _, ok := splitKey(k); !ok || name != instrumentName {
			continue
		}
		last := s.bars[len(s.bars)-1]
		if !found || last.Time.After(best.Time) {
			best = last
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best.Close, true
}

func splitKey(k string) (name string, freq string, ok bool) {
	for i := len(k) - 1; i >= 0; i-- {
		if k[i] == '|' {
			return k[:i], k[i+1:], true
		}
	}
	return "", "", false
}
