// Package calendar enumerates the FX trading week and slices each
// trading day into evenly spaced ticks of a chosen data frequency.
package calendar

import (
	"fmt"
	"time"

	"github.com/shine15/iridium-engine/candle"
)

// holiday is a fixed month/day that is never a trading day, regardless
// of year.
type holiday struct {
	month time.Month
	day   int
}

// holidays the engine treats as non-trading days: New Year's Day and
// Christmas. Matches the original engine's partial_date holiday set.
var holidays = []holiday{
	{time.January, 1},
	{time.December, 25},
}

func isHoliday(t time.Time) bool {
	for _, h := range holidays {
		if t.Month() == h.month && t.Day() == h.day {
			return true
		}
	}
	return false
}

// IsTradingDay reports whether t (interpreted in its own location,
// normally America/New_York) is a trading day: not a weekend, not a
// holiday, and not a Monday immediately following a weekend holiday.
func IsTradingDay(t time.Time) bool {
	if isHoliday(t) {
		return false
	}
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	case time.Monday:
		for i := 1; i < 3; i++ {
			if isHoliday(t.AddDate(0, 0, -i)) {
				return false
			}
		}
	}
	return true
}

// DayIterator walks trading days in [begin, end], skipping weekends,
// holidays, and the Monday following a weekend holiday.
type DayIterator struct {
	loc     *time.Location
	cur     time.Time
	end     time.Time
	started bool
	done    bool
}

// NewDayIterator returns an iterator over trading days from begin to
// end inclusive, both interpreted in loc (normally America/New_York).
// begin is advanced forward to the first trading day if it isn't one.
func NewDayIterator(begin, end time.Time, loc *time.Location) *DayIterator {
	b := normalizeDay(begin.In(loc))
	e := normalizeDay(end.In(loc))
	for !IsTradingDay(b) && !b.After(e) {
		b = b.AddDate(0, 0, 1)
	}
	return &DayIterator{loc: loc, cur: b, end: e}
}

func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Next advances to the next trading day, returning ok=false once past
// end.
func (d *DayIterator) Next() (time.Time, bool) {
	if d.done {
		return time.Time{}, false
	}
	if !d.started {
		d.started = true
		if d.cur.After(d.end) {
			d.done = true
			return time.Time{}, false
		}
		return d.cur, true
	}
	for {
		d.cur = d.cur.AddDate(0, 0, 1)
		if d.cur.After(d.end) {
			d.done = true
			return time.Time{}, false
		}
		if IsTradingDay(d.cur) {
			return d.cur, true
		}
	}
}

// TradeStart returns the instant trading begins for the session that
// ends on tradingDay: 17:00 New York time on the prior calendar day.
// Because sessions run contiguously, this is also the instant the
// prior trading day's session ended.
func TradeStart(tradingDay time.Time, loc *time.Location) time.Time {
	d := tradingDay.In(loc)
	sessionEnd := time.Date(d.Year(), d.Month(), d.Day(), 17, 0, 0, 0, loc)
	return sessionEnd.Add(-24 * time.Hour)
}

// TradeStartTimes returns the session-start instant (see TradeStart)
// for every trading day in [begin, end].
func TradeStartTimes(begin, end time.Time, loc *time.Location) []time.Time {
	it := NewDayIterator(begin, end, loc)
	var out []time.Time
	for {
		day, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, TradeStart(day, loc))
	}
	return out
}

// Clock enumerates tick instants across a trading-week window at a
// fixed frequency, by slicing each trading day's 24-hour session into
// freq-spaced steps.
type Clock struct {
	starts []time.Time
	freq   candle.Freq
}

// NewClock builds a Clock over [begin, end] for the given IANA region
// (e.g. "America/New_York") and tick frequency.
func NewClock(begin, end time.Time, region string, freq candle.Freq) (*Clock, error) {
	loc, err := time.LoadLocation(region)
	if err != nil {
		return nil, fmt.Errorf("calendar: unknown region %q: %w", region, err)
	}
	return &Clock{starts: TradeStartTimes(begin, end, loc), freq: freq}, nil
}

// Len returns the total number of ticks the clock will emit.
func (c *Clock) Len() int {
	perDay := int(candle.D / c.freq)
	return len(c.starts) * perDay
}

// At returns the tick instant at position pos, 0-indexed.
func (c *Clock) At(pos int) time.Time {
	perDay := int(candle.D / c.freq)
	day := c.starts[pos/perDay]
	return day.Add(time.Duration(pos%perDay) * time.Duration(c.freq) * time.Second)
}

// Iterator walks every tick a Clock produces, in order.
type Iterator struct {
	clock *Clock
	pos   int
}

// Iterator returns a fresh Iterator over c.
func (c *Clock) Iterator() *Iterator {
	return &Iterator{clock: c}
}

// Next returns the next tick instant, or ok=false once exhausted.
func (it *Iterator) Next() (time.Time, bool) {
	if it.pos >= it.clock.Len() {
		return time.Time{}, false
	}
	t := it.clock.At(it.pos)
	it.pos++
	return t, true
}
