// Package candle provides candlestick (OHLCV) storage and lookup,
// keyed by instrument and time, across a fixed set of data
// frequencies.
package candle

import (
	"errors"
	"time"
)

// Freq is a candlestick data frequency, expressed in seconds per bar.
type Freq int64

// Supported data frequencies, mirroring common broker granularities.
const (
	M1  Freq = 60
	M2  Freq = 2 * M1
	M4  Freq = 4 * M1
	M5  Freq = 5 * M1
	M10 Freq = 10 * M1
	M15 Freq = 15 * M1
	M30 Freq = 30 * M1
	H1  Freq = 60 * M1
	H2  Freq = 2 * H1
	H4  Freq = 4 * H1
	H6  Freq = 6 * H1
	H8  Freq = 8 * H1
	H12 Freq = 12 * H1
	D   Freq = 24 * H1
)

func (f Freq) String() string {
	switch f {
	case M1:
		return "M1"
	case M2:
		return "M2"
	case M4:
		return "M4"
	case M5:
		return "M5"
	case M10:
		return "M10"
	case M15:
		return "M15"
	case M30:
		return "M30"
	case H1:
		return "H1"
	case H2:
		return "H2"
	case H4:
		return "H4"
	case H6:
		return "H6"
	case H8:
		return "H8"
	case H12:
		return "H12"
	case D:
		return "D"
	default:
		return "unknown"
	}
}

// ParseFreq parses the strings produced by Freq.String.
func ParseFreq(s string) (Freq, error) {
	switch s {
	case "M1":
		return M1, nil
	case "M2":
		return M2, nil
	case "M4":
		return M4, nil
	case "M5":
		return M5, nil
	case "M10":
		return M10, nil
	case "M15":
		return M15, nil
	case "M30":
		return M30, nil
	case "H1":
		return H1, nil
	case "H2":
		return H2, nil
	case "H4":
		return H4, nil
	case "H6":
		return H6, nil
	case "H8":
		return H8, nil
	case "H12":
		return H12, nil
	case "D":
		return D, nil
	default:
		return 0, errors.New("candle: unknown frequency " + s)
	}
}

// Candlestick is one OHLCV bar.
type Candlestick struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// ErrNotFound is returned when a lookup has no candle at or before the
// requested time.
var ErrNotFound = errors.New("candle: no data at or before requested time")
