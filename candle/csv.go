package candle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads candlestick rows from path into bars:
//
//	time,open,high,low,close,volume
//
// where time is RFC3339 or RFC3339Nano. A single header row ("time,...")
// is permitted. Blank lines are skipped.
func LoadCSV(path string) ([]Candlestick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []Candlestick
	sawFirst := false
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}
		c, ok, err := parseCandleRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		bars = append(bars, c)
	}
	return bars, nil
}

func parseCandleRow(row []string) (Candlestick, bool, error) {
	if len(row) < 6 {
		return Candlestick{}, false, nil
	}
	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Candlestick{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return Candlestick{}, false, fmt.Errorf("candle: bad time %q: %w", ts, err)
		}
		t = t2
	}

	field := func(i int) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	}
	open, err := field(1)
	if err != nil {
		return Candlestick{}, false, fmt.Errorf("candle: bad open %q: %w", row[1], err)
	}
	high, err := field(2)
	if err != nil {
		return Candlestick{}, false, fmt.Errorf("candle: bad high %q: %w", row[2], err)
	}
	low, err := field(3)
	if err != nil {
		return Candlestick{}, false, fmt.Errorf("candle: bad low %q: %w", row[3], err)
	}
	closePx, err := field(4)
	if err != nil {
		return Candlestick{}, false, fmt.Errorf("candle: bad close %q: %w", row[4], err)
	}
	volume, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
	if err != nil {
		return Candlestick{}, false, fmt.Errorf("candle: bad volume %q: %w", row[5], err)
	}

	return Candlestick{Time: t, Open: open, High: high, Low: low, Close: closePx, Volume: volume}, true, nil
}
