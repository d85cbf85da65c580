// Package dukas downloads Dukascopy tick archives (.bi5, LZMA
// compressed) and decodes them into candlestick bars the engine's
// candle.Store can ingest.
package dukas

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/ulikunitz/xz/lzma"
)

const defaultBase = "https://datafeed.dukascopy.com/datafeed"

// Downloader fetches hourly .bi5 tick archives from Dukascopy.
type Downloader struct {
	Base   string
	Client *http.Client
}

// NewDownloader returns a Downloader pointed at the public Dukascopy
// feed, using client if non-nil.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	return &Downloader{Base: defaultBase, Client: client}
}

// URL returns the .bi5 URL for symbol at the given hour. Dukascopy
// paths use a zero-based month (Jan=00).
func (d *Downloader) URL(symbol string, hour time.Time) string {
	base := d.Base
	if base == "" {
		base = defaultBase
	}
	month0 := int(hour.Month()) - 1
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		strings.TrimRight(base, "/"), symbol, hour.Year(), month0, hour.Day(), hour.Hour())
}

// FetchHour downloads the .bi5 archive for symbol at hour into dst,
// skipping the request if dst already exists and is non-empty.
// Reports ok=false without error when the feed returns 404 (no ticks
// traded that hour, e.g. weekends).
func (d *Downloader) FetchHour(ctx context.Context, symbol string, hour time.Time, dst string) (ok bool, err error) {
	if st, err := os.Stat(dst); err == nil && st.Size() > 0 {
		return true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL(symbol, hour), nil)
	if err != nil {
		return false, err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("dukas: http status %d fetching %s", resp.StatusCode, req.URL)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	_, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(tmp)
		return false, copyErr
	}
	if closeErr != nil {
		os.Remove(tmp)
		return false, closeErr
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, nil
}

// Decompress LZMA-decompresses an .bi5 archive, writing the raw tick
// records to dst.
func Decompress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := lzma.NewReader(in)
	if err != nil {
		return fmt.Errorf("dukas: lzma reader: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// Tick is one decoded Dukascopy tick record.
type Tick struct {
	Time time.Time
	Ask  float64
	Bid  float64
}

// recordSize is the width in bytes of one decompressed Dukascopy tick
// record: ms-offset (int32), ask (uint32), bid (uint32), ask volume
// (float32), bid volume (float32), all big-endian.
const recordSize = 20

// ParseTicks decodes a decompressed .bi5 payload into Ticks. Prices
// are stored as integers scaled by a point value derived from in's
// pip precision (10^(PipDecimals+1), giving one extra fractional
// digit beyond the pip).
func ParseTicks(data []byte, hourStart time.Time, in instrument.Instrument) ([]Tick, error) {
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("dukas: tick data length %d is not a multiple of %d", len(data), recordSize)
	}

	pointValue := math.Pow(10, float64(in.PipDecimals()+1))

	n := len(data) / recordSize
	ticks := make([]Tick, 0, n)
	for i := 0; i < n; i++ {
		rec := data[i*recordSize : (i+1)*recordSize]

		msOffset := int64(binary.BigEndian.Uint32(rec[0:4]))
		askRaw := binary.BigEndian.Uint32(rec[4:8])
		bidRaw := binary.BigEndian.Uint32(rec[8:12])

		ticks = append(ticks, Tick{
			Time: hourStart.Add(time.Duration(msOffset) * time.Millisecond),
			Ask:  float64(askRaw) / pointValue,
			Bid:  float64(bidRaw) / pointValue,
		})
	}
	return ticks, nil
}

// AggregateToCandles buckets ticks into freq-wide candlesticks, using
// the mid of bid/ask as the traded price. Buckets with no ticks are
// omitted; candle.Store's floor-lookup carries the last known bar
// forward for callers that query a gap.
func AggregateToCandles(ticks []Tick, freq candle.Freq) []candle.Candlestick {
	width := time.Duration(freq) * time.Second

	type bucket struct {
		open, high, low, close float64
		volume                 int64
		set                    bool
	}
	buckets := make(map[int64]*bucket)
	var order []int64

	for _, t := range ticks {
		mid := (t.Ask + t.Bid) / 2
		key := t.Time.Truncate(width).UnixNano()

		b, ok := buckets[key]
		if !ok {
			b = &bucket{open: mid, high: mid, low: mid, close: mid}
			buckets[key] = b
			order = append(order, key)
		}
		if mid > b.high {
			b.high = mid
		}
		if mid < b.low {
			b.low = mid
		}
		b.close = mid
		b.volume++
		b.set = true
	}

	out := make([]candle.Candlestick, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		if !b.set {
			continue
		}
		out = append(out, candle.Candlestick{
			Time:   time.Unix(0, key).UTC(),
			Open:   b.open,
			High:   b.high,
			Low:    b.low,
			Close:  b.close,
			Volume: b.volume,
		})
	}
	return out
}
