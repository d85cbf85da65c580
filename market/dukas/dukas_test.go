package dukas

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLUsesZeroBasedMonth(t *testing.T) {
	d := &Downloader{Base: "https://datafeed.dukascopy.com/datafeed"}
	hour := time.Date(2024, time.March, 5, 13, 0, 0, 0, time.UTC)

	got := d.URL("EURUSD", hour)
	want := "https://datafeed.dukascopy.com/datafeed/EURUSD/2024/02/05/13h_ticks.bi5"
	assert.Equal(t, want, got)
}

func TestFetchHourSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "existing.bi5")
	require.NoError(t, os.WriteFile(dst, []byte("cached"), 0o644))

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := &Downloader{Base: srv.URL, Client: srv.Client()}
	ok, err := d.FetchHour(context.Background(), "EURUSD", time.Now(), dst)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, called, "FetchHour should not hit the network when dst already exists")
}

func TestFetchHourHandles404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := &Downloader{Base: srv.URL, Client: srv.Client()}
	ok, err := d.FetchHour(context.Background(), "EURUSD", time.Now(), filepath.Join(dir, "missing.bi5"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchHourDownloads(t *testing.T) {
	payload := []byte("raw-bi5-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "hour.bi5")

	d := &Downloader{Base: srv.URL, Client: srv.Client()}
	ok, err := d.FetchHour(context.Background(), "EURUSD", time.Now(), dst)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func encodeTick(msOffset int64, ask, bid uint32) []byte {
	rec := make([]byte, recordSize)
	binary.BigEndian.PutUint32(rec[0:4], uint32(msOffset))
	binary.BigEndian.PutUint32(rec[4:8], ask)
	binary.BigEndian.PutUint32(rec[8:12], bid)
	return rec
}

func TestParseTicks(t *testing.T) {
	in := instrument.MustNew("EUR_USD")
	hourStart := time.Date(2024, time.March, 5, 13, 0, 0, 0, time.UTC)

	var data []byte
	data = append(data, encodeTick(0, 110001, 109999)...)
	data = append(data, encodeTick(1500, 110010, 110005)...)

	ticks, err := ParseTicks(data, hourStart, in)
	require.NoError(t, err)
	require.Len(t, ticks, 2)

	assert.Equal(t, hourStart, ticks[0].Time)
	assert.InDelta(t, 1.10001, ticks[0].Ask, 1e-9)
	assert.InDelta(t, 1.09999, ticks[0].Bid, 1e-9)

	assert.Equal(t, hourStart.Add(1500*time.Millisecond), ticks[1].Time)
	assert.InDelta(t, 1.10010, ticks[1].Ask, 1e-9)
	assert.InDelta(t, 1.10005, ticks[1].Bid, 1e-9)
}

func TestParseTicksRejectsShortBuffer(t *testing.T) {
	in := instrument.MustNew("EUR_USD")
	_, err := ParseTicks(make([]byte, recordSize-1), time.Now(), in)
	assert.Error(t, err)
}

func TestAggregateToCandlesBucketsByFreq(t *testing.T) {
	base := time.Date(2024, time.March, 5, 13, 0, 0, 0, time.UTC)

	ticks := []Tick{
		{Time: base.Add(1 * time.Minute), Ask: 1.1002, Bid: 1.1000},
		{Time: base.Add(20 * time.Minute), Ask: 1.1007, Bid: 1.1003},
		{Time: base.Add(40 * time.Minute), Ask: 1.0999, Bid: 1.0995},
		{Time: base.Add(61 * time.Minute), Ask: 1.1010, Bid: 1.1006},
	}

	bars := AggregateToCandles(ticks, candle.H1)
	require.Len(t, bars, 2)

	first := bars[0]
	assert.Equal(t, base, first.Time)
	assert.InDelta(t, 1.1001, first.Open, 1e-9)
	assert.InDelta(t, 1.1005, first.High, 1e-9)
	assert.InDelta(t, 1.0997, first.Low, 1e-9)
	assert.InDelta(t, 1.0997, first.Close, 1e-9)
	assert.Equal(t, int64(3), first.Volume)

	second := bars[1]
	assert.Equal(t, base.Add(time.Hour), second.Time)
	assert.Equal(t, int64(1), second.Volume)
}
