// journal/csv.go
package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades     *csv.Writer
	equity     *csv.Writer
	tf, ef     *os.File
	tradesPath string
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{"trade_id", "instrument", "units", "entry_price", "exit_price", "open_time", "close_time", "realized_pl", "reason"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"time", "balance", "equity", "margin_used", "free_margin", "margin_level"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef, tradesPath: tradesPath}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.trades.Write([]string{
		t.TradeID,
		t.Instrument,
		strconv.FormatInt(t.Units, 10),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.RealizedPL),
		t.Reason,
	})
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Balance),
		f(e.Equity),
		f(e.MarginUsed),
		f(e.FreeMargin),
		f(e.MarginLevel),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return nil
}

// TradesClosedBetween re-reads the trades file written so far and
// returns the rows whose close_time falls within [start, end).
func (j *CSVJournal) TradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return nil, err
	}

	f, err := os.Open(j.tradesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}

	var out []TradeRecord
	for _, row := range rows {
		if len(row) < 9 {
			continue
		}
		rec, err := parseTradeRow(row)
		if err != nil {
			return nil, err
		}
		if rec.CloseTime.Before(start) || !rec.CloseTime.Before(end) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseTradeRow(row []string) (TradeRecord, error) {
	units, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("journal: bad units %q: %w", row[2], err)
	}
	entry, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("journal: bad entry_price %q: %w", row[3], err)
	}
	exit, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("journal: bad exit_price %q: %w", row[4], err)
	}
	open, err := time.Parse(time.RFC3339, row[5])
	if err != nil {
		return TradeRecord{}, fmt.Errorf("journal: bad open_time %q: %w", row[5], err)
	}
	closeTime, err := time.Parse(time.RFC3339, row[6])
	if err != nil {
		return TradeRecord{}, fmt.Errorf("journal: bad close_time %q: %w", row[6], err)
	}
	pl, err := strconv.ParseFloat(row[7], 64)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("journal: bad realized_pl %q: %w", row[7], err)
	}
	return TradeRecord{
		TradeID:    row[0],
		Instrument: row[1],
		Units:      units,
		EntryPrice: entry,
		ExitPrice:  exit,
		OpenTime:   open,
		CloseTime:  closeTime,
		RealizedPL: pl,
		Reason:     row[8],
	}, nil
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.ef.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
