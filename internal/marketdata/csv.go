package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"backtest-lab/internal/domain"
)

// Timestamp layouts accepted in CSV input, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads OHLCV bars for one symbol from a CSV file. The header
// must contain timestamp and close columns; open, high, and low default
// to close and volume to zero when absent or empty. Any malformed row is
// fatal: bad input data must abort a run, not skew it.
func LoadCSV(path, symbol string) ([]*domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadBars parses bars from CSV content.
func ReadBars(r io.Reader, symbol string) ([]*domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	tsCol, ok := columnIndex(cols, "timestamp", "date", "time", "datetime")
	if !ok {
		return nil, fmt.Errorf("csv header missing timestamp column")
	}
	closeCol, ok := columnIndex(cols, "close")
	if !ok {
		return nil, fmt.Errorf("csv header missing close column")
	}
	openCol, hasOpen := columnIndex(cols, "open")
	highCol, hasHigh := columnIndex(cols, "high")
	lowCol, hasLow := columnIndex(cols, "low")
	volCol, hasVol := columnIndex(cols, "volume", "vol")

	var bars []*domain.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := parseTimestamp(record[tsCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		closePrice, err := decimal.NewFromString(strings.TrimSpace(record[closeCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: close %q: %w", line, record[closeCol], err)
		}

		open, err := optionalDecimal(record, openCol, hasOpen, closePrice)
		if err != nil {
			return nil, fmt.Errorf("line %d: open: %w", line, err)
		}
		high, err := optionalDecimal(record, highCol, hasHigh, closePrice)
		if err != nil {
			return nil, fmt.Errorf("line %d: high: %w", line, err)
		}
		low, err := optionalDecimal(record, lowCol, hasLow, closePrice)
		if err != nil {
			return nil, fmt.Errorf("line %d: low: %w", line, err)
		}
		volume, err := optionalDecimal(record, volCol, hasVol, decimal.Zero)
		if err != nil {
			return nil, fmt.Errorf("line %d: volume: %w", line, err)
		}

		bar, err := domain.NewBar(ts, symbol, open, high, low, closePrice, volume)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars in csv input")
	}
	return bars, nil
}

func columnIndex(cols map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if i, ok := cols[name]; ok {
			return i, true
		}
	}
	return 0, false
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func optionalDecimal(record []string, col int, present bool, fallback decimal.Decimal) (decimal.Decimal, error) {
	if !present || col >= len(record) || strings.TrimSpace(record[col]) == "" {
		return fallback, nil
	}
	return decimal.NewFromString(strings.TrimSpace(record[col]))
}
