// Package corrections applies a manually curated correction table over
// freshly fetched rows before they reach the archive. The archive's
// first-write-wins dedup rule means a committed row can never be patched in
// place, so corrections are strictly a pre-insert overlay.
package corrections

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"StockVault/internal/model"
)

// Header is the expected column order of the corrections CSV.
var Header = []string{"Date", "Symbol", "Open", "High", "Low", "Close", "Volume", "Dividends", "Splits"}

// Correction overrides individual fields of one (Date, Symbol) row. Nil
// fields are left untouched.
type Correction struct {
	Date      string
	Symbol    string
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Volume    *int64
	Dividends *float64
	Splits    *float64
}

// Table is a set of corrections keyed by (Date, Symbol).
type Table struct {
	byKey map[string]Correction
}

func key(date, symbol string) string { return date + "|" + symbol }

// Load reads the corrections CSV at path. A missing file is valid and yields
// an empty table; the table is human-edited and may simply not exist yet.
func Load(path string) (*Table, error) {
	t := &Table{byKey: make(map[string]Correction)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open corrections: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	// Header row.
	if _, err := r.Read(); err == io.EOF {
		return t, nil
	} else if err != nil {
		return nil, fmt.Errorf("read corrections header: %w", err)
	}

	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read corrections line %d: %w", line, err)
		}
		if len(record) != len(Header) {
			return nil, fmt.Errorf("corrections line %d: want %d fields, got %d", line, len(Header), len(record))
		}

		c := Correction{Date: record[0], Symbol: record[1]}
		if c.Date == "" || c.Symbol == "" {
			return nil, fmt.Errorf("corrections line %d: Date and Symbol are required", line)
		}
		if c.Open, err = parseFloat(record[2]); err != nil {
			return nil, fmt.Errorf("corrections line %d Open: %w", line, err)
		}
		if c.High, err = parseFloat(record[3]); err != nil {
			return nil, fmt.Errorf("corrections line %d High: %w", line, err)
		}
		if c.Low, err = parseFloat(record[4]); err != nil {
			return nil, fmt.Errorf("corrections line %d Low: %w", line, err)
		}
		if c.Close, err = parseFloat(record[5]); err != nil {
			return nil, fmt.Errorf("corrections line %d Close: %w", line, err)
		}
		if c.Volume, err = parseInt(record[6]); err != nil {
			return nil, fmt.Errorf("corrections line %d Volume: %w", line, err)
		}
		if c.Dividends, err = parseFloat(record[7]); err != nil {
			return nil, fmt.Errorf("corrections line %d Dividends: %w", line, err)
		}
		if c.Splits, err = parseFloat(record[8]); err != nil {
			return nil, fmt.Errorf("corrections line %d Splits: %w", line, err)
		}

		t.byKey[key(c.Date, c.Symbol)] = c
	}

	return t, nil
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Len returns the number of loaded corrections.
func (t *Table) Len() int { return len(t.byKey) }

// Apply patches rows in place wherever a correction matches the row's
// (Date, Symbol) key, and returns the number of rows patched. An empty table
// is a pass-through.
func (t *Table) Apply(rows []model.PriceBar) int {
	if len(t.byKey) == 0 {
		return 0
	}

	patched := 0
	for i := range rows {
		c, ok := t.byKey[key(rows[i].Date, rows[i].Symbol)]
		if !ok {
			continue
		}
		if c.Open != nil {
			rows[i].Open = *c.Open
		}
		if c.High != nil {
			rows[i].High = *c.High
		}
		if c.Low != nil {
			rows[i].Low = *c.Low
		}
		if c.Close != nil {
			rows[i].Close = *c.Close
		}
		if c.Volume != nil {
			rows[i].Volume = *c.Volume
		}
		if c.Dividends != nil {
			rows[i].Dividends = *c.Dividends
		}
		if c.Splits != nil {
			rows[i].Splits = *c.Splits
		}
		patched++
	}
	return patched
}
