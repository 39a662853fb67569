package query

import (
	"fmt"
	"sort"
	"time"

	"StockVault/internal/model"
)

// Supported resampling frequencies.
const (
	FreqMonth = "month"
	FreqWeek  = "week"
)

// Resample groups closes by calendar period and keeps the last observation
// of each period per symbol. Periods with no observations are dropped.
func (e *Engine) Resample(symbols []string, freq, begin, end string) ([]model.ResampledPoint, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if freq != FreqMonth && freq != FreqWeek {
		return nil, fmt.Errorf("unknown frequency %q (want %q or %q)", freq, FreqMonth, FreqWeek)
	}

	bars, err := e.History(symbols, HistoryOptions{Begin: begin, End: end})
	if err != nil {
		return nil, err
	}

	// bars arrive date-ascending, so a plain overwrite keeps the last
	// observation of each (symbol, period).
	type pkey struct{ symbol, period string }
	last := make(map[pkey]model.ResampledPoint)
	for _, b := range bars {
		period, err := periodKey(freq, b.Date)
		if err != nil {
			return nil, err
		}
		last[pkey{b.Symbol, period}] = model.ResampledPoint{
			Symbol: b.Symbol,
			Period: period,
			Date:   b.Date,
			Close:  b.Close,
		}
	}

	out := make([]model.ResampledPoint, 0, len(last))
	for _, p := range last {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Period < out[j].Period
	})
	return out, nil
}

// periodKey maps a canonical date to its calendar period label.
func periodKey(freq, date string) (string, error) {
	switch freq {
	case FreqMonth:
		if len(date) < 7 {
			return "", fmt.Errorf("malformed date %q", date)
		}
		return date[:7], nil
	case FreqWeek:
		t, err := time.Parse(model.DateFormat, date)
		if err != nil {
			return "", fmt.Errorf("malformed date %q: %w", date, err)
		}
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	}
	return "", fmt.Errorf("unknown frequency %q", freq)
}

// cumulateSplits fills CumSplits with the running product of ratios per
// symbol. Rows must be grouped by symbol and date-descending, so the product
// accumulates from the most recent split backwards.
func cumulateSplits(rows []model.SplitRow) {
	cum := 1.0
	for i := range rows {
		if i == 0 || rows[i].Symbol != rows[i-1].Symbol {
			cum = 1.0
		}
		cum *= rows[i].Splits
		rows[i].CumSplits = cum
	}
}

// summarizeYield folds windowed history into one YieldRow per symbol. Bars
// must be date-ascending. Symbols with no bars contribute nothing.
func summarizeYield(bars []model.PriceBar) []model.YieldRow {
	bySymbol := make(map[string]*model.YieldRow)
	var order []string

	for _, b := range bars {
		row, ok := bySymbol[b.Symbol]
		if !ok {
			row = &model.YieldRow{Symbol: b.Symbol}
			bySymbol[b.Symbol] = row
			order = append(order, b.Symbol)
		}
		row.Date = b.Date
		row.Close = b.Close
		row.Dividends += b.Dividends
		if b.Dividends > 0 {
			row.Last = b.Dividends
			row.Count++
		}
	}

	sort.Strings(order)
	out := make([]model.YieldRow, 0, len(order))
	for _, symbol := range order {
		row := bySymbol[symbol]
		row.Dividends = model.Round2(row.Dividends)
		if row.Close != 0 {
			row.Yield = model.Round2(100 * row.Dividends / row.Close)
		}
		out = append(out, *row)
	}
	return out
}
