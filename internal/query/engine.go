// Package query answers analytical queries over the price archive. Every
// operation is read-only and recomputes its result from stored rows; nothing
// here mutates state. All SQL is parameterized.
package query

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockVault/internal/archive"
	"StockVault/internal/model"
)

// ErrNoSymbols is returned by queries that require a non-empty symbol set.
var ErrNoSymbols = errors.New("no symbols specified")

// Engine runs read-only queries against the archive.
type Engine struct {
	db *sql.DB

	// Now anchors trailing windows, injectable for tests.
	Now func() time.Time
}

// New creates an Engine over an open archive.
func New(store *archive.Store) *Engine {
	return &Engine{db: store.DB(), Now: time.Now}
}

// HistoryOptions restricts a History query. Begin is inclusive, End
// exclusive, both in the canonical date layout; empty means unbounded.
type HistoryOptions struct {
	Begin         string
	End           string
	DividendsOnly bool
	SplitsOnly    bool
}

// History returns all stored rows for the symbol set, oldest first. An empty
// symbol set yields an empty result; default-symbol fallback is the caller's
// concern.
func (e *Engine) History(symbols []string, opts HistoryOptions) ([]model.PriceBar, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var where []string
	var args []interface{}

	where = append(where, symbolFilter(symbols, &args))
	if opts.Begin != "" {
		where = append(where, "Date >= ?")
		args = append(args, opts.Begin)
	}
	if opts.End != "" {
		where = append(where, "Date < ?")
		args = append(args, opts.End)
	}
	if opts.DividendsOnly {
		where = append(where, "Dividends > 0")
	}
	if opts.SplitsOnly {
		where = append(where, "Splits != 0")
	}

	q := `SELECT Symbol, Date, Open, High, Low, Close, Volume, Dividends, Splits
		FROM history WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY Date, Symbol`

	rows, err := e.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.PriceBar
	for rows.Next() {
		var b model.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low,
			&b.Close, &b.Volume, &b.Dividends, &b.Splits); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestClose returns, per symbol, the most recent close within the window.
func (e *Engine) LatestClose(symbols []string, begin, end string) ([]model.ClosePrice, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	var where []string
	var args []interface{}

	where = append(where, symbolFilter(symbols, &args))
	if begin != "" {
		where = append(where, "Date >= ?")
		args = append(args, begin)
	}
	if end != "" {
		where = append(where, "Date < ?")
		args = append(args, end)
	}

	// SQLite resolves the bare Close column to the row that produced
	// max(Date) within each group.
	q := `SELECT Symbol, max(Date), Close FROM history
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY Symbol ORDER BY Symbol`

	rows, err := e.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest close: %w", err)
	}
	defer rows.Close()

	var out []model.ClosePrice
	for rows.Next() {
		var c model.ClosePrice
		if err := rows.Scan(&c.Symbol, &c.CloseDate, &c.ClosePrice); err != nil {
			return nil, fmt.Errorf("scan latest close: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Splits returns all split events for the symbol set, most recent first per
// symbol, each carrying the running cumulative product of ratios: the total
// factor to restate prices recorded before that date.
func (e *Engine) Splits(symbols []string) ([]model.SplitRow, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	var args []interface{}
	q := `SELECT Date, Symbol, Splits FROM history
		WHERE ` + symbolFilter(symbols, &args) + ` AND Splits != 0
		ORDER BY Symbol, Date DESC`

	rows, err := e.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer rows.Close()

	var out []model.SplitRow
	for rows.Next() {
		var r model.SplitRow
		if err := rows.Scan(&r.Date, &r.Symbol, &r.Splits); err != nil {
			return nil, fmt.Errorf("scan split row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cumulateSplits(out)
	return out, nil
}

// DividendYield computes trailing dividend yield per symbol over the last
// lookbackMonths months. Symbols with no rows in the window are omitted.
func (e *Engine) DividendYield(symbols []string, lookbackMonths int) ([]model.YieldRow, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if lookbackMonths <= 0 {
		lookbackMonths = 12
	}

	begin := e.Now().AddDate(0, -lookbackMonths, 0).Format(model.DateFormat)
	bars, err := e.History(symbols, HistoryOptions{Begin: begin})
	if err != nil {
		return nil, err
	}
	return summarizeYield(bars), nil
}

// Performance reports first-to-last close change per symbol within the
// window. Symbols with fewer than two distinct dates in the window are
// excluded. An empty symbol filter means every symbol present in the window.
func (e *Engine) Performance(symbols []string, begin, end string) ([]model.PerformanceRow, error) {
	var where []string
	var args []interface{}

	if len(symbols) > 0 {
		where = append(where, symbolFilter(symbols, &args))
	}
	if begin != "" {
		where = append(where, "Date >= ?")
		args = append(args, begin)
	}
	if end != "" {
		where = append(where, "Date < ?")
		args = append(args, end)
	}

	clause := "1=1"
	if len(where) > 0 {
		clause = strings.Join(where, " AND ")
	}

	// The window clause appears in both CTEs, so the argument list doubles.
	q := fmt.Sprintf(`
		WITH FirstPrices AS (
			SELECT Symbol, min(Date) AS StartDate, Close AS StartPrice
			FROM history WHERE %s GROUP BY Symbol
		),
		LastPrices AS (
			SELECT Symbol, max(Date) AS EndDate, Close AS EndPrice
			FROM history WHERE %s GROUP BY Symbol
		)
		SELECT f.Symbol, f.StartDate, f.StartPrice, l.EndDate, l.EndPrice
		FROM FirstPrices f
		JOIN LastPrices l ON f.Symbol = l.Symbol
		WHERE f.StartDate < l.EndDate
		ORDER BY f.Symbol`, clause, clause)

	rows, err := e.db.Query(q, append(args, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query performance: %w", err)
	}
	defer rows.Close()

	var out []model.PerformanceRow
	for rows.Next() {
		var p model.PerformanceRow
		if err := rows.Scan(&p.Symbol, &p.StartDate, &p.StartPrice, &p.EndDate, &p.EndPrice); err != nil {
			return nil, fmt.Errorf("scan performance row: %w", err)
		}
		p.Change = model.Round2(p.EndPrice - p.StartPrice)
		if p.StartPrice != 0 {
			p.ChangePercent = model.Round2(100 * (p.EndPrice - p.StartPrice) / p.StartPrice)
		}
		p.StartPrice = model.Round2(p.StartPrice)
		p.EndPrice = model.Round2(p.EndPrice)
		out = append(out, p)
	}
	return out, rows.Err()
}

// symbolFilter returns a parameterized IN clause and appends its arguments.
func symbolFilter(symbols []string, args *[]interface{}) string {
	placeholders := make([]string, len(symbols))
	for i, s := range symbols {
		placeholders[i] = "?"
		*args = append(*args, s)
	}
	return "Symbol IN (" + strings.Join(placeholders, ",") + ")"
}
