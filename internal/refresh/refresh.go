// Package refresh plans and executes incremental sync passes: it works out
// which date range each symbol is missing, pulls it from the upstream
// provider, overlays manual corrections, and hands the batch to the archive.
package refresh

import (
	"fmt"
	"log"
	"sort"
	"time"

	"StockVault/internal/archive"
	"StockVault/internal/calendar"
	"StockVault/internal/corrections"
	"StockVault/internal/fetcher"
	"StockVault/internal/model"
)

// Epoch is the "never synced" sentinel: a symbol with no stored rows resumes
// from the trading day after this date.
var Epoch = time.Date(2014, time.December, 31, 0, 0, 0, 0, time.UTC)

// Planner orchestrates one sync pass across a set of symbols.
type Planner struct {
	Store           *archive.Store
	Fetcher         fetcher.Fetcher
	CorrectionsPath string
	Defaults        []string

	// Now is the pass clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// New creates a Planner with the standard clock.
func New(store *archive.Store, f fetcher.Fetcher, correctionsPath string, defaults []string) *Planner {
	return &Planner{
		Store:           store,
		Fetcher:         f,
		CorrectionsPath: correctionsPath,
		Defaults:        defaults,
		Now:             time.Now,
	}
}

// Result summarizes one sync pass.
type Result struct {
	Targets  []model.SyncTarget
	Fetched  int   // bars received from upstream
	Inserted int64 // rows newly committed to the archive
	Patched  int   // rows touched by the correction overlay
	Failures map[string]error
	Splits   []model.SplitEvent
	UpToDate bool // true when every symbol was already current
}

// Plan computes the resume date for each symbol and drops symbols that are
// already current. An empty symbol list resolves to the configured defaults.
func (p *Planner) Plan(symbols []string) ([]model.SyncTarget, error) {
	if len(symbols) == 0 {
		symbols = p.Defaults
	}
	today := dateOnly(p.Now())

	var targets []model.SyncTarget
	for _, symbol := range symbols {
		last, err := p.Store.MaxDate(symbol, "Date", Epoch)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", symbol, err)
		}
		resume := calendar.NextTradingDay(last)
		if resume.After(today) {
			continue
		}
		targets = append(targets, model.SyncTarget{Symbol: symbol, ResumeDate: resume})
	}
	return targets, nil
}

// Run executes a full sync pass. Per-symbol upstream failures are logged and
// recorded but never abort the pass; store failures do. Re-running a pass
// with no new upstream data is a no-op by the archive's dedup rule.
func (p *Planner) Run(symbols []string) (*Result, error) {
	targets, err := p.Plan(symbols)
	if err != nil {
		return nil, err
	}

	res := &Result{Targets: targets, Failures: make(map[string]error)}
	if len(targets) == 0 {
		log.Println("[INFO] nothing to do - all symbols are up to date")
		res.UpToDate = true
		return res, nil
	}

	var batch []model.PriceBar
	for _, target := range targets {
		log.Printf("[INFO] fetching %s from %s", target.Symbol, target.ResumeDate.Format(model.DateFormat))
		bars, err := p.Fetcher.FetchHistory(target.Symbol, target.ResumeDate)
		if err != nil {
			log.Printf("[WARN] failed to fetch %s: %v", target.Symbol, err)
			res.Failures[target.Symbol] = err
			continue
		}
		res.Fetched += len(bars)
		for _, bar := range bars {
			batch = append(batch, normalize(target.Symbol, bar))
		}
	}

	if len(batch) == 0 {
		return res, nil
	}

	table, err := corrections.Load(p.CorrectionsPath)
	if err != nil {
		return nil, fmt.Errorf("load corrections: %w", err)
	}
	res.Patched = table.Apply(batch)
	if res.Patched > 0 {
		log.Printf("[INFO] applied %d manual corrections", res.Patched)
	}

	inserted, err := p.Store.BulkUpsert(batch)
	if err != nil {
		return nil, fmt.Errorf("save batch: %w", err)
	}
	res.Inserted = inserted
	log.Printf("[INFO] saved %d new rows to archive", inserted)

	res.Splits = detectSplits(batch)
	return res, nil
}

// normalize converts an upstream bar to an archive row: prices rounded to
// two decimals, date stringified to the canonical layout.
func normalize(symbol string, bar model.Bar) model.PriceBar {
	return model.PriceBar{
		Symbol:    symbol,
		Date:      bar.Date.Format(model.DateFormat),
		Open:      model.Round2(bar.Open),
		High:      model.Round2(bar.High),
		Low:       model.Round2(bar.Low),
		Close:     model.Round2(bar.Close),
		Volume:    bar.Volume,
		Dividends: model.Round2(bar.Dividends),
		Splits:    model.Round2(bar.SplitRatio),
	}
}

// detectSplits extracts nonzero split events from a batch, sorted by date.
func detectSplits(batch []model.PriceBar) []model.SplitEvent {
	var events []model.SplitEvent
	for _, row := range batch {
		if row.Splits != 0 {
			events = append(events, model.SplitEvent{Date: row.Date, Symbol: row.Symbol, Ratio: row.Splits})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Symbol < events[j].Symbol
	})
	return events
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
