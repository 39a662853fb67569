package refresh

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockVault/internal/archive"
	"StockVault/internal/fetcher"
	"StockVault/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testPlanner(t *testing.T, mock *fetcher.MockFetcher, defaults []string) (*Planner, *archive.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := archive.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	p := New(store, mock, filepath.Join(dir, "updates.csv"), defaults)
	p.Now = func() time.Time { return date(2024, time.June, 14) } // a Friday
	return p, store
}

func mockBar(d time.Time, close float64) model.Bar {
	return model.Bar{Date: d, Open: close, High: close, Low: close, Close: close, Volume: 1000}
}

func TestPlanResumesAfterEpochForNewSymbols(t *testing.T) {
	p, _ := testPlanner(t, &fetcher.MockFetcher{}, nil)

	targets, err := p.Plan([]string{"AAA"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(targets))
	}
	want := date(2015, time.January, 1) // trading day after the epoch sentinel
	if !targets[0].ResumeDate.Equal(want) {
		t.Errorf("resume = %s, want %s", targets[0].ResumeDate, want)
	}
}

func TestPlanResumesAfterLastStoredDay(t *testing.T) {
	p, store := testPlanner(t, &fetcher.MockFetcher{}, nil)

	// Last stored day is a Friday; resume must skip the weekend.
	if _, err := store.BulkUpsert([]model.PriceBar{{Symbol: "AAA", Date: "2024-06-07", Close: 1}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	targets, err := p.Plan([]string{"AAA"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(targets))
	}
	if want := date(2024, time.June, 10); !targets[0].ResumeDate.Equal(want) {
		t.Errorf("resume = %s, want %s", targets[0].ResumeDate, want)
	}
}

func TestPlanSkipsCurrentSymbols(t *testing.T) {
	p, store := testPlanner(t, &fetcher.MockFetcher{}, nil)

	// Synced through "today"; the next trading day is in the future.
	if _, err := store.BulkUpsert([]model.PriceBar{{Symbol: "AAA", Date: "2024-06-14", Close: 1}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	targets, err := p.Plan([]string{"AAA"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("targets = %v, want none", targets)
	}

	res, err := p.Run([]string{"AAA"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.UpToDate {
		t.Error("expected UpToDate result")
	}
}

func TestPlanUsesDefaultSymbols(t *testing.T) {
	p, _ := testPlanner(t, &fetcher.MockFetcher{}, []string{"DEF1", "DEF2"})

	targets, err := p.Plan(nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %d, want 2 (defaults)", len(targets))
	}
	if targets[0].Symbol != "DEF1" || targets[1].Symbol != "DEF2" {
		t.Errorf("targets = %+v", targets)
	}
}

func TestRunCommitsAndIsIdempotent(t *testing.T) {
	mock := &fetcher.MockFetcher{Bars: map[string][]model.Bar{
		"AAA": {
			mockBar(date(2024, time.June, 12), 100.456),
			mockBar(date(2024, time.June, 13), 101),
		},
	}}
	p, store := testPlanner(t, mock, nil)

	res, err := p.Run([]string{"AAA"})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res.Inserted != 2 {
		t.Errorf("inserted = %d, want 2", res.Inserted)
	}

	// Rounding applied at ingest.
	closes, qerr := storeCloses(store, "AAA")
	if qerr != nil {
		t.Fatalf("read back: %v", qerr)
	}
	if closes["2024-06-12"] != 100.46 {
		t.Errorf("Close = %v, want 100.46", closes["2024-06-12"])
	}

	// Second pass re-fetches the overlap but changes nothing.
	res2, err := p.Run([]string{"AAA"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res2.Inserted != 0 {
		t.Errorf("second run inserted = %d, want 0", res2.Inserted)
	}
	count, err := store.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("row count = %d, want 2", count)
	}
}

func TestRunIsolatesPerSymbolFailures(t *testing.T) {
	mock := &fetcher.MockFetcher{
		Bars: map[string][]model.Bar{
			"GOOD": {mockBar(date(2024, time.June, 13), 50)},
		},
		Errs: map[string]error{
			"BAD": errors.New("upstream exploded"),
		},
	}
	p, store := testPlanner(t, mock, nil)

	res, err := p.Run([]string{"BAD", "GOOD"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Failures["BAD"] == nil {
		t.Error("expected recorded failure for BAD")
	}
	if res.Inserted != 1 {
		t.Errorf("inserted = %d, want 1 (GOOD committed despite BAD)", res.Inserted)
	}

	closes, err := storeCloses(store, "GOOD")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if closes["2024-06-13"] != 50 {
		t.Errorf("GOOD row missing after partial failure: %v", closes)
	}
}

func TestRunAppliesCorrectionsBeforeCommit(t *testing.T) {
	mock := &fetcher.MockFetcher{Bars: map[string][]model.Bar{
		"ABC": {mockBar(date(2024, time.January, 2), 11)},
	}}
	p, store := testPlanner(t, mock, nil)

	csv := "Date,Symbol,Open,High,Low,Close,Volume,Dividends,Splits\n" +
		"2024-01-02,ABC,,,,123.45,,,\n"
	if err := os.WriteFile(p.CorrectionsPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write corrections: %v", err)
	}

	res, err := p.Run([]string{"ABC"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Patched != 1 {
		t.Errorf("patched = %d, want 1", res.Patched)
	}

	closes, err := storeCloses(store, "ABC")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if closes["2024-01-02"] != 123.45 {
		t.Errorf("stored Close = %v, want corrected 123.45", closes["2024-01-02"])
	}
}

func TestRunReportsSplitsSortedByDate(t *testing.T) {
	mock := &fetcher.MockFetcher{Bars: map[string][]model.Bar{
		"XYZ": {
			{Date: date(2024, time.March, 1), Close: 10, SplitRatio: 3},
			{Date: date(2024, time.January, 2), Close: 30, SplitRatio: 2},
			{Date: date(2024, time.February, 1), Close: 20},
		},
	}}
	p, _ := testPlanner(t, mock, nil)

	res, err := p.Run([]string{"XYZ"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Splits) != 2 {
		t.Fatalf("splits = %d, want 2", len(res.Splits))
	}
	if res.Splits[0].Date != "2024-01-02" || res.Splits[0].Ratio != 2 {
		t.Errorf("first split = %+v, want 2024-01-02 ratio 2", res.Splits[0])
	}
	if res.Splits[1].Date != "2024-03-01" || res.Splits[1].Ratio != 3 {
		t.Errorf("second split = %+v, want 2024-03-01 ratio 3", res.Splits[1])
	}
}

func storeCloses(store *archive.Store, symbol string) (map[string]float64, error) {
	rows, err := store.DB().Query(`SELECT Date, Close FROM history WHERE Symbol = ?`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var d string
		var c float64
		if err := rows.Scan(&d, &c); err != nil {
			return nil, err
		}
		out[d] = c
	}
	return out, rows.Err()
}
