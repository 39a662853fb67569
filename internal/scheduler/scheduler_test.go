package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"StockVault/internal/archive"
	"StockVault/internal/fetcher"
	"StockVault/internal/model"
	"StockVault/internal/refresh"
)

func testScheduler(t *testing.T) (*Scheduler, *archive.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := archive.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mock := &fetcher.MockFetcher{Bars: map[string][]model.Bar{
		"AAA": {{Date: time.Date(2024, time.June, 13, 0, 0, 0, 0, time.UTC), Close: 10}},
	}}
	planner := refresh.New(store, mock, filepath.Join(dir, "updates.csv"), nil)
	planner.Now = func() time.Time { return time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC) }

	return NewScheduler(context.Background(), planner), store
}

func TestRegisterRefreshRejectsBadSpec(t *testing.T) {
	s, _ := testScheduler(t)
	if err := s.RegisterRefresh("not a cron spec", nil); err == nil {
		t.Error("expected error for invalid cron spec")
	}
	if err := s.RegisterRefresh("0 0 19 * * 1-5", nil); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
}

func TestRunNowExecutesPass(t *testing.T) {
	s, store := testScheduler(t)

	s.RunNow([]string{"AAA"})

	count, err := store.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestRefreshTaskHonorsCancelledContext(t *testing.T) {
	s, store := testScheduler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Ctx = ctx

	s.RunNow([]string{"AAA"})

	count, err := store.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("row count = %d, want 0 after cancel", count)
	}
}
