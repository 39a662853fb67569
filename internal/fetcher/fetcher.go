// Package fetcher talks to the upstream market-data provider. The sync
// planner only sees the Fetcher interface; the Yahoo implementation and the
// test mock live here.
package fetcher

import (
	"time"

	"StockVault/internal/model"
)

// Fetcher retrieves daily bars for a symbol starting at a given date.
type Fetcher interface {
	// FetchHistory returns all daily bars for symbol from start (inclusive)
	// to the present, oldest first. It may return zero bars.
	FetchHistory(symbol string, start time.Time) ([]model.Bar, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars map[string][]model.Bar
	Errs map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(symbol string, start time.Time) ([]model.Bar, error) {
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	var out []model.Bar
	for _, b := range m.Bars[symbol] {
		if b.Date.Before(start) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
