package fetcher

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockVault/internal/model"
)

func chartJSON(ts1, ts2, divTS, splitTS int64) string {
	return fmt.Sprintf(`{"chart":{"result":[{
		"timestamp":[%d,%d],
		"events":{
			"dividends":{"%d":{"amount":0.25,"date":%d}},
			"splits":{"%d":{"date":%d,"numerator":2,"denominator":1}}
		},
		"indicators":{"quote":[{
			"open":[10.1,11.1],"high":[10.5,11.5],"low":[9.9,10.9],
			"close":[10.2,11.2],"volume":[1000,2000]
		}]}
	}],"error":null}}`, ts1, ts2, divTS, divTS, splitTS, splitTS)
}

func TestYahooFetchHistoryDecodesBarsAndEvents(t *testing.T) {
	day1 := time.Date(2024, time.June, 13, 14, 30, 0, 0, time.UTC)
	day2 := time.Date(2024, time.June, 14, 14, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAA" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("events") != "div|split" {
			t.Errorf("events param = %q", r.URL.Query().Get("events"))
		}
		fmt.Fprint(w, chartJSON(day1.Unix(), day2.Unix(), day1.Unix(), day2.Unix()))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	bars, err := f.FetchHistory("AAA", day1.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}

	if bars[0].Close != 10.2 || bars[0].Volume != 1000 {
		t.Errorf("bar 0 = %+v", bars[0])
	}
	if bars[0].Dividends != 0.25 {
		t.Errorf("bar 0 dividends = %v, want 0.25", bars[0].Dividends)
	}
	if bars[0].SplitRatio != 0 {
		t.Errorf("bar 0 split = %v, want 0", bars[0].SplitRatio)
	}
	if bars[1].SplitRatio != 2 {
		t.Errorf("bar 1 split = %v, want 2", bars[1].SplitRatio)
	}
}

func TestYahooFetchHistorySurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"no such symbol"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	if _, err := f.FetchHistory("NOPE", time.Now()); err == nil {
		t.Error("expected api error")
	}
}

func TestYahooFetchHistorySurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	if _, err := f.FetchHistory("AAA", time.Now()); err == nil {
		t.Error("expected status error")
	}
}

func TestMockFetcherFiltersByStart(t *testing.T) {
	d1 := time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, time.June, 13, 0, 0, 0, 0, time.UTC)
	mock := &MockFetcher{Bars: map[string][]model.Bar{
		"AAA": {{Date: d1, Close: 1}, {Date: d2, Close: 2}},
	}}

	bars, err := mock.FetchHistory("AAA", d2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 1 || !bars[0].Date.Equal(d2) {
		t.Errorf("bars = %+v, want only the %s bar", bars, d2.Format("2006-01-02"))
	}
}
