package model

// Derived views computed by the query engine. None of these are persisted;
// they are recomputed from the stored PriceBar set on every call.

// ClosePrice is the latest close for a symbol within a window.
type ClosePrice struct {
	Symbol     string
	CloseDate  string
	ClosePrice float64
}

// SplitRow is one split event with the running cumulative ratio product for
// its symbol, most recent split first. CumSplits is the total factor to apply
// to prices recorded before Date.
type SplitRow struct {
	Date      string
	Symbol    string
	Splits    float64
	CumSplits float64
}

// YieldRow summarizes trailing dividend yield for one symbol.
type YieldRow struct {
	Symbol    string
	Date      string  // most recent trading day in the window
	Close     float64 // close on that day
	Dividends float64 // sum of dividends over the window
	Last      float64 // most recent nonzero payment
	Count     int     // number of nonzero-dividend days
	Yield     float64 // 100 * Dividends / Close, rounded to 2
}

// ResampledPoint is the last close observed in one calendar period.
type ResampledPoint struct {
	Symbol string
	Period string // "2024-03" for monthly, "2024-W12" for weekly
	Date   string // date of the observation taken
	Close  float64
}

// PerformanceRow is the price change for one symbol over a window.
type PerformanceRow struct {
	Symbol        string
	StartDate     string
	StartPrice    float64
	EndDate       string
	EndPrice      float64
	Change        float64
	ChangePercent float64
}
