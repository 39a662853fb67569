package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical date layout used throughout the archive.
const DateFormat = "2006-01-02"

// PriceBar is one day's OHLCV plus dividend/split record for one symbol.
// Date is stored in the canonical DateFormat layout; ISO ordering makes
// lexical comparison equivalent to chronological comparison.
type PriceBar struct {
	Symbol    string
	Date      string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Dividends float64
	Splits    float64 // 0 means no split event; otherwise the split ratio
}

// Bar is a raw daily bar as returned by the upstream provider, before
// normalization into a PriceBar.
type Bar struct {
	Date       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	Dividends  float64
	SplitRatio float64
}

// SyncTarget is the per-symbol plan for one sync pass: fetch resumes at
// ResumeDate. Never persisted.
type SyncTarget struct {
	Symbol     string
	ResumeDate time.Time
}

// SplitEvent is one detected split, reported in the sync summary.
type SplitEvent struct {
	Date   string
	Symbol string
	Ratio  float64
}

// Round2 rounds a value to two decimal places, the precision applied to all
// price fields at ingest and to derived percentages.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
