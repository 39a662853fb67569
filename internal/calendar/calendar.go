// Package calendar provides the business-day arithmetic used by the sync
// planner. Weekends are skipped; holidays are deliberately not modeled, so a
// resume date may land on a closed market day and simply fetch nothing.
package calendar

import "time"

// NextTradingDay returns the next weekday after t. A result landing on
// Saturday advances to Monday, on Sunday to Monday.
func NextTradingDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	switch next.Weekday() {
	case time.Saturday:
		next = next.AddDate(0, 0, 2)
	case time.Sunday:
		next = next.AddDate(0, 0, 1)
	}
	return next
}
