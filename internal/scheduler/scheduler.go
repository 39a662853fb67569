// Package scheduler runs periodic refresh passes in watch mode.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"StockVault/internal/refresh"
)

// Scheduler triggers sync passes on a cron schedule.
type Scheduler struct {
	Cron    *cron.Cron
	Planner *refresh.Planner
	Ctx     context.Context
}

// NewScheduler creates a Scheduler for the given planner.
func NewScheduler(ctx context.Context, planner *refresh.Planner) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Planner: planner,
		Ctx:     ctx,
	}
}

// RegisterRefresh registers the periodic refresh task.
func (s *Scheduler) RegisterRefresh(spec string, symbols []string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.refreshTask(symbols) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a refresh pass immediately (for manual trigger / startup).
func (s *Scheduler) RunNow(symbols []string) {
	s.refreshTask(symbols)
}

func (s *Scheduler) refreshTask(symbols []string) {
	select {
	case <-s.Ctx.Done():
		return
	default:
	}

	log.Println("[INFO] running scheduled refresh")
	res, err := s.Planner.Run(symbols)
	if err != nil {
		log.Printf("[ERROR] scheduled refresh: %v", err)
		return
	}
	if res.UpToDate {
		return
	}
	for symbol, err := range res.Failures {
		log.Printf("[WARN] refresh %s: %v", symbol, err)
	}
	for _, sp := range res.Splits {
		log.Printf("[WARN] split detected: %s %s ratio %.2f", sp.Date, sp.Symbol, sp.Ratio)
	}
}
