// Package scheduler drives the background jobs of the stockwatch backend:
// the periodic alert evaluation cycle and weekly cleanup of stale
// triggered alerts.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"stockwatch-backend/services"
)

// cycleTimeout bounds one evaluation cycle so a stalled provider cannot
// pile up overlapping cycles indefinitely
const cycleTimeout = 5 * time.Minute

// triggeredRetention is how long triggered alerts are kept before cleanup
const triggeredRetention = 30 * 24 * time.Hour

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron          *gocron.Scheduler
	evaluator     *services.AlertEvaluator
	alerts        *services.AlertStore
	checkInterval time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(evaluator *services.AlertEvaluator, alerts *services.AlertStore, checkInterval time.Duration) *Scheduler {
	return &Scheduler{
		cron:          gocron.NewScheduler(time.UTC),
		evaluator:     evaluator,
		alerts:        alerts,
		checkInterval: checkInterval,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Evaluate outstanding alerts on a fixed interval. Errors are logged
	// only; the job always runs again next interval.
	s.cron.Every(s.checkInterval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		if err := s.evaluator.RunCycle(ctx); err != nil {
			log.Printf("Alert check error: %v", err)
		}
	})

	// Cleanup old triggered alerts weekly on Sunday at 01:00
	s.cron.Every(1).Week().Sunday().At("01:00").Do(func() {
		s.cleanupTriggeredAlerts()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// cleanupTriggeredAlerts removes triggered alerts past their retention.
// Their history records are kept.
func (s *Scheduler) cleanupTriggeredAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-triggeredRetention)
	deleted, err := s.alerts.DeleteTriggeredBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Error cleaning up old alerts: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Cleaned up %d triggered alerts older than 30 days", deleted)
	}
}
