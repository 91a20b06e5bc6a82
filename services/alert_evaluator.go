package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stockwatch-backend/models"
)

// AlertRepository is the slice of the alert store the evaluator needs
type AlertRepository interface {
	FindUntriggered(ctx context.Context) ([]models.Alert, error)
	InsertTriggerRecord(ctx context.Context, record models.AlertTrigger) error
	MarkTriggered(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
}

// AlertEvaluator runs the periodic alert-checking cycle: load untriggered
// alerts, fetch prices, evaluate conditions, record triggers and notify
// owners. One cycle is a single RunCycle call; the scheduler drives the
// cadence.
type AlertEvaluator struct {
	store    AlertRepository
	quotes   QuoteFetcher
	notifier Notifier
	now      func() time.Time
}

// NewAlertEvaluator creates an evaluator over the given collaborators
func NewAlertEvaluator(store AlertRepository, quotes QuoteFetcher, notifier Notifier) *AlertEvaluator {
	return &AlertEvaluator{
		store:    store,
		quotes:   quotes,
		notifier: notifier,
		now:      time.Now,
	}
}

// RunCycle evaluates every untriggered alert once. A failure for one
// symbol never aborts the rest of the batch; only a failure to load the
// alert set is returned, and the caller just waits for the next cycle.
func (e *AlertEvaluator) RunCycle(ctx context.Context) error {
	alerts, err := e.store.FindUntriggered(ctx)
	if err != nil {
		return fmt.Errorf("failed to load untriggered alerts: %w", err)
	}

	triggered := 0
	for _, alert := range alerts {
		if e.evaluateAlert(ctx, alert) {
			triggered++
		}
	}

	if triggered > 0 {
		log.Printf("Alert cycle complete: %d of %d alerts triggered", triggered, len(alerts))
	}
	return nil
}

// evaluateAlert checks a single alert and performs the trigger transition
// if its condition is met. Returns true iff this call triggered the alert.
func (e *AlertEvaluator) evaluateAlert(ctx context.Context, alert models.Alert) bool {
	sample, err := e.quotes.FetchQuote(ctx, alert.Symbol)
	if err != nil {
		// Transient; the alert is re-evaluated next cycle
		log.Printf("Price fetch failed for %s: %v", alert.Symbol, err)
		return false
	}

	if !alert.ShouldTrigger(sample.Price) {
		return false
	}

	now := e.now().UTC()
	record := models.AlertTrigger{
		AlertID:     alert.ID,
		Email:       alert.Email,
		Symbol:      alert.Symbol,
		TargetPrice: alert.TargetPrice,
		ActualPrice: sample.Price,
		Condition:   alert.Condition,
		TriggeredAt: now,
	}
	if err := e.store.InsertTriggerRecord(ctx, record); err != nil {
		// Leave the alert untriggered; the whole step is retried next cycle
		log.Printf("Failed to record trigger for alert %s: %v", alert.ID.Hex(), err)
		return false
	}

	performed, err := e.store.MarkTriggered(ctx, alert.ID, now)
	if err != nil {
		log.Printf("Failed to mark alert %s triggered: %v", alert.ID.Hex(), err)
		return false
	}
	if !performed {
		// A concurrent cycle already performed the transition
		return false
	}

	// Email is a best-effort side channel; the trigger above is authoritative
	if err := e.notifier.SendAlertEmail(alert.Email, alert.Symbol, sample.Price, alert.Condition); err != nil {
		log.Printf("Alert email to %s failed: %v", alert.Email, err)
	}

	log.Printf("Alert triggered: %s %s %.2f (target %.2f) for %s",
		alert.Symbol, alert.Condition, sample.Price, alert.TargetPrice, alert.Email)
	return true
}
