package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockwatch-backend/models"
)

// ErrAlertNotFound is returned when an alert does not exist or belongs to another user
var ErrAlertNotFound = errors.New("alert not found")

// AlertStore persists alerts and their trigger history in MongoDB
type AlertStore struct {
	alerts  *mongo.Collection
	history *mongo.Collection
}

// NewAlertStore creates an alert store on the given database
func NewAlertStore(db *mongo.Database) *AlertStore {
	return &AlertStore{
		alerts:  db.Collection(MongoAlertsCollection),
		history: db.Collection(MongoAlertHistoryCollection),
	}
}

// FindUntriggered returns a snapshot of all alerts that have not fired yet.
// Alerts inserted while a cycle is running are picked up next cycle.
func (s *AlertStore) FindUntriggered(ctx context.Context) ([]models.Alert, error) {
	cursor, err := s.alerts.Find(ctx, bson.M{"triggered": false})
	if err != nil {
		return nil, fmt.Errorf("failed to query untriggered alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}
	return alerts, nil
}

// InsertTriggerRecord writes an immutable history record for a fired alert.
// History is unique per alert_id; a concurrent cycle that already recorded
// this alert's trigger is treated as success so the caller proceeds to the
// conditional mark, which decides the single winner.
func (s *AlertStore) InsertTriggerRecord(ctx context.Context, record models.AlertTrigger) error {
	if _, err := s.history.InsertOne(ctx, record); ignoreDuplicateKey(err) != nil {
		return fmt.Errorf("failed to insert trigger record: %w", err)
	}
	return nil
}

// ignoreDuplicateKey maps a duplicate-key write error to nil
func ignoreDuplicateKey(err error) error {
	if err == nil || mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// MarkTriggered flips triggered:false -> true for the alert. The update is
// conditional on the alert still being untriggered, so overlapping evaluation
// cycles cannot perform the transition twice. Returns true iff this call
// performed the transition.
func (s *AlertStore) MarkTriggered(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	result, err := s.alerts.UpdateOne(ctx,
		bson.M{"_id": id, "triggered": false},
		bson.M{"$set": bson.M{"triggered": true, "triggered_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// FindByEmail returns all alerts owned by the user, newest first
func (s *AlertStore) FindByEmail(ctx context.Context, email string) ([]models.Alert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.alerts.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for %s: %w", email, err)
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}
	return alerts, nil
}

// Create inserts a new alert
func (s *AlertStore) Create(ctx context.Context, alert *models.Alert) error {
	result, err := s.alerts.InsertOne(ctx, alert)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		alert.ID = oid
	}
	return nil
}

// Delete removes an alert owned by the user
func (s *AlertStore) Delete(ctx context.Context, id primitive.ObjectID, email string) error {
	result, err := s.alerts.DeleteOne(ctx, bson.M{"_id": id, "email": email})
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// History returns the user's most recent trigger records, newest first
func (s *AlertStore) History(ctx context.Context, email string, limit int64) ([]models.AlertTrigger, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "triggered_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.history.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history for %s: %w", email, err)
	}
	defer cursor.Close(ctx)

	var records []models.AlertTrigger
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode alert history: %w", err)
	}
	return records, nil
}

// DeleteTriggeredBefore removes triggered alerts older than the cutoff
func (s *AlertStore) DeleteTriggeredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.alerts.DeleteMany(ctx, bson.M{
		"triggered":    true,
		"triggered_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clean up triggered alerts: %w", err)
	}
	return result.DeletedCount, nil
}
