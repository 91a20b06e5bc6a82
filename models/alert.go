package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert condition constants
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)

// Alert represents a user-defined price alert.
// Once Triggered is true the record is never re-armed or re-evaluated.
type Alert struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email       string             `bson:"email" json:"email"`
	Symbol      string             `bson:"symbol" json:"symbol"`
	TargetPrice float64            `bson:"target_price" json:"target_price"`
	Condition   string             `bson:"condition" json:"condition"`
	Triggered   bool               `bson:"triggered" json:"triggered"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	TriggeredAt *time.Time         `bson:"triggered_at,omitempty" json:"triggered_at,omitempty"`
}

// AlertTrigger is the immutable history record written when an alert fires
type AlertTrigger struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	AlertID     primitive.ObjectID `bson:"alert_id" json:"-"`
	Email       string             `bson:"email" json:"email"`
	Symbol      string             `bson:"symbol" json:"symbol"`
	TargetPrice float64            `bson:"target_price" json:"target_price"`
	ActualPrice float64            `bson:"actual_price" json:"actual_price"`
	Condition   string             `bson:"condition" json:"condition"`
	TriggeredAt time.Time          `bson:"triggered_at" json:"triggered_at"`
}

// ValidConditions returns the supported alert conditions
func ValidConditions() []string {
	return []string{ConditionAbove, ConditionBelow}
}

// IsValidCondition checks if the condition is supported
func IsValidCondition(condition string) bool {
	for _, valid := range ValidConditions() {
		if condition == valid {
			return true
		}
	}
	return false
}

// ShouldTrigger evaluates the alert condition against a fetched price.
// A price exactly equal to the target triggers for both conditions.
func (a *Alert) ShouldTrigger(price float64) bool {
	current := decimal.NewFromFloat(price)
	target := decimal.NewFromFloat(a.TargetPrice)

	switch a.Condition {
	case ConditionAbove:
		return current.GreaterThanOrEqual(target)
	case ConditionBelow:
		return current.LessThanOrEqual(target)
	}
	return false
}
