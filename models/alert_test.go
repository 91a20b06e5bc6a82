package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldTrigger(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		target    float64
		price     float64
		want      bool
	}{
		{"above met", ConditionAbove, 150.00, 151.00, true},
		{"above at exact target", ConditionAbove, 150.00, 150.00, true},
		{"above not met", ConditionAbove, 150.00, 149.99, false},
		{"below met", ConditionBelow, 200.00, 195.00, true},
		{"below at exact target", ConditionBelow, 200.00, 200.00, true},
		{"below not met", ConditionBelow, 200.00, 205.00, false},
		{"unknown condition never triggers", "sideways", 100.00, 100.00, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := Alert{Symbol: "TEST", TargetPrice: tt.target, Condition: tt.condition}
			assert.Equal(t, tt.want, alert.ShouldTrigger(tt.price))
		})
	}
}

func TestIsValidCondition(t *testing.T) {
	assert.True(t, IsValidCondition(ConditionAbove))
	assert.True(t, IsValidCondition(ConditionBelow))
	assert.False(t, IsValidCondition("between"))
	assert.False(t, IsValidCondition(""))
	assert.False(t, IsValidCondition("ABOVE"))
}
