package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockMatchesPartialKey(t *testing.T) {
	results := mockMatches("hdfc")
	assert.Len(t, results, 2)
	assert.Equal(t, "HDFCBANK.BSE", results[0].Symbol)

	// A prefix of a canned key also matches, as the fallback is fuzzy
	assert.NotEmpty(t, mockMatches("tat"))
	assert.Empty(t, mockMatches("zzzz"))
}

func TestConsumeCallBudget(t *testing.T) {
	sc := &StockController{}

	for i := 0; i < providerCallBudget; i++ {
		assert.True(t, sc.consumeCall(), "call %d should be within budget", i+1)
	}
	assert.False(t, sc.consumeCall(), "budget should be exhausted")

	// A new window resets the budget
	sc.mu.Lock()
	sc.windowStart = time.Now().Add(-2 * providerWindow)
	sc.mu.Unlock()
	assert.True(t, sc.consumeCall())
}
