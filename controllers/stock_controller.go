package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"stockwatch-backend/services"
)

// providerCallbudget is the provider's free-tier search limit per window
const (
	providerCallBudget = 5
	providerWindow     = time.Minute
)

// StockController handles symbol search and quote lookups
type StockController struct {
	quotes *services.QuoteService

	mu          sync.Mutex
	windowStart time.Time
	callCount   int
}

// NewStockController creates a new stock controller
func NewStockController(quotes *services.QuoteService) *StockController {
	return &StockController{quotes: quotes}
}

// SearchStocks searches the provider for symbols matching a query,
// falling back to canned results when the provider is limited or down
// GET /api/stocks/search?query=
func (sc *StockController) SearchStocks(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Please enter a search query",
			"bestMatches": []services.SymbolMatch{},
		})
		return
	}

	if !sc.consumeCall() {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "API rate limit exceeded. Please wait before searching again",
			"bestMatches": mockMatches(query),
			"isMockData":  true,
		})
		return
	}

	matches, err := sc.quotes.SearchSymbols(c.Request.Context(), query)
	if err != nil {
		if !errors.Is(err, services.ErrSearchLimited) {
			log.Printf("Symbol search error: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{
			"bestMatches": mockMatches(query),
			"isMockData":  true,
			"notice":      "Showing mock data as API is unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bestMatches": matches,
		"isMockData":  false,
	})
}

// GetQuote returns the current price for a symbol
// GET /api/stocks/:symbol/quote
func (sc *StockController) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol required"})
		return
	}

	sample, err := sc.quotes.FetchQuote(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Quote unavailable"})
		return
	}

	c.JSON(http.StatusOK, sample)
}

// consumeCall tracks provider calls against the free-tier budget
func (sc *StockController) consumeCall() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := time.Now()
	if now.Sub(sc.windowStart) >= providerWindow {
		sc.windowStart = now
		sc.callCount = 0
	}
	if sc.callCount >= providerCallBudget {
		return false
	}
	sc.callCount++
	return true
}

// mockMatches returns canned search results used when the provider is
// unavailable, matching on a prefix of the canned keys
func mockMatches(query string) []services.SymbolMatch {
	canned := map[string][]services.SymbolMatch{
		"hdfc": {
			{Symbol: "HDFCBANK.BSE", Name: "HDFC Bank Limited", Type: "Equity", Region: "India", MarketOpen: "09:15", MarketClose: "15:30", Timezone: "UTC+5.5", Currency: "INR", MatchScore: "0.8889"},
			{Symbol: "HDFC.NS", Name: "Housing Development Finance Corporation Limited", Type: "Equity", Region: "India", MarketOpen: "09:15", MarketClose: "15:30", Timezone: "UTC+5.5", Currency: "INR", MatchScore: "0.8571"},
		},
		"reliance": {
			{Symbol: "RELIANCE.BSE", Name: "Reliance Industries Limited", Type: "Equity", Region: "India", MarketOpen: "09:15", MarketClose: "15:30", Timezone: "UTC+5.5", Currency: "INR", MatchScore: "0.9231"},
		},
		"tata": {
			{Symbol: "TATAMOTORS.BSE", Name: "Tata Motors Limited", Type: "Equity", Region: "India", MarketOpen: "09:15", MarketClose: "15:30", Timezone: "UTC+5.5", Currency: "INR", MatchScore: "0.8571"},
		},
	}

	var results []services.SymbolMatch
	for key, matches := range canned {
		if strings.Contains(key, query) {
			results = append(results, matches...)
		}
	}
	if results == nil {
		results = []services.SymbolMatch{}
	}
	return results
}
