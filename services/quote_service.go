package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockwatch-backend/models"
)

// ErrQuoteUnavailable covers every way the provider can fail to deliver a
// usable price: network errors, timeouts, non-200 responses, malformed
// bodies, or a missing/invalid price field. Callers decide retry policy.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// ErrSearchLimited is returned when the provider reports its call budget
// is exhausted for symbol search
var ErrSearchLimited = errors.New("search rate limited by provider")

// QuoteFetcher fetches a current price sample for a symbol
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (models.PriceSample, error)
}

// SymbolMatch is one result of a provider symbol search
type SymbolMatch struct {
	Symbol      string `json:"1. symbol"`
	Name        string `json:"2. name"`
	Type        string `json:"3. type"`
	Region      string `json:"4. region"`
	MarketOpen  string `json:"5. marketOpen"`
	MarketClose string `json:"6. marketClose"`
	Timezone    string `json:"7. timezone"`
	Currency    string `json:"8. currency"`
	MatchScore  string `json:"9. matchScore"`
}

// QuoteService fetches prices from an Alpha Vantage compatible provider.
// It applies a bounded timeout and does no retries or caching.
type QuoteService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewQuoteService creates a quote service for the given provider
func NewQuoteService(baseURL, apiKey string, timeout time.Duration) *QuoteService {
	return &QuoteService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// globalQuoteResponse is the provider GLOBAL_QUOTE response shape
type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// FetchQuote returns the current price for a symbol, or ErrQuoteUnavailable
func (s *QuoteService) FetchQuote(ctx context.Context, symbol string) (models.PriceSample, error) {
	var sample models.PriceSample

	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		s.baseURL, url.QueryEscape(symbol), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return sample, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return sample, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sample, fmt.Errorf("%w: provider returned status %d", ErrQuoteUnavailable, resp.StatusCode)
	}

	var body globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return sample, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	raw, ok := body.GlobalQuote["05. price"]
	if !ok || raw == "" {
		return sample, fmt.Errorf("%w: no price for %s", ErrQuoteUnavailable, symbol)
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return sample, fmt.Errorf("%w: invalid price %q for %s", ErrQuoteUnavailable, raw, symbol)
	}

	sample = models.PriceSample{
		Symbol:    symbol,
		Price:     price,
		FetchedAt: time.Now(),
	}
	return sample, nil
}

// symbolSearchResponse is the provider SYMBOL_SEARCH response shape
type symbolSearchResponse struct {
	BestMatches []SymbolMatch `json:"bestMatches"`
	Note        string        `json:"Note"`
}

// SearchSymbols queries the provider symbol search endpoint
func (s *QuoteService) SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error) {
	endpoint := fmt.Sprintf("%s/query?function=SYMBOL_SEARCH&keywords=%s&apikey=%s",
		s.baseURL, url.QueryEscape(query), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("symbol search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("symbol search returned status %d", resp.StatusCode)
	}

	var body symbolSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if strings.Contains(body.Note, "API call frequency") {
		return nil, ErrSearchLimited
	}
	if body.BestMatches == nil {
		return nil, fmt.Errorf("symbol search response missing matches")
	}

	return body.BestMatches, nil
}
