package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuoteService(handler http.HandlerFunc) (*QuoteService, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewQuoteService(server.URL, "test-key", 2*time.Second), server
}

func TestFetchQuoteParsesPrice(t *testing.T) {
	service, server := newTestQuoteService(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "150.0000"}}`))
	})
	defer server.Close()

	sample, err := service.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", sample.Symbol)
	assert.Equal(t, 150.0, sample.Price)
	assert.False(t, sample.FetchedAt.IsZero())
}

func TestFetchQuoteNon200IsUnavailable(t *testing.T) {
	service, server := newTestQuoteService(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := service.FetchQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestFetchQuoteMissingPriceIsUnavailable(t *testing.T) {
	service, server := newTestQuoteService(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})
	defer server.Close()

	_, err := service.FetchQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestFetchQuoteMalformedBodyIsUnavailable(t *testing.T) {
	service, server := newTestQuoteService(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	defer server.Close()

	_, err := service.FetchQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestFetchQuoteInvalidPriceIsUnavailable(t *testing.T) {
	service, server := newTestQuoteService(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "n/a"}}`))
	})
	defer server.Close()

	_, err := service.FetchQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestFetchQuoteProviderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"Global Quote": {"05. price": "1.00"}}`))
	}))
	defer server.Close()

	service := NewQuoteService(server.URL, "test-key", 20*time.Millisecond)
	_, err := service.FetchQuote(context.Background(), "SLOW")
	require.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestSearchSymbolsReturnsMatches(t *testing.T) {
	service, server := newTestQuoteService(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SYMBOL_SEARCH", r.URL.Query().Get("function"))
		w.Write([]byte(`{"bestMatches": [{"1. symbol": "MSFT", "2. name": "Microsoft Corporation"}]}`))
	})
	defer server.Close()

	matches, err := service.SearchSymbols(context.Background(), "micro")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "MSFT", matches[0].Symbol)
	assert.Equal(t, "Microsoft Corporation", matches[0].Name)
}

func TestSearchSymbolsRateLimitNote(t *testing.T) {
	service, server := newTestQuoteService(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using our API! Our standard API call frequency is 5 calls per minute."}`))
	})
	defer server.Close()

	_, err := service.SearchSymbols(context.Background(), "micro")
	require.ErrorIs(t, err, ErrSearchLimited)
}
