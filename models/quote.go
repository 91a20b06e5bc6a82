package models

import "time"

// PriceSample is a transient quote fetched from the provider.
// It is never persisted; consumers use it immediately.
type PriceSample struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"-"`
}

// StockUpdate is the payload pushed to live subscribers
type StockUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}
