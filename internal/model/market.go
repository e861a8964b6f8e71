package models

import "time"

// RefreshMode selects how much market data a refresh fetches.
type RefreshMode string

const (
	// RefreshFull fetches price, change, liquidity, market cap and history.
	RefreshFull RefreshMode = "full"

	// RefreshPartial fetches price and 24h change only.
	RefreshPartial RefreshMode = "partial"
)

// HistoryPoint is one daily candle reduced to its close price.
type HistoryPoint struct {
	// Timestamp is the candle open time in unix seconds
	Timestamp  int64   `json:"timestamp"`
	ClosePrice float64 `json:"closePrice"`
}

// Quote is the current market state returned by an upstream provider.
type Quote struct {
	Price     float64
	Change24h float64
	Liquidity float64
	MarketCap float64

	// Source names the provider that produced the quote
	Source string
}

// MarketCacheRecord is the single cached market-data record of the deployment.
type MarketCacheRecord struct {
	Price       float64        `json:"price"`
	Change24h   float64        `json:"change24h"`
	Liquidity   float64        `json:"liquidity"`
	MarketCap   float64        `json:"marketCap"`
	History     []HistoryPoint `json:"history"`
	LastUpdated time.Time      `json:"lastUpdated"`

	// Source names the provider that served the last refresh
	Source string `json:"source,omitempty"`
}
