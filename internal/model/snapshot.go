package models

import "time"

// DBStats aggregates database activity over the rolling window.
type DBStats struct {
	Queries   int64 `json:"queries"`
	Mutations int64 `json:"mutations"`
}

// CountryStat is one entry of the top-countries ranking.
type CountryStat struct {
	Code    string `json:"code"`
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// Snapshot is the consolidated, periodically recomputed metrics record served to dashboards.
//
// It is produced wholesale by the consolidator and always written as a single value.
type Snapshot struct {
	NetworkRequests int64         `json:"networkRequests"`
	ProcessedData   int64         `json:"processedData"`
	GlobalUsers     int64         `json:"globalUsers"`
	CacheRatio      string        `json:"cacheRatio"`
	DBStats         DBStats       `json:"dbStats"`
	Countries       []CountryStat `json:"countries"`
	GeneratedAt     time.Time     `json:"generatedAt"`
}

// MarketView is the display form of the cached market record.
type MarketView struct {
	// Price is always formatted with 4 decimals
	Price     string         `json:"price"`
	Change24h float64        `json:"change24h"`
	Liquidity float64        `json:"liquidity"`
	MarketCap float64        `json:"marketCap"`
	History   []HistoryPoint `json:"history"`
}

// DashboardMetrics is what the dashboard and the stats endpoint render.
type DashboardMetrics struct {
	NetworkRequests int64         `json:"networkRequests"`
	ProcessedData   int64         `json:"processedData"`
	GlobalUsers     int64         `json:"globalUsers"`
	CacheRatio      string        `json:"cacheRatio"`
	DBStats         DBStats       `json:"dbStats"`
	Market          MarketView    `json:"market"`
	Countries       []CountryStat `json:"countries"`
}

const (
	// ZeroCacheRatio is the cache ratio shown when nothing was recorded.
	ZeroCacheRatio = "0.0%"

	// ZeroPrice is the price shown when no market data is cached.
	ZeroPrice = "0.0000"
)

// EmptyMarketView returns the market defaults.
func EmptyMarketView() MarketView {
	return MarketView{
		Price:   ZeroPrice,
		History: []HistoryPoint{},
	}
}

// EmptyDashboardMetrics returns the all-zero metrics rendered when nothing is cached.
func EmptyDashboardMetrics() DashboardMetrics {
	return DashboardMetrics{
		CacheRatio: ZeroCacheRatio,
		Market:     EmptyMarketView(),
		Countries:  []CountryStat{},
	}
}
