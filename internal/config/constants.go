// Package config provides configuration and shared constants for the telemetry system.
package config

import "time"

const (
	// CounterTTL is the expiry applied to every rolling counter from its last write.
	CounterTTL = 24 * time.Hour

	// TopCountries bounds the country ranking in the snapshot.
	TopCountries = 10

	// FlatHistorySpan is how far back the synthesized history starts.
	FlatHistorySpan = 30 * 24 * time.Hour
)

// Rolling counter keys.
const (
	KeyRequests   = "stats:requests_24h"
	KeyBandwidth  = "stats:bandwidth_24h"
	KeyDBWrites   = "stats:db_writes_24h"
	KeyDBReads    = "stats:db_reads_24h"
	KeyUniques    = "stats:uniques_24h"
	KeyCacheHits  = "stats:cache_hits"
	KeyCacheTotal = "stats:cache_total"

	// CountryPrefix namespaces the per-country counters: stats:country:<CC>.
	CountryPrefix = "stats:country:"

	// VisitorPrefix namespaces the unique-visitor markers: visitor:<ip>.
	VisitorPrefix = "visitor:"
)

// Consolidated and market keys.
const (
	KeySnapshot    = "dashboard:snapshot"
	KeyMarketData  = "market:data"
	KeyMarketFull  = "market:last_full_sync"
	KeyMarketPrice = "market:price_usd"
)
