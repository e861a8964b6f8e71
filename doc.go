// Package telemetry implements the telemetry and market-cache aggregation server of a DAO API.
//
// Every audited action is appended to a durable event log and, when successful, feeds a
// set of rolling 24h counters kept in a volatile key/value cache:
//   - requests, bandwidth, database reads and writes
//   - cache hits against cache lookups
//   - unique visitors, counted once per address per marker lifetime
//   - requests per country
//
// A periodic job refreshes the cached token market record from upstream price feeds,
// either fully (price, liquidity, market cap and 30 days of daily candles) or partially
// (price and 24h change merged into the existing record), and then consolidates the
// counters into a single dashboard snapshot.
//
// Features:
//   - REST API serving the dashboard, the consolidated metrics and a health report
//   - PostgreSQL or in-memory event log, Redis or in-memory counter cache
//   - Fire-and-forget recording drained on graceful shutdown
//   - Rate-limited, time-bounded upstream fetches with provider fallback
//   - Structured logging with optional file rotation
//
// The server supports configuration via command-line flags and environment variables.
package telemetry
