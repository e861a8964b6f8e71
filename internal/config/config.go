package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

type ServerConfig struct {
	Address         string
	DatabaseDSN     string
	MigrationsPath  string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LogLevel        string
	LogFile         string
	ShutdownTimeout time.Duration

	// ConsolidateInterval is how often the snapshot is recomputed
	ConsolidateInterval time.Duration
	// MarketInterval is how often market data is refreshed
	MarketInterval time.Duration
	// FullRefreshInterval forces a full market refresh once exceeded
	FullRefreshInterval time.Duration

	UpstreamTimeout time.Duration
	UpstreamRPS     float64

	GeckoBaseURL string
	GeckoNetwork string
	GeckoPool    string

	MoralisBaseURL string
	MoralisAPIKey  string
	MoralisToken   string
	MoralisPair    string
	MoralisChain   string
}

// NewServerConfig builds the configuration from defaults, command-line flags and
// environment variables, in increasing order of precedence.
func NewServerConfig(args []string) (*ServerConfig, error) {
	config := &ServerConfig{
		Address:             "localhost:8080",
		MigrationsPath:      "file://./migrations",
		LogLevel:            "info",
		ShutdownTimeout:     10 * time.Second,
		ConsolidateInterval: 5 * time.Minute,
		MarketInterval:      5 * time.Minute,
		FullRefreshInterval: time.Hour,
		UpstreamTimeout:     10 * time.Second,
		UpstreamRPS:         2,
		GeckoBaseURL:        "https://api.geckoterminal.com/api/v2",
		GeckoNetwork:        "bsc",
		GeckoPool:           "0xf1961269d193f6511a1e24aac93fbca4e815e4ca",
		MoralisBaseURL:      "https://deep-index.moralis.io/api/v2.2",
		MoralisToken:        "0x0697AB2B003FD2Cbaea2dF1ef9b404E45bE59d4C",
		MoralisPair:         "0xf1961269D193f6511A1e24aaC93FBCA4E815e4Ca",
		MoralisChain:        "bsc",
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	address := fs.String("a", config.Address, "address")
	databaseDSN := fs.String("d", config.DatabaseDSN, "database dsn, in-memory event log when empty")
	migrationsPath := fs.String("m", config.MigrationsPath, "migrations source url")
	redisAddr := fs.String("r", config.RedisAddr, "redis address, in-memory cache when empty")
	redisPassword := fs.String("redis-password", config.RedisPassword, "redis password")
	redisDB := fs.Int("redis-db", config.RedisDB, "redis database")
	logLevel := fs.String("l", config.LogLevel, "log level")
	logFile := fs.String("log-file", config.LogFile, "log file, stdout when empty")
	consolidate := fs.Duration("consolidate-interval", config.ConsolidateInterval, "snapshot consolidation interval")
	market := fs.Duration("market-interval", config.MarketInterval, "market refresh interval")
	fullRefresh := fs.Duration("full-refresh-interval", config.FullRefreshInterval, "max age of a full market refresh")
	upstreamTimeout := fs.Duration("upstream-timeout", config.UpstreamTimeout, "upstream fetch timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envVars := map[string]*string{
		"ADDRESS":          address,
		"DATABASE_DSN":     databaseDSN,
		"MIGRATIONS_PATH":  migrationsPath,
		"REDIS_ADDR":       redisAddr,
		"REDIS_PASSWORD":   redisPassword,
		"LOG_LEVEL":        logLevel,
		"LOG_FILE":         logFile,
		"GECKO_BASE_URL":   &config.GeckoBaseURL,
		"GECKO_NETWORK":    &config.GeckoNetwork,
		"GECKO_POOL":       &config.GeckoPool,
		"MORALIS_BASE_URL": &config.MoralisBaseURL,
		"MORALIS_API_KEY":  &config.MoralisAPIKey,
		"MORALIS_TOKEN":    &config.MoralisToken,
		"MORALIS_PAIR":     &config.MoralisPair,
		"MORALIS_CHAIN":    &config.MoralisChain,
	}

	for envVar, flag := range envVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	durationVars := map[string]*time.Duration{
		"CONSOLIDATE_INTERVAL":  consolidate,
		"MARKET_INTERVAL":       market,
		"FULL_REFRESH_INTERVAL": fullRefresh,
		"UPSTREAM_TIMEOUT":      upstreamTimeout,
		"SHUTDOWN_TIMEOUT":      &config.ShutdownTimeout,
	}

	for envVar, flag := range durationVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			d, err := time.ParseDuration(envValue)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", envVar, err)
			}
			*flag = d
		}
	}

	if envRedisDB := os.Getenv("REDIS_DB"); envRedisDB != "" {
		db, err := strconv.Atoi(envRedisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		*redisDB = db
	}

	if envRPS := os.Getenv("UPSTREAM_RPS"); envRPS != "" {
		rps, err := strconv.ParseFloat(envRPS, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTREAM_RPS: %w", err)
		}
		config.UpstreamRPS = rps
	}

	config.Address = *address
	config.DatabaseDSN = *databaseDSN
	config.MigrationsPath = *migrationsPath
	config.RedisAddr = *redisAddr
	config.RedisPassword = *redisPassword
	config.RedisDB = *redisDB
	config.LogLevel = *logLevel
	config.LogFile = *logFile
	config.ConsolidateInterval = *consolidate
	config.MarketInterval = *market
	config.FullRefreshInterval = *fullRefresh
	config.UpstreamTimeout = *upstreamTimeout

	return config, nil
}
