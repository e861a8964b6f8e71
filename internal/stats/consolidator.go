// Package stats turns the raw rolling counters into the consolidated dashboard snapshot
// and reads it back together with the cached market data.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Schera-ole/telemetry/internal/config"
	"github.com/Schera-ole/telemetry/internal/counter"
	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/repository"
)

// Consolidator recomputes the dashboard snapshot from the rolling counters.
type Consolidator struct {
	counters *counter.Cache
	kv       repository.KV
	regions  RegionResolver
	logger   *zap.SugaredLogger
	now      func() time.Time

	// mu serializes runs; overlapping calls are skipped
	mu sync.Mutex
}

// ConsolidatorOption configures a Consolidator.
type ConsolidatorOption func(*Consolidator)

// WithRegionResolver replaces the English CLDR region names.
func WithRegionResolver(r RegionResolver) ConsolidatorOption {
	return func(c *Consolidator) { c.regions = r }
}

// WithNow replaces the clock stamped on snapshots.
func WithNow(now func() time.Time) ConsolidatorOption {
	return func(c *Consolidator) { c.now = now }
}

// NewConsolidator creates a Consolidator reading counters from kv and writing the snapshot back to it.
func NewConsolidator(kv repository.KV, logger *zap.SugaredLogger, opts ...ConsolidatorOption) *Consolidator {
	c := &Consolidator{
		counters: counter.NewCache(kv),
		kv:       kv,
		regions:  NewEnglishRegions(),
		logger:   logger.With("component", "consolidator"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComputeGlobalStats builds a fresh snapshot and stores it under the snapshot key.
//
// Errors are logged and swallowed, leaving the previous snapshot in place. A call made
// while another run is in progress returns immediately.
func (c *Consolidator) ComputeGlobalStats(ctx context.Context) {
	if !c.mu.TryLock() {
		c.logger.Debugw("consolidation already running, skipped")
		return
	}
	defer c.mu.Unlock()

	snapshot, err := c.Build(ctx)
	if err != nil {
		c.logger.Errorw("snapshot consolidation failed", "error", err)
		return
	}
	if err := c.store(ctx, snapshot); err != nil {
		c.logger.Errorw("snapshot consolidation failed", "error", err)
		return
	}
	c.logger.Infow("snapshot consolidated",
		"requests", snapshot.NetworkRequests,
		"users", snapshot.GlobalUsers,
		"countries", len(snapshot.Countries),
	)
}

// Build computes a snapshot without storing it.
func (c *Consolidator) Build(ctx context.Context) (models.Snapshot, error) {
	scalars := []string{
		config.KeyRequests,
		config.KeyBandwidth,
		config.KeyDBWrites,
		config.KeyDBReads,
		config.KeyUniques,
		config.KeyCacheHits,
		config.KeyCacheTotal,
	}
	values := make(map[string]int64, len(scalars))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range scalars {
		g.Go(func() error {
			v, err := c.counters.Value(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			values[key] = v
			mu.Unlock()
			return nil
		})
	}
	var countries []models.CountryStat
	g.Go(func() error {
		var err error
		countries, err = c.topCountries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", internalerrors.ErrConsolidation, err)
	}

	return models.Snapshot{
		NetworkRequests: values[config.KeyRequests],
		ProcessedData:   values[config.KeyBandwidth],
		GlobalUsers:     values[config.KeyUniques],
		CacheRatio:      CacheRatio(values[config.KeyCacheHits], values[config.KeyCacheTotal]),
		DBStats: models.DBStats{
			Queries:   values[config.KeyDBReads],
			Mutations: values[config.KeyDBWrites],
		},
		Countries:   countries,
		GeneratedAt: c.now().UTC(),
	}, nil
}

// CacheRatio formats hits over total as a percentage with one decimal.
//
// A zero total counts as one, so an empty window yields "0.0%".
func CacheRatio(hits, total int64) string {
	if total < 1 {
		total = 1
	}
	return fmt.Sprintf("%.1f%%", float64(hits)/float64(total)*100)
}

func (c *Consolidator) topCountries(ctx context.Context) ([]models.CountryStat, error) {
	keys, err := c.counters.Keys(ctx, config.CountryPrefix)
	if err != nil {
		return nil, err
	}

	stats := make([]models.CountryStat, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			count, err := c.counters.Value(gctx, key)
			if err != nil {
				return err
			}
			stats[i] = models.CountryStat{
				Code:  strings.TrimPrefix(key, config.CountryPrefix),
				Count: count,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Code < stats[j].Code
	})
	if len(stats) > config.TopCountries {
		stats = stats[:config.TopCountries]
	}
	for i := range stats {
		stats[i].Country = c.regions.Resolve(stats[i].Code)
	}
	return stats, nil
}

func (c *Consolidator) store(ctx context.Context, snapshot models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", internalerrors.ErrConsolidation, err)
	}
	if err := c.kv.Put(ctx, config.KeySnapshot, string(data), 0); err != nil {
		return fmt.Errorf("%w: write snapshot: %w", internalerrors.ErrConsolidation, err)
	}
	return nil
}
