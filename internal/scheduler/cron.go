package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	models "github.com/Schera-ole/telemetry/internal/model"
)

// MarketRefresher refreshes the cached market record.
type MarketRefresher interface {
	Refresh(ctx context.Context, mode models.RefreshMode) *models.MarketCacheRecord
	LastFullRefresh(ctx context.Context) time.Time
}

// StatsConsolidator recomputes the dashboard snapshot.
type StatsConsolidator interface {
	ComputeGlobalStats(ctx context.Context)
}

// CronJob is the periodic maintenance run: a market refresh followed by a snapshot
// consolidation.
type CronJob struct {
	market      MarketRefresher
	stats       StatsConsolidator
	fullRefresh time.Duration
	logger      *zap.SugaredLogger
	now         func() time.Time
}

// NewCronJob creates a CronJob that upgrades the market refresh to a full one once the
// last full refresh is older than fullRefresh.
func NewCronJob(market MarketRefresher, stats StatsConsolidator, fullRefresh time.Duration, logger *zap.SugaredLogger) *CronJob {
	return &CronJob{
		market:      market,
		stats:       stats,
		fullRefresh: fullRefresh,
		logger:      logger.With("component", "cron"),
		now:         time.Now,
	}
}

// SelectMode picks the refresh mode for the next run.
func (c *CronJob) SelectMode(ctx context.Context) models.RefreshMode {
	last := c.market.LastFullRefresh(ctx)
	if last.IsZero() || c.now().Sub(last) > c.fullRefresh {
		return models.RefreshFull
	}
	return models.RefreshPartial
}

// RunOnce refreshes market data, then consolidates the snapshot. A failed refresh
// does not prevent the consolidation.
func (c *CronJob) RunOnce(ctx context.Context) {
	mode := c.SelectMode(ctx)
	if record := c.market.Refresh(ctx, mode); record == nil {
		c.logger.Warnw("market data not updated", "mode", mode)
	}
	c.stats.ComputeGlobalStats(ctx)
}

// Job wraps RunOnce for the scheduler.
func (c *CronJob) Job(interval time.Duration) Job {
	return Job{Name: "cron", Interval: interval, Run: c.RunOnce}
}
