package stats

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Schera-ole/telemetry/internal/config"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/repository"
)

// Reader serves the dashboard metrics from the cached snapshot and market record.
type Reader struct {
	kv     repository.KV
	logger *zap.SugaredLogger
}

// NewReader creates a Reader over kv.
func NewReader(kv repository.KV, logger *zap.SugaredLogger) *Reader {
	return &Reader{kv: kv, logger: logger.With("component", "reader")}
}

// GetDashboardMetrics returns the current dashboard metrics. It never fails: the snapshot
// and the market record each fall back to their defaults when missing or unreadable.
func (r *Reader) GetDashboardMetrics(ctx context.Context) models.DashboardMetrics {
	var (
		snapshot models.Snapshot
		market   models.MarketView
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snapshot = r.readSnapshot(gctx)
		return nil
	})
	g.Go(func() error {
		market = r.readMarket(gctx)
		return nil
	})
	_ = g.Wait()

	metrics := models.EmptyDashboardMetrics()
	metrics.NetworkRequests = snapshot.NetworkRequests
	metrics.ProcessedData = snapshot.ProcessedData
	metrics.GlobalUsers = snapshot.GlobalUsers
	metrics.DBStats = snapshot.DBStats
	metrics.Market = market
	if snapshot.CacheRatio != "" {
		metrics.CacheRatio = snapshot.CacheRatio
	}
	if snapshot.Countries != nil {
		metrics.Countries = snapshot.Countries
	}
	return metrics
}

func (r *Reader) readSnapshot(ctx context.Context) models.Snapshot {
	var snapshot models.Snapshot
	raw, ok, err := r.kv.Get(ctx, config.KeySnapshot)
	if err != nil {
		r.logger.Warnw("snapshot unavailable", "error", err)
		return snapshot
	}
	if !ok {
		return snapshot
	}
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		r.logger.Warnw("snapshot unreadable", "error", err)
		return models.Snapshot{}
	}
	return snapshot
}

func (r *Reader) readMarket(ctx context.Context) models.MarketView {
	raw, ok, err := r.kv.Get(ctx, config.KeyMarketData)
	if err != nil {
		r.logger.Warnw("market data unavailable", "error", err)
		return models.EmptyMarketView()
	}
	if !ok {
		return models.EmptyMarketView()
	}
	var record models.MarketCacheRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		r.logger.Warnw("market data unreadable", "error", err)
		return models.EmptyMarketView()
	}
	return NewMarketView(record)
}

// NewMarketView converts the cached market record into its display form.
func NewMarketView(record models.MarketCacheRecord) models.MarketView {
	view := models.MarketView{
		Price:     FormatPrice(record.Price),
		Change24h: record.Change24h,
		Liquidity: record.Liquidity,
		MarketCap: record.MarketCap,
		History:   record.History,
	}
	if view.History == nil {
		view.History = []models.HistoryPoint{}
	}
	return view
}

// FormatPrice renders price with exactly four decimals.
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(4)
}
