package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/telemetry/internal/config"
	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/repository"
)

// Merger refreshes the cached market record.
//
// A full refresh replaces the record. A partial refresh only overwrites the price and
// the 24h change of the existing record; history, liquidity and market cap survive.
type Merger struct {
	provider Provider
	kv       repository.KV
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewMerger creates a Merger fetching from provider and caching in kv.
func NewMerger(provider Provider, kv repository.KV, logger *zap.SugaredLogger) *Merger {
	return &Merger{
		provider: provider,
		kv:       kv,
		logger:   logger.With("component", "market"),
		now:      time.Now,
	}
}

// Refresh fetches market data in the given mode and stores the result.
//
// It returns the stored record, or nil when the fetch or the write failed, in which
// case the cached record is left as it was.
func (m *Merger) Refresh(ctx context.Context, mode models.RefreshMode) *models.MarketCacheRecord {
	var (
		record models.MarketCacheRecord
		err    error
	)
	switch mode {
	case models.RefreshFull:
		record, err = m.full(ctx)
	case models.RefreshPartial:
		record, err = m.partial(ctx)
	default:
		err = fmt.Errorf("unknown refresh mode %q", mode)
	}
	if err != nil {
		m.logger.Errorw("market refresh failed", "mode", mode, "error", err)
		return nil
	}

	if err := m.store(ctx, mode, record); err != nil {
		m.logger.Errorw("market refresh failed", "mode", mode, "error", err)
		return nil
	}
	m.logger.Infow("market refreshed", "mode", mode, "source", record.Source, "price", record.Price)
	return &record
}

func (m *Merger) full(ctx context.Context) (models.MarketCacheRecord, error) {
	quote, err := m.provider.FetchQuote(ctx)
	if err != nil {
		return models.MarketCacheRecord{}, err
	}
	now := m.now().UTC()

	history, err := m.provider.FetchHistory(ctx)
	if err != nil || len(history) == 0 {
		m.logger.Warnw("market history unavailable, using flat history", "error", err)
		history = FlatHistory(quote.Price, now)
	}
	SortHistory(history)

	return models.MarketCacheRecord{
		Price:       quote.Price,
		Change24h:   quote.Change24h,
		Liquidity:   quote.Liquidity,
		MarketCap:   quote.MarketCap,
		History:     history,
		LastUpdated: now,
		Source:      quote.Source,
	}, nil
}

func (m *Merger) partial(ctx context.Context) (models.MarketCacheRecord, error) {
	quote, err := m.provider.FetchQuote(ctx)
	if err != nil {
		return models.MarketCacheRecord{}, err
	}
	record, err := m.cached(ctx)
	if err != nil {
		return models.MarketCacheRecord{}, err
	}
	record.Price = quote.Price
	record.Change24h = quote.Change24h
	record.LastUpdated = m.now().UTC()
	record.Source = quote.Source
	return record, nil
}

// cached returns the stored record, or an empty one when none is stored or it
// cannot be decoded. A failed read is returned as an error.
func (m *Merger) cached(ctx context.Context) (models.MarketCacheRecord, error) {
	var record models.MarketCacheRecord
	raw, ok, err := m.kv.Get(ctx, config.KeyMarketData)
	if err != nil {
		return record, fmt.Errorf("%w: read cached market data: %w", internalerrors.ErrCache, err)
	}
	if !ok {
		return record, nil
	}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		m.logger.Warnw("cached market data unreadable", "error", err)
		return models.MarketCacheRecord{}, nil
	}
	return record, nil
}

func (m *Merger) store(ctx context.Context, mode models.RefreshMode, record models.MarketCacheRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode market data: %w", internalerrors.ErrCache, err)
	}
	if err := m.kv.Put(ctx, config.KeyMarketData, string(data), 0); err != nil {
		return fmt.Errorf("%w: write market data: %w", internalerrors.ErrCache, err)
	}

	price := strconv.FormatFloat(record.Price, 'f', -1, 64)
	if err := m.kv.Put(ctx, config.KeyMarketPrice, price, 0); err != nil {
		m.logger.Warnw("market price not published", "error", err)
	}
	if mode == models.RefreshFull {
		stamp := strconv.FormatInt(record.LastUpdated.UnixMilli(), 10)
		if err := m.kv.Put(ctx, config.KeyMarketFull, stamp, 0); err != nil {
			m.logger.Warnw("full refresh time not stored", "error", err)
		}
	}
	return nil
}

// LastFullRefresh returns the time of the last successful full refresh, zero if unknown.
func (m *Merger) LastFullRefresh(ctx context.Context) time.Time {
	raw, ok, err := m.kv.Get(ctx, config.KeyMarketFull)
	if err != nil || !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// FlatHistory is the two-point history used when no candles are available:
// one point 30 days before now and one at now, both at price.
func FlatHistory(price float64, now time.Time) []models.HistoryPoint {
	return []models.HistoryPoint{
		{Timestamp: now.Add(-config.FlatHistorySpan).Unix(), ClosePrice: price},
		{Timestamp: now.Unix(), ClosePrice: price},
	}
}

// SortHistory orders points by ascending timestamp.
func SortHistory(points []models.HistoryPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
}
