package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Schera-ole/telemetry/internal/config"
	"github.com/Schera-ole/telemetry/internal/counter"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/repository"
)

var generatedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// brokenKV fails reads of keys starting with failPrefix.
type brokenKV struct {
	*repository.MemKV
	failPrefix string
}

func (b *brokenKV) Get(ctx context.Context, key string) (string, bool, error) {
	if strings.HasPrefix(key, b.failPrefix) {
		return "", false, errors.New("connection reset")
	}
	return b.MemKV.Get(ctx, key)
}

func seed(t *testing.T, kv repository.KV, values map[string]int64) {
	t.Helper()
	c := counter.NewCache(kv)
	for key, v := range values {
		require.NoError(t, c.Increment(context.Background(), key, v))
	}
}

func readSnapshot(t *testing.T, kv repository.KV) (models.Snapshot, bool) {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), config.KeySnapshot)
	require.NoError(t, err)
	if !ok {
		return models.Snapshot{}, false
	}
	var s models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return s, true
}

func newConsolidator(kv repository.KV) *Consolidator {
	return NewConsolidator(kv, zap.NewNop().Sugar(), WithNow(func() time.Time { return generatedAt }))
}

func TestCacheRatio(t *testing.T) {
	tests := []struct {
		name        string
		hits, total int64
		want        string
	}{
		{name: "empty window", want: "0.0%"},
		{name: "all hits", hits: 4, total: 4, want: "100.0%"},
		{name: "one third", hits: 1, total: 3, want: "33.3%"},
		{name: "hits without total", hits: 0, total: 0, want: "0.0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CacheRatio(tt.hits, tt.total))
		})
	}
}

func TestComputeGlobalStats(t *testing.T) {
	kv := repository.NewMemKV()
	seed(t, kv, map[string]int64{
		config.KeyRequests:          20,
		config.KeyBandwidth:         4096,
		config.KeyDBReads:           12,
		config.KeyDBWrites:          3,
		config.KeyUniques:           7,
		config.KeyCacheHits:         5,
		config.KeyCacheTotal:        20,
		config.CountryPrefix + "US": 5,
		config.CountryPrefix + "FR": 10,
		config.CountryPrefix + "BR": 5,
	})

	newConsolidator(kv).ComputeGlobalStats(context.Background())

	s, ok := readSnapshot(t, kv)
	require.True(t, ok)
	assert.Equal(t, int64(20), s.NetworkRequests)
	assert.Equal(t, int64(4096), s.ProcessedData)
	assert.Equal(t, int64(7), s.GlobalUsers)
	assert.Equal(t, "25.0%", s.CacheRatio)
	assert.Equal(t, models.DBStats{Queries: 12, Mutations: 3}, s.DBStats)
	assert.Equal(t, generatedAt, s.GeneratedAt)
	assert.Equal(t, []models.CountryStat{
		{Code: "FR", Country: "France", Count: 10},
		{Code: "BR", Country: "Brazil", Count: 5},
		{Code: "US", Country: "United States", Count: 5},
	}, s.Countries)
}

func TestComputeGlobalStats_EmptyCache(t *testing.T) {
	kv := repository.NewMemKV()

	newConsolidator(kv).ComputeGlobalStats(context.Background())

	s, ok := readSnapshot(t, kv)
	require.True(t, ok)
	assert.Equal(t, "0.0%", s.CacheRatio)
	assert.Zero(t, s.NetworkRequests)
	assert.NotNil(t, s.Countries)
	assert.Empty(t, s.Countries)
}

func TestComputeGlobalStats_KeepsTopTen(t *testing.T) {
	kv := repository.NewMemKV()
	codes := []string{"AR", "AU", "BR", "CA", "CN", "DE", "ES", "FR", "GB", "IN", "IT", "JP"}
	values := make(map[string]int64, len(codes))
	for i, code := range codes {
		values[config.CountryPrefix+code] = int64(i + 1)
	}
	seed(t, kv, values)

	newConsolidator(kv).ComputeGlobalStats(context.Background())

	s, ok := readSnapshot(t, kv)
	require.True(t, ok)
	require.Len(t, s.Countries, 10)
	assert.Equal(t, "JP", s.Countries[0].Code)
	assert.Equal(t, "BR", s.Countries[9].Code)
	for i := 1; i < len(s.Countries); i++ {
		assert.GreaterOrEqual(t, s.Countries[i-1].Count, s.Countries[i].Count)
	}
}

func TestComputeGlobalStats_FailureKeepsPreviousSnapshot(t *testing.T) {
	mem := repository.NewMemKV()
	seed(t, mem, map[string]int64{config.KeyRequests: 3})
	newConsolidator(mem).ComputeGlobalStats(context.Background())
	before, ok := readSnapshot(t, mem)
	require.True(t, ok)

	seed(t, mem, map[string]int64{config.KeyRequests: 40})
	broken := &brokenKV{MemKV: mem, failPrefix: config.KeyBandwidth}
	assert.NotPanics(t, func() {
		newConsolidator(broken).ComputeGlobalStats(context.Background())
	})

	after, ok := readSnapshot(t, mem)
	require.True(t, ok)
	assert.Equal(t, before, after)
}

type stubRegions map[string]string

func (s stubRegions) Resolve(code string) string {
	if name, ok := s[code]; ok {
		return name
	}
	return code
}

func TestComputeGlobalStats_UnresolvedRegionFallsBackToCode(t *testing.T) {
	kv := repository.NewMemKV()
	seed(t, kv, map[string]int64{config.CountryPrefix + "ZZ": 1, config.CountryPrefix + "PT": 2})

	c := NewConsolidator(kv, zap.NewNop().Sugar(), WithRegionResolver(stubRegions{"PT": "Portugal"}))
	c.ComputeGlobalStats(context.Background())

	s, ok := readSnapshot(t, kv)
	require.True(t, ok)
	assert.Equal(t, []models.CountryStat{
		{Code: "PT", Country: "Portugal", Count: 2},
		{Code: "ZZ", Country: "ZZ", Count: 1},
	}, s.Countries)
}

func TestEnglishRegions(t *testing.T) {
	r := NewEnglishRegions()
	assert.Equal(t, "Brazil", r.Resolve("BR"))
	assert.Equal(t, "Japan", r.Resolve("JP"))
	assert.Equal(t, "??", r.Resolve("??"))
}

func TestGetDashboardMetrics_Defaults(t *testing.T) {
	r := NewReader(repository.NewMemKV(), zap.NewNop().Sugar())

	got := r.GetDashboardMetrics(context.Background())

	assert.Equal(t, models.EmptyDashboardMetrics(), got)
	assert.Equal(t, "0.0%", got.CacheRatio)
	assert.Equal(t, "0.0000", got.Market.Price)
}

func TestGetDashboardMetrics_SnapshotAndMarket(t *testing.T) {
	kv := repository.NewMemKV()
	seed(t, kv, map[string]int64{
		config.KeyRequests:          9,
		config.KeyCacheHits:         1,
		config.KeyCacheTotal:        3,
		config.CountryPrefix + "BR": 3,
	})
	newConsolidator(kv).ComputeGlobalStats(context.Background())

	record := models.MarketCacheRecord{
		Price:     0.1234567,
		Change24h: -2.5,
		Liquidity: 1500,
		MarketCap: 90000,
		History:   []models.HistoryPoint{{Timestamp: 1, ClosePrice: 0.1}, {Timestamp: 2, ClosePrice: 0.12}},
	}
	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, kv.Put(context.Background(), config.KeyMarketData, string(data), 0))

	r := NewReader(kv, zap.NewNop().Sugar())
	got := r.GetDashboardMetrics(context.Background())

	assert.Equal(t, int64(9), got.NetworkRequests)
	assert.Equal(t, "33.3%", got.CacheRatio)
	assert.Equal(t, []models.CountryStat{{Code: "BR", Country: "Brazil", Count: 3}}, got.Countries)
	assert.Equal(t, "0.1235", got.Market.Price)
	assert.Equal(t, -2.5, got.Market.Change24h)
	assert.Equal(t, record.History, got.Market.History)

	assert.Equal(t, got, r.GetDashboardMetrics(context.Background()), "reads must be idempotent")
}

func TestGetDashboardMetrics_IndependentFallbacks(t *testing.T) {
	kv := repository.NewMemKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, config.KeySnapshot, `{"networkRequests":5,"cacheRatio":"50.0%"}`, 0))
	require.NoError(t, kv.Put(ctx, config.KeyMarketData, `{not json`, 0))

	got := NewReader(kv, zap.NewNop().Sugar()).GetDashboardMetrics(ctx)

	assert.Equal(t, int64(5), got.NetworkRequests)
	assert.Equal(t, "50.0%", got.CacheRatio)
	assert.Equal(t, []models.CountryStat{}, got.Countries)
	assert.Equal(t, models.EmptyMarketView(), got.Market)
}

func TestGetDashboardMetrics_UnreadableStore(t *testing.T) {
	kv := &brokenKV{MemKV: repository.NewMemKV(), failPrefix: ""}

	got := NewReader(kv, zap.NewNop().Sugar()).GetDashboardMetrics(context.Background())

	assert.Equal(t, models.EmptyDashboardMetrics(), got)
}

func TestFormatPrice(t *testing.T) {
	for price, want := range map[float64]string{
		0:          "0.0000",
		1:          "1.0000",
		0.00012345: "0.0001",
		12.34565:   "12.3457",
	} {
		assert.Equal(t, want, FormatPrice(price), fmt.Sprint(price))
	}
}
