package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
	models "github.com/Schera-ole/telemetry/internal/model"
)

// MoralisConfig identifies a token and its pair on the Moralis EVM API.
type MoralisConfig struct {
	BaseURL string
	APIKey  string
	Token   string
	Pair    string
	Chain   string
}

// Moralis reads token prices and pair candles from the Moralis EVM API.
type Moralis struct {
	cfg     MoralisConfig
	fetcher *fetcher
	now     func() time.Time
}

// NewMoralis creates a Moralis provider.
func NewMoralis(cfg MoralisConfig, opts ...Option) *Moralis {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Moralis{cfg: cfg, fetcher: newFetcher(opts...), now: time.Now}
}

type moralisPriceResponse struct {
	USDPrice              decimal.NullDecimal `json:"usdPrice"`
	PercentChange24h      decimal.NullDecimal `json:"24hrPercentChange"`
	PairTotalLiquidityUSD decimal.NullDecimal `json:"pairTotalLiquidityUsd"`
	MarketCap             decimal.NullDecimal `json:"marketCap"`
}

type moralisOHLCVResponse struct {
	Result []struct {
		Timestamp time.Time           `json:"timestamp"`
		Close     decimal.NullDecimal `json:"close"`
	} `json:"result"`
}

// Name implements Provider.
func (m *Moralis) Name() string { return "moralis" }

func (m *Moralis) header() (http.Header, error) {
	if m.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: moralis api key is not configured", internalerrors.ErrUpstreamFetch)
	}
	h := http.Header{}
	h.Set("X-API-Key", m.cfg.APIKey)
	return h, nil
}

// FetchQuote implements Provider.
func (m *Moralis) FetchQuote(ctx context.Context) (models.Quote, error) {
	header, err := m.header()
	if err != nil {
		return models.Quote{}, err
	}
	q := url.Values{}
	q.Set("chain", m.cfg.Chain)
	q.Set("include", "percent_change")
	endpoint := fmt.Sprintf("%s/erc20/%s/price?%s", m.cfg.BaseURL, url.PathEscape(m.cfg.Token), q.Encode())

	var resp moralisPriceResponse
	if err := m.fetcher.getJSON(ctx, endpoint, header, &resp); err != nil {
		return models.Quote{}, err
	}
	return validQuote(models.Quote{
		Price:     toFloat(resp.USDPrice),
		Change24h: toFloat(resp.PercentChange24h),
		Liquidity: toFloat(resp.PairTotalLiquidityUSD),
		MarketCap: toFloat(resp.MarketCap),
		Source:    m.Name(),
	})
}

// FetchHistory implements Provider. It returns the daily candles of the last 30 days.
func (m *Moralis) FetchHistory(ctx context.Context) ([]models.HistoryPoint, error) {
	header, err := m.header()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	q := url.Values{}
	q.Set("chain", m.cfg.Chain)
	q.Set("timeframe", "1d")
	q.Set("currency", "usd")
	q.Set("fromDate", now.AddDate(0, 0, -30).Format(time.DateOnly))
	q.Set("toDate", now.Format(time.DateOnly))
	endpoint := fmt.Sprintf("%s/pairs/%s/ohlcv?%s", m.cfg.BaseURL, url.PathEscape(m.cfg.Pair), q.Encode())

	var resp moralisOHLCVResponse
	if err := m.fetcher.getJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, err
	}
	history := make([]models.HistoryPoint, 0, len(resp.Result))
	for _, candle := range resp.Result {
		if !candle.Close.Valid {
			continue
		}
		history = append(history, models.HistoryPoint{
			Timestamp:  candle.Timestamp.Unix(),
			ClosePrice: candle.Close.Decimal.InexactFloat64(),
		})
	}
	return history, nil
}
