package market

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	models "github.com/Schera-ole/telemetry/internal/model"
)

// GeckoConfig locates a liquidity pool on GeckoTerminal.
type GeckoConfig struct {
	BaseURL string
	Network string
	Pool    string
}

// GeckoTerminal reads pool data from the GeckoTerminal public API.
type GeckoTerminal struct {
	cfg     GeckoConfig
	fetcher *fetcher
}

// NewGeckoTerminal creates a GeckoTerminal provider.
func NewGeckoTerminal(cfg GeckoConfig, opts ...Option) *GeckoTerminal {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GeckoTerminal{cfg: cfg, fetcher: newFetcher(opts...)}
}

type geckoPoolResponse struct {
	Data struct {
		Attributes struct {
			BaseTokenPriceUSD     decimal.NullDecimal `json:"base_token_price_usd"`
			PriceChangePercentage struct {
				H24 decimal.NullDecimal `json:"h24"`
			} `json:"price_change_percentage"`
			ReserveInUSD decimal.NullDecimal `json:"reserve_in_usd"`
			FDVUSD       decimal.NullDecimal `json:"fdv_usd"`
		} `json:"attributes"`
	} `json:"data"`
}

type geckoOHLCVResponse struct {
	Data struct {
		Attributes struct {
			// rows are [timestamp, open, high, low, close, volume]
			OHLCVList [][]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

// Name implements Provider.
func (g *GeckoTerminal) Name() string { return "geckoterminal" }

func (g *GeckoTerminal) poolURL() string {
	return fmt.Sprintf("%s/networks/%s/pools/%s",
		g.cfg.BaseURL, url.PathEscape(g.cfg.Network), url.PathEscape(g.cfg.Pool))
}

// FetchQuote implements Provider.
func (g *GeckoTerminal) FetchQuote(ctx context.Context) (models.Quote, error) {
	var resp geckoPoolResponse
	if err := g.fetcher.getJSON(ctx, g.poolURL(), nil, &resp); err != nil {
		return models.Quote{}, err
	}
	attr := resp.Data.Attributes
	return validQuote(models.Quote{
		Price:     toFloat(attr.BaseTokenPriceUSD),
		Change24h: toFloat(attr.PriceChangePercentage.H24),
		Liquidity: toFloat(attr.ReserveInUSD),
		MarketCap: toFloat(attr.FDVUSD),
		Source:    g.Name(),
	})
}

// FetchHistory implements Provider. It returns up to 30 daily candles.
func (g *GeckoTerminal) FetchHistory(ctx context.Context) ([]models.HistoryPoint, error) {
	var resp geckoOHLCVResponse
	if err := g.fetcher.getJSON(ctx, g.poolURL()+"/ohlcv/day?limit=30", nil, &resp); err != nil {
		return nil, err
	}
	history := make([]models.HistoryPoint, 0, len(resp.Data.Attributes.OHLCVList))
	for _, row := range resp.Data.Attributes.OHLCVList {
		if len(row) < 5 {
			continue
		}
		history = append(history, models.HistoryPoint{
			Timestamp:  int64(row[0]),
			ClosePrice: row[4],
		})
	}
	return history, nil
}
