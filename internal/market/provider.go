// Package market keeps the cached token market record fresh from upstream price feeds.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
	models "github.com/Schera-ole/telemetry/internal/model"
)

// Provider is an upstream source of market data.
type Provider interface {
	Name() string
	// FetchQuote returns the current price, 24h change, liquidity and market cap.
	FetchQuote(ctx context.Context) (models.Quote, error)
	// FetchHistory returns daily close prices, in whatever order the source returns them.
	FetchHistory(ctx context.Context) ([]models.HistoryPoint, error)
}

// Chain tries its providers in order; the first success wins.
type Chain []Provider

// Name implements Provider.
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, ",")
}

// FetchQuote implements Provider.
func (c Chain) FetchQuote(ctx context.Context) (models.Quote, error) {
	var errs []error
	for _, p := range c {
		quote, err := p.FetchQuote(ctx)
		if err == nil {
			return quote, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return models.Quote{}, chainError(errs)
}

// FetchHistory implements Provider.
func (c Chain) FetchHistory(ctx context.Context) ([]models.HistoryPoint, error) {
	var errs []error
	for _, p := range c {
		history, err := p.FetchHistory(ctx)
		if err == nil && len(history) > 0 {
			return history, nil
		}
		if err == nil {
			err = internalerrors.ErrNoUsableData
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, chainError(errs)
}

func chainError(errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: no provider configured", internalerrors.ErrUpstreamFetch)
	}
	return errors.Join(errs...)
}

// validQuote rejects quotes that carry no usable price.
func validQuote(q models.Quote) (models.Quote, error) {
	if q.Price <= 0 {
		return models.Quote{}, fmt.Errorf("%w: %s returned price %v", internalerrors.ErrNoUsableData, q.Source, q.Price)
	}
	return q, nil
}

func toFloat(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return 0
	}
	return d.Decimal.InexactFloat64()
}
