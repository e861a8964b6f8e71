package handler

import (
	"fmt"
	"io"

	models "github.com/Schera-ole/telemetry/internal/model"
)

// DashboardView is what a DashboardRenderer receives.
type DashboardView struct {
	Version string
	Service string
	Metrics models.DashboardMetrics
}

// DashboardRenderer produces the dashboard page.
type DashboardRenderer interface {
	ContentType() string
	Render(w io.Writer, view DashboardView) error
}

// TextRenderer renders the dashboard as a plain-text summary.
type TextRenderer struct{}

// ContentType implements DashboardRenderer.
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render implements DashboardRenderer.
func (TextRenderer) Render(w io.Writer, view DashboardView) error {
	m := view.Metrics
	_, err := fmt.Fprintf(w,
		"%s %s\n"+
			"requests (24h): %d\n"+
			"processed bytes (24h): %d\n"+
			"unique users (24h): %d\n"+
			"cache ratio: %s\n"+
			"db queries: %d\n"+
			"db mutations: %d\n"+
			"price (usd): %s\n"+
			"change (24h): %.2f%%\n",
		view.Service, view.Version,
		m.NetworkRequests,
		m.ProcessedData,
		m.GlobalUsers,
		m.CacheRatio,
		m.DBStats.Queries,
		m.DBStats.Mutations,
		m.Market.Price,
		m.Market.Change24h,
	)
	if err != nil {
		return err
	}
	for _, c := range m.Countries {
		if _, err := fmt.Fprintf(w, "%s (%s): %d\n", c.Country, c.Code, c.Count); err != nil {
			return err
		}
	}
	return nil
}
