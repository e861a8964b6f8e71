package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Schera-ole/telemetry/internal/audit"
	middlewareinternal "github.com/Schera-ole/telemetry/internal/middleware"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/service"
)

// Version is reported on the dashboard.
const Version = "1.1.0"

// Router builds the HTTP routes of the telemetry server.
func Router(
	logger *zap.SugaredLogger,
	telemetry *service.TelemetryService,
	auditLogger audit.Logger,
	renderer DashboardRenderer,
) chi.Router {
	if renderer == nil {
		renderer = TextRenderer{}
	}

	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middleware.StripSlashes)
	router.Use(middlewareinternal.AuditMiddleware(auditLogger))
	router.Use(middleware.Recoverer)
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		DashboardHandler(w, r, telemetry, renderer, logger)
	})
	router.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		StatsHandler(w, r, telemetry)
	})
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		HealthHandler(w, r, telemetry)
	})
	router.Get("/monitoring", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/health", http.StatusFound)
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return router
}

// DashboardHandler renders the dashboard and records the view.
func DashboardHandler(
	w http.ResponseWriter,
	r *http.Request,
	telemetry *service.TelemetryService,
	renderer DashboardRenderer,
	logger *zap.SugaredLogger,
) {
	metrics := telemetry.DashboardMetrics(r.Context())

	telemetry.Record(models.AuditEvent{
		Action:    models.ActionDashboardView,
		IP:        middlewareinternal.ClientIP(r),
		Country:   middlewareinternal.ClientCountry(r),
		UserAgent: r.UserAgent(),
		Status:    models.StatusSuccess,
	})

	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	err := renderer.Render(w, DashboardView{
		Version: Version,
		Service: "Telemetry API",
		Metrics: metrics,
	})
	if err != nil {
		logger.Errorw("dashboard render failed", "error", err)
	}
}

// StatsHandler serves the dashboard metrics as JSON.
func StatsHandler(w http.ResponseWriter, r *http.Request, telemetry *service.TelemetryService) {
	writeJSON(w, http.StatusOK, telemetry.DashboardMetrics(r.Context()))
}

// HealthHandler pings the backing stores. A degraded store yields 207 Multi-Status.
func HealthHandler(w http.ResponseWriter, r *http.Request, telemetry *service.TelemetryService) {
	report := telemetry.Health(r.Context())
	status := http.StatusOK
	if report.Status != service.HealthOK {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, report)
}
