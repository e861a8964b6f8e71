package middlewareinternal

import (
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Schera-ole/telemetry/internal/audit"
	models "github.com/Schera-ole/telemetry/internal/model"
)

// RequestIDHeader carries the request id assigned by AuditMiddleware.
const RequestIDHeader = "X-Request-ID"

// staticExtensions are never audited.
var staticExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".png": {}, ".jpg": {}, ".ico": {}, ".json": {}, ".map": {},
}

// AuditMiddleware records every request as an API_REQUEST event once the handler has
// completed. Static assets and /monitoring routes are not recorded.
func AuditMiddleware(logger audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipAudit(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			lw := newLoggingResponseWriter(w)
			next.ServeHTTP(lw, r)

			status := models.StatusFailure
			if code := lw.Status(); code >= http.StatusOK && code < http.StatusMultipleChoices {
				status = models.StatusSuccess
			}
			logger.Log(models.AuditEvent{
				Action:    models.ActionAPIRequest,
				IP:        ClientIP(r),
				Country:   ClientCountry(r),
				UserAgent: r.UserAgent(),
				Status:    status,
				Metadata: map[string]any{
					"path":            r.URL.Path,
					"method":          r.Method,
					"executionTimeMs": time.Since(start).Milliseconds(),
					"requestId":       requestID,
				},
				Metrics: requestMetrics(r.Method, int64(lw.responseData.size)),
			})
		})
	}
}

func skipAudit(p string) bool {
	if strings.HasPrefix(p, "/monitoring") {
		return true
	}
	_, static := staticExtensions[strings.ToLower(path.Ext(p))]
	return static
}

func requestMetrics(method string, bytesOut int64) *models.PerfMetrics {
	m := &models.PerfMetrics{BytesOut: bytesOut}
	switch method {
	case http.MethodGet:
		m.DBReads = 1
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		m.DBWrites = 1
	}
	return m
}

// ClientIP returns the client address reported by the edge, falling back to the
// forwarding headers and finally the peer address.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return models.UnknownIP
}

// ClientCountry returns the country code reported by the edge, or XX.
func ClientCountry(r *http.Request) string {
	if country := strings.ToUpper(strings.TrimSpace(r.Header.Get("CF-IPCountry"))); country != "" {
		return country
	}
	return models.UnknownCountry
}
