package middlewareinternal

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core).Sugar()

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/stats", fields["uri"])
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["size"])
}

func TestGzipMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		acceptEncoding string
		body           string
		wantGzip       bool
	}{
		{name: "no gzip support", body: "Hello, World!"},
		{name: "gzip support", acceptEncoding: "gzip, deflate", body: "Hello, World!", wantGzip: true},
		{name: "large response", acceptEncoding: "gzip", body: strings.Repeat("Hello, World! ", 1000), wantGzip: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(tt.body))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			if !tt.wantGzip {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
				assert.Equal(t, tt.body, rec.Body.String())
				return
			}

			assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
			reader, err := gzip.NewReader(rec.Body)
			require.NoError(t, err)
			defer reader.Close()

			var decompressed bytes.Buffer
			_, err = io.Copy(&decompressed, reader)
			require.NoError(t, err)
			assert.Equal(t, tt.body, decompressed.String())
		})
	}
}

func TestLoggingResponseWriter(t *testing.T) {
	t.Run("write counts bytes and implies 200", func(t *testing.T) {
		lw := newLoggingResponseWriter(httptest.NewRecorder())

		data := []byte("Hello, World!")
		size, err := lw.Write(data)

		assert.NoError(t, err)
		assert.Equal(t, len(data), size)
		assert.Equal(t, len(data), lw.responseData.size)
		assert.Equal(t, http.StatusOK, lw.Status())
	})

	t.Run("first header wins", func(t *testing.T) {
		rec := httptest.NewRecorder()
		lw := newLoggingResponseWriter(rec)

		lw.WriteHeader(http.StatusNotFound)
		lw.Write([]byte("missing"))

		assert.Equal(t, http.StatusNotFound, lw.Status())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no write at all", func(t *testing.T) {
		lw := newLoggingResponseWriter(httptest.NewRecorder())
		assert.Equal(t, http.StatusOK, lw.Status())
	})
}
