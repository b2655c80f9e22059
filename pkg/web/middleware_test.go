package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Test_RequestIDInjector(t *testing.T) {
	testCases := []struct {
		name     string
		incoming string
	}{
		{name: "Reuses incoming request id", incoming: "abc-123"},
		{name: "Generates request id when missing", incoming: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.GetReqID(r.Context())
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			rr := httptest.NewRecorder()

			// when
			RequestIDInjector(next).ServeHTTP(rr, req)

			// then
			assert.NotEmpty(t, seen)
			if tc.incoming != "" {
				assert.Equal(t, tc.incoming, seen)
			}
			assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
		})
	}
}

func Test_Recoverer(t *testing.T) {
	// given
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	rr := httptest.NewRecorder()

	// when
	Recoverer(discardLogger())(panicking).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
}

func Test_RespondJSON(t *testing.T) {
	t.Run("Writes JSON body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondJSON(rr, discardLogger(), http.StatusCreated, map[string]string{"message": "ok"})
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"message":"ok"}`, rr.Body.String())
	})
	t.Run("Nil payload writes status only", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondJSON(rr, discardLogger(), http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
	})
	t.Run("Validation errors", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondValidationErrors(rr, discardLogger(), map[string]string{"name": "failed on rule: required"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"validation_errors":{"name":"failed on rule: required"}}`, rr.Body.String())
	})
}

func Test_RequestIDInjector_ReplacesOversizedID(t *testing.T) {
	// given
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	rr := httptest.NewRecorder()

	// when
	RequestIDInjector(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, req)

	// then
	assert.Len(t, rr.Header().Get(RequestIDHeader), 36)
}

func Test_StructuredLogger_Level(t *testing.T) {
	testCases := []struct {
		status   int
		expected string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tc := range testCases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			// given
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tc.status) })

			// when
			StructuredLogger(logger)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))

			// then
			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tc.expected, record["level"])
			assert.Equal(t, float64(tc.status), record["status"])
			assert.Equal(t, "/products", record["path"])
		})
	}
}
