package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/alnah/go-html2pdf"
)

// mockService implements renderService for handler tests. It mirrors the
// pipeline's validation so handlers see the real error taxonomy.
type mockService struct {
	Result []byte
	Err    error
	calls  int
}

func (m *mockService) Render(_ context.Context, html string) ([]byte, error) {
	m.calls++
	if strings.TrimSpace(html) == "" {
		return nil, html2pdf.ErrEmptyHTML
	}
	return m.Result, m.Err
}

func newTestServer(cfg *Config, svc renderService) *server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newServer(cfg, svc, zap.NewNop())
}

func postPDF(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/pdf", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error response is not JSON: %v (body %q)", err, rec.Body.String())
	}
	if body["error"] == "" {
		t.Fatalf("error response missing error field: %q", rec.Body.String())
	}
	return body["error"]
}

func TestHandlePDF_Success(t *testing.T) {
	svc := &mockService{Result: []byte("%PDF-1.7 rendered")}
	srv := newTestServer(nil, svc)

	rec := postPDF(t, srv.handler(), `{"html":"<h1>Hello</h1>"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "inline" {
		t.Errorf("Content-Disposition = %q, want inline", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("body missing PDF signature, got prefix %q", rec.Body.String()[:5])
	}
}

func TestHandlePDF_BadRequests(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCalls int
	}{
		{name: "empty body", body: ""},
		{name: "not JSON", body: "<html>raw</html>"},
		{name: "wrong type for html", body: `{"html": 42}`},
		{name: "missing html field", body: `{}`, wantCalls: 1},
		{name: "empty html", body: `{"html":""}`, wantCalls: 1},
		{name: "whitespace html", body: `{"html":"  \n\t "}`, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{Result: []byte("%PDF-1.7")}
			srv := newTestServer(nil, svc)

			rec := postPDF(t, srv.handler(), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			decodeError(t, rec)
			if svc.calls != tt.wantCalls {
				t.Errorf("service called %d times, want %d", svc.calls, tt.wantCalls)
			}
		})
	}
}

func TestHandlePDF_MethodNotAllowed(t *testing.T) {
	svc := &mockService{}
	srv := newTestServer(nil, svc)

	req := httptest.NewRequest(http.MethodGet, "/pdf", nil)
	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("service must not be called for non-POST requests")
	}
}

func TestHandlePDF_BodyTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 64

	svc := &mockService{}
	srv := newTestServer(cfg, svc)

	huge := fmt.Sprintf(`{"html":%q}`, strings.Repeat("<p>x</p>", 100))
	rec := postPDF(t, srv.handler(), huge)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("service must not be called for oversized bodies")
	}
}

func TestHandlePDF_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "capacity exceeded",
			err:        fmt.Errorf("%w: 2 renders in flight", html2pdf.ErrCapacity),
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "render timeout",
			err:        fmt.Errorf("%w after 30s", html2pdf.ErrRenderTimeout),
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "browser connect failure",
			err:        fmt.Errorf("%w: no chrome binary", html2pdf.ErrBrowserConnect),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "arbitrary internal failure",
			err:        errors.New("websocket: broken pipe in devtools session"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{Err: tt.err}
			srv := newTestServer(nil, svc)

			rec := postPDF(t, srv.handler(), `{"html":"<p>x</p>"}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			msg := decodeError(t, rec)

			// Internal details must never leak to the caller.
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(msg, "devtools") {
				t.Errorf("internal error detail leaked to caller: %q", msg)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	// Health must report ok regardless of engine or admission state; a
	// service that fails every render does not change the answer.
	svc := &mockService{Err: errors.New("engine down")}
	srv := newTestServer(nil, svc)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health response is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf(`status field = %q, want "ok"`, body["status"])
	}
}

func TestHandleIndex(t *testing.T) {
	srv := newTestServer(nil, &mockService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("identity response is not JSON: %v", err)
	}
	if body["service"] != "go-html2pdf" {
		t.Errorf("service field = %q", body["service"])
	}
}

func TestHandleIndex_UnknownPath(t *testing.T) {
	srv := newTestServer(nil, &mockService{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		key        string
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "no secret configured disables check",
			secret:     "",
			key:        "",
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "missing key rejected",
			secret:     "s3cret",
			key:        "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key rejected",
			secret:     "s3cret",
			key:        "guess",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "correct key accepted",
			secret:     "s3cret",
			key:        "s3cret",
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.APIKey = tt.secret

			svc := &mockService{Result: []byte("%PDF-1.7")}
			srv := newTestServer(cfg, svc)

			req := httptest.NewRequest(http.MethodPost, "/pdf", strings.NewReader(`{"html":"<p>x</p>"}`))
			if tt.key != "" {
				req.Header.Set("x-rapidapi-key", tt.key)
			}
			rec := httptest.NewRecorder()
			srv.handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if svc.calls != tt.wantCalls {
				t.Errorf("service called %d times, want %d", svc.calls, tt.wantCalls)
			}
		})
	}
}
