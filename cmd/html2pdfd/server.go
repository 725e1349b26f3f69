package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-html2pdf"
)

// renderGrace is added to the pipeline deadline as a secondary wall-clock
// cutoff, so a connection is never held open indefinitely even if internal
// cancellation is imperfect.
const renderGrace = 2 * time.Second

// renderService abstracts the render pipeline to allow testing handlers
// without a browser.
type renderService interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// server wires the render pipeline to HTTP.
type server struct {
	cfg    *Config
	svc    renderService
	logger *zap.Logger
}

func newServer(cfg *Config, svc renderService, logger *zap.Logger) *server {
	return &server{cfg: cfg, svc: svc, logger: logger}
}

// handler builds the route table. The render endpoint sits behind the
// boundary middleware (rate limit, then API key); probes stay open.
func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)

	var pdf http.Handler = http.HandlerFunc(s.handlePDF)
	pdf = s.requireAPIKey(pdf)
	if s.cfg.RateLimit > 0 {
		pdf = newRateLimiter(s.cfg.RateLimit, time.Minute).middleware(pdf)
	}
	mux.Handle("/pdf", pdf)

	return s.logRequests(mux)
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "go-html2pdf",
		"version": Version,
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// renderRequest is the POST /pdf body.
type renderRequest struct {
	HTML string `json:"html"`
}

func (s *server) handlePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed, use POST")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, `invalid request body: expected JSON {"html": string}`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout()+renderGrace)
	defer cancel()

	pdf, err := s.svc.Render(ctx, req.HTML)
	if err != nil {
		s.writeRenderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// writeRenderError maps pipeline failures to status codes. Internal details
// are logged, never returned to the caller.
func (s *server) writeRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, html2pdf.ErrEmptyHTML):
		writeError(w, http.StatusBadRequest, "html must be a non-empty string")
	case errors.Is(err, html2pdf.ErrCapacity):
		writeError(w, http.StatusTooManyRequests, "too many concurrent renders, try again later")
	case errors.Is(err, html2pdf.ErrRenderTimeout), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "render did not finish in time")
	default:
		s.logger.Error("render failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
