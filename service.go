package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// defaultTimeout bounds a single render from admission to PDF export.
const defaultTimeout = 30 * time.Second

// pdfRenderer abstracts the browser-backed renderer to allow testing
// without a browser.
type pdfRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
	WarmUp() error
	Close() error
}

type serviceConfig struct {
	timeout       time.Duration
	settleWindow  time.Duration
	maxConcurrent int
}

// Service is the bounded render pipeline: one shared browser process, an
// admission gate capping concurrent renders, a deadline per render.
type Service struct {
	cfg      serviceConfig
	gate     *admission
	renderer pdfRenderer
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the per-render deadline covering content load and
// PDF export.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cfg.timeout = d
		}
	}
}

// WithMaxConcurrent sets the admission ceiling: how many renders may hold
// a browsing context simultaneously.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cfg.maxConcurrent = n
		}
	}
}

// WithSettleWindow sets the network-quiescence period that marks a page
// load as complete.
func WithSettleWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cfg.settleWindow = d
		}
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// withRenderer injects a renderer, bypassing browser creation (tests).
func withRenderer(r pdfRenderer) Option {
	return func(s *Service) {
		s.renderer = r
	}
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout:       defaultTimeout,
			settleWindow:  DefaultSettleWindow,
			maxConcurrent: DefaultMaxConcurrent,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.gate = newAdmission(s.cfg.maxConcurrent)

	// Create renderer if not injected (e.g., by tests)
	if s.renderer == nil {
		s.renderer = newRodRenderer(s.cfg.settleWindow)
	}

	return s
}

// Render runs the full pipeline and returns the PDF as bytes.
//
// Validation happens before any resource acquisition; admission before the
// browsing context is created. Whatever the outcome, the browsing context
// and the admission slot are both released before Render returns.
func (s *Service) Render(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}

	release, ok := s.gate.tryAcquire()
	if !ok {
		return nil, fmt.Errorf("%w: %d renders in flight", ErrCapacity, s.gate.InFlight())
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout)
	defer cancel()

	start := time.Now()
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			s.logger.Warn("render timed out",
				zap.Duration("timeout", s.cfg.timeout),
				zap.Int("html_bytes", len(html)))
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, s.cfg.timeout)
		}
		s.logger.Error("render failed", zap.Error(err))
		return nil, err
	}

	s.logger.Debug("render complete",
		zap.Int("pdf_bytes", len(pdf)),
		zap.Duration("elapsed", time.Since(start)))
	return pdf, nil
}

// WarmUp starts the browser eagerly so a launch failure surfaces at boot
// rather than on the first request.
func (s *Service) WarmUp() error {
	return s.renderer.WarmUp()
}

// InFlight reports how many renders currently hold an admission slot.
func (s *Service) InFlight() int64 {
	return s.gate.InFlight()
}

// Close releases resources (headless Chrome browser). In-flight renders
// observe the teardown as an error.
func (s *Service) Close() error {
	return s.renderer.Close()
}
