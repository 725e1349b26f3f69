package html2pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// A4 page dimensions in inches, with fixed 10mm margins on all sides.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 10.0 / 25.4
)

// DefaultSettleWindow is the quiescence period used to decide that a page's
// network activity has finished. Content holding long-polling connections
// open never settles and runs into the render deadline instead.
const DefaultSettleWindow = 500 * time.Millisecond

// Compile-time interface check
var _ pdfRenderer = (*rodRenderer)(nil)

// rodRenderer renders HTML to PDF in a shared headless Chrome via go-rod.
// Each render gets its own incognito browsing context.
type rodRenderer struct {
	engine *engineHandle
	settle time.Duration
}

func newRodRenderer(settle time.Duration) *rodRenderer {
	return &rodRenderer{engine: &engineHandle{}, settle: settle}
}

// WarmUp launches the browser immediately instead of on first render.
func (r *rodRenderer) WarmUp() error {
	_, err := r.engine.acquire()
	return err
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	return r.engine.shutdown()
}

// RenderHTML loads html into a fresh incognito browsing context, waits for
// network quiescence, and exports the page as PDF. The context deadline
// bounds both the load and the export.
func (r *rodRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.engine.acquire()
	if err != nil {
		return nil, err
	}

	// Incognito context: cookies and cache must not leak between requests.
	inc, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	page, err := inc.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = proto.TargetDisposeBrowserContext{BrowserContextID: inc.BrowserContextID}.Call(browser)
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	// Teardown is deferred on the deadline-free page handle so that a
	// render canceled mid-step still destroys its browsing context.
	defer func() {
		_ = page.Close()
		_ = proto.TargetDisposeBrowserContext{BrowserContextID: inc.BrowserContextID}.Call(browser)
	}()

	bounded := page.Context(ctx)

	// Pass-through interception for every sub-resource fetch (images,
	// fonts, stylesheets). Extension point for allow/deny policies;
	// currently continues everything unconditionally.
	router := bounded.HijackRequests()
	err = router.Add("*", "", func(h *rod.Hijack) {
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	go router.Run()
	defer func() { _ = router.Stop() }()

	// The idle waiter must be armed before the content starts fetching
	// sub-resources.
	wait := bounded.WaitRequestIdle(r.settle, nil, nil, nil)
	if err := bounded.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := bounded.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	wait()

	// wait returns silently when the deadline cuts it short
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := bounded.PDF(a4PrintOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdf, nil
}

// a4PrintOptions returns fixed A4 print settings with backgrounds and
// print-affecting page styles honored.
func a4PrintOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		MarginTop:         floatPtr(marginInches),
		MarginBottom:      floatPtr(marginInches),
		MarginLeft:        floatPtr(marginInches),
		MarginRight:       floatPtr(marginInches),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
