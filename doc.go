// Package html2pdf renders raw HTML to PDF using headless Chrome.
//
// # Quick Start
//
// Create a service, render HTML, and close when done:
//
//	svc := html2pdf.New()
//	defer svc.Close()
//
//	pdf, err := svc.Render(ctx, "<h1>Hello</h1>")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.pdf", pdf, 0644)
//
// # Render Pipeline
//
// Each Render call runs a bounded pipeline:
//
//  1. Input validation (non-empty HTML after trimming)
//  2. Admission control (at most MaxConcurrent renders in flight;
//     overflow fails immediately with ErrCapacity, no queueing)
//  3. An isolated browsing context is created in the shared browser,
//     the HTML is loaded, and the pipeline waits for network quiescence
//  4. PDF export on A4 paper with 10 mm margins
//
// The shared browser process is launched lazily on first use (or eagerly
// via WarmUp) and reused across requests. Browsing contexts never outlive
// their request: every exit path, including timeout and cancellation,
// tears the context down before Render returns.
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := html2pdf.New(
//	    html2pdf.WithTimeout(15 * time.Second),
//	    html2pdf.WithMaxConcurrent(4),
//	)
//
// Rod downloads a Chromium build on first run if none is found. Set
// ROD_BROWSER_BIN to use a pre-installed browser (Docker/containerized
// environments).
package html2pdf
