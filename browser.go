package html2pdf

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// engineHandle owns the single shared browser process.
// Many renders read it concurrently; it is written only during lazy init
// and shutdown, both serialized by the mutex so overlapping first requests
// are safe (first caller launches, the rest observe the ready browser).
type engineHandle struct {
	mu      sync.Mutex
	browser *rod.Browser
}

// acquire returns the shared browser, launching it if not already running.
// A failed launch leaves the handle empty so a later acquire can retry.
func (e *engineHandle) acquire() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		return e.browser, nil
	}

	// NoSandbox required for containerized execution
	l := launcher.New().NoSandbox(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	e.browser = browser
	return e.browser, nil
}

// shutdown terminates the browser process if running and clears the handle.
// Idempotent: calling it with no browser running is a no-op.
func (e *engineHandle) shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}

	err := e.browser.Close()
	e.browser = nil
	return err
}
