package html2pdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyHTML      = errors.New("html content cannot be empty")
	ErrCapacity       = errors.New("render capacity exhausted")
	ErrRenderTimeout  = errors.New("render deadline exceeded")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)
