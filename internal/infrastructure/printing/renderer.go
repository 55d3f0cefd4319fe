package printing

import (
	"context"
	"time"
)

// PaperSize is a page size in millimeters
type PaperSize struct {
	WidthMM  float64
	HeightMM float64
}

// Margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

var (
	// PaperLetter is the default receipt page
	PaperLetter = PaperSize{WidthMM: 215.9, HeightMM: 279.4}
	// PaperA4 is the ISO A4 page
	PaperA4 = PaperSize{WidthMM: 210, HeightMM: 297}
)

// DefaultMargins returns 10mm on every side
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML      string
	Title     string
	PaperSize PaperSize
	Margins   Margins
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	RenderDuration time.Duration
}

// PDFRenderer converts HTML documents to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeTemplate      = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
