package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultChromeTimeout = 30 * time.Second

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	DefaultTimeout time.Duration
	// RemoteURL is a DevTools websocket endpoint; empty launches a local browser
	RemoteURL string
	// NoSandbox is required when Chrome runs as root inside a container
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer renders HTML to PDF using Chrome DevTools Protocol
type ChromedpRenderer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a new chromedp-based PDF renderer.
// The browser is started lazily on the first Render call.
func NewChromedpRenderer(config ChromedpConfig) *ChromedpRenderer {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{config: config, logger: logger}
	r.allocCtx, r.allocCancel = r.newAllocator()
	return r
}

func (r *ChromedpRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

func (r *ChromedpRenderer) newAllocator() (context.Context, context.CancelFunc) {
	if r.config.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
	}
	return chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
}

// Render converts HTML content to PDF
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}

	startTime := time.Now()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// Tie the browser tab to the caller's deadline.
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	params := buildPrintParams(req)
	var pdfData []byte

	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, req.HTML).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(params.paperWidth).
				WithPaperHeight(params.paperHeight).
				WithMarginTop(params.marginTop).
				WithMarginRight(params.marginRight).
				WithMarginBottom(params.marginBottom).
				WithMarginLeft(params.marginLeft).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	duration := time.Since(startTime)
	r.logger.Debug("PDF rendered",
		zap.String("title", req.Title),
		zap.Int("bytes", len(pdfData)),
		zap.Duration("duration", duration))

	return &RenderResult{PDFData: pdfData, RenderDuration: duration}, nil
}

// printParams holds page geometry in inches
type printParams struct {
	paperWidth   float64
	paperHeight  float64
	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64
}

func buildPrintParams(req *RenderRequest) printParams {
	size := req.PaperSize
	if size.WidthMM <= 0 || size.HeightMM <= 0 {
		size = PaperLetter
	}
	return printParams{
		paperWidth:   mmToInches(size.WidthMM),
		paperHeight:  mmToInches(size.HeightMM),
		marginTop:    mmToInches(req.Margins.Top),
		marginRight:  mmToInches(req.Margins.Right),
		marginBottom: mmToInches(req.Margins.Bottom),
		marginLeft:   mmToInches(req.Margins.Left),
	}
}

// Close releases resources held by the renderer
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
