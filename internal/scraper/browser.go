package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

// BrowserPool renders pages in headless Chrome tabs sharing one allocator.
// It is the PageLoader for sites configured with render: browser.
type BrowserPool struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	logger   *zap.Logger

	once          sync.Once
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// BrowserConfig configures browser behavior
type BrowserConfig struct {
	Headless      bool
	Timeout       time.Duration
	UserAgent     string
	DisableImages bool
	WindowWidth   int
	WindowHeight  int
}

// DefaultBrowserConfig returns sensible defaults
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Headless:      true,
		Timeout:       30 * time.Second,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		DisableImages: true,
		WindowWidth:   1920,
		WindowHeight:  1080,
	}
}

// NewBrowserPool creates a new browser pool. Chrome starts lazily on the first Load.
func NewBrowserPool(logger *zap.Logger, config *BrowserConfig) *BrowserPool {
	if config == nil {
		config = DefaultBrowserConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
	}
	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserPool{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  config.Timeout,
		logger:   logger,
	}
}

// Close shuts down the browser pool
func (p *BrowserPool) Close() {
	if p.browserCancel != nil {
		p.browserCancel()
	}
	p.cancel()
}

// NewContext creates a new tab context from the pool. The first call starts the
// browser that every later tab shares.
func (p *BrowserPool) NewContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	p.once.Do(func() {
		p.browserCtx, p.browserCancel = chromedp.NewContext(p.allocCtx)
		if err := chromedp.Run(p.browserCtx); err != nil {
			p.logger.Error("Failed to start browser", zap.Error(err))
		}
	})

	ctx, cancel := chromedp.NewContext(p.browserCtx)
	if timeout > 0 {
		tctx, tcancel := context.WithTimeout(ctx, timeout)
		return tctx, func() {
			tcancel()
			cancel()
		}
	}
	return ctx, cancel
}

// Load renders url in a fresh tab. Cancelling ctx closes the tab.
func (p *BrowserPool) Load(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := p.NewContext(p.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	html, err := p.FetchPage(tabCtx, url, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return html, nil
}

// FetchPage fetches a page and returns its HTML content
func (p *BrowserPool) FetchPage(ctx context.Context, url string, waitSelector string) (string, error) {
	p.logger.Debug("Rendering page", zap.String("url", url))

	var html string

	actions := []chromedp.Action{
		chromedp.Navigate(url),
	}

	if waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))

	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}

	p.logger.Debug("Page rendered", zap.String("url", url), zap.Int("length", len(html)))
	return html, nil
}
