// Package browser owns the single visible browser tab shared by the media
// and web search collaborators.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/tools"
)

const defaultNavigationTimeout = 20 * time.Second

type Config struct {
	Enabled  bool
	Bin      string
	Headless bool
	// NavigationTimeout bounds a navigation plus the wait for its selector.
	NavigationTimeout time.Duration
}

// Browser launches lazily on first use and reuses one tab afterwards.
type Browser struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

func New(cfg Config, logger *zap.Logger) *Browser {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{cfg: cfg, logger: logger}
}

// Open navigates the shared tab to url and leaves it there for the user.
func (b *Browser) Open(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	page, cancel, err := b.navigateLocked(ctx, url)
	if err != nil {
		return err
	}
	defer cancel()
	return page.WaitLoad()
}

// Render navigates to url, waits until waitSelector is present and returns
// the rendered document. An empty waitSelector waits for the load event
// only.
func (b *Browser) Render(ctx context.Context, url, waitSelector string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	page, cancel, err := b.navigateLocked(ctx, url)
	if err != nil {
		return "", err
	}
	defer cancel()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}
	if waitSelector != "" {
		if _, err := page.Element(waitSelector); err != nil {
			return "", fmt.Errorf("wait for %q: %w", waitSelector, err)
		}
	}
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

// Close shuts the browser down. It is safe to call when nothing was
// launched.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	b.page = nil
	return err
}

func (b *Browser) navigateLocked(ctx context.Context, url string) (*rod.Page, context.CancelFunc, error) {
	if err := b.ensureStartedLocked(); err != nil {
		return nil, nil, err
	}
	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	page := b.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	return page, cancel, nil
}

func (b *Browser) ensureStartedLocked() error {
	if !b.cfg.Enabled {
		return tools.ErrUnavailable
	}
	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return nil
		}
		b.logger.Warn("stale browser connection detected, relaunching")
		_ = b.browser.Close()
		b.browser = nil
		b.page = nil
	}

	launch := launcher.New().Headless(b.cfg.Headless)
	if b.cfg.Bin != "" {
		launch = launch.Bin(b.cfg.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("%w: launch browser: %v", tools.ErrUnavailable, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("%w: connect to browser: %v", tools.ErrUnavailable, err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("%w: open tab: %v", tools.ErrUnavailable, err)
	}

	b.browser = browser
	b.page = page
	b.logger.Info("browser started", zap.Bool("headless", b.cfg.Headless))
	return nil
}
