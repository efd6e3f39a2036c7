// Package rodbrowser implements browser.Browser with go-rod.
package rodbrowser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

// Options configure the launched Chrome.
type Options struct {
	Headless                 bool          // Run without a window
	SlowMotion               time.Duration // Delay between input actions
	Bin                      string        // Chrome binary, looked up when empty
	RemoteURL                string        // Connect to an existing Chrome instead of launching one
	UserAgent                string        // User agent override
	RespectCertificateErrors bool          // Fail on TLS certificate errors
	NoSandbox                bool          // Pass --no-sandbox
}

// Browser is a rod-driven Chrome session.
type Browser struct {
	opts    Options
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Launch starts Chrome (or connects to RemoteURL) and returns the session.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	b := &Browser{opts: opts}

	wsURL := opts.RemoteURL
	if wsURL == "" {
		bin := opts.Bin
		if bin == "" {
			bin, _ = launcher.LookPath()
		}

		l := launcher.New().
			Context(ctx).
			Headless(opts.Headless).
			NoSandbox(opts.NoSandbox)

		if bin != "" {
			l = l.Bin(bin)
		}

		if opts.UserAgent != "" {
			l.Set("user-agent", opts.UserAgent)
		}

		if !opts.RespectCertificateErrors {
			l.Set("ignore-certificate-errors", "true")
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		log.Debugf("Launched chrome at %s (headless: %v)", wsURL, opts.Headless)
	} else {
		log.Debugf("Connecting to chrome at %s", wsURL)
	}

	rb := rod.New().ControlURL(wsURL).Context(ctx)
	if opts.SlowMotion > 0 {
		rb = rb.SlowMotion(opts.SlowMotion)
	}
	if err := rb.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	// The launch context only bounds startup; pages get their own contexts.
	b.browser = rb.Context(context.Background())

	return b, nil
}

func (b *Browser) NewPage(ctx context.Context, opts browser.PageOptions) (browser.Page, error) {
	var (
		p   *rod.Page
		err error
	)
	if opts.Stealth {
		p, err = stealth.Page(b.browser.Context(ctx))
	} else {
		p, err = b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Page{page: p.Context(context.Background())}, nil
}

// Close shuts the browser down and removes the launcher's temporary profile.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	b.cleanup()
	return err
}

func (b *Browser) cleanup() {
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
}

// Page wraps a rod page.
type Page struct {
	page *rod.Page
}

func (p *Page) SetViewport(ctx context.Context, vp browser.Viewport) error {
	viewport := &proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: 1,
		Mobile:            vp.Mobile,
	}
	if err := p.page.Context(ctx).SetViewport(viewport); err != nil {
		return fmt.Errorf("set viewport %s: %w", vp, err)
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string, wait browser.WaitPolicy) error {
	page := p.page.Context(ctx)

	var waitIdle func()
	if wait == browser.WaitNetworkIdle {
		waitIdle = page.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if err := page.Navigate(url); err != nil {
		return err
	}

	if err := page.WaitLoad(); err != nil {
		return err
	}

	if waitIdle != nil {
		waitIdle()
	}

	return ctx.Err()
}

func (p *Page) First(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	page := p.page.Context(ctx).Sleeper(rod.NotFoundSleeper)

	var (
		el  *rod.Element
		err error
	)
	if sel.Text != "" {
		el, err = page.ElementR(sel.CSS, textPattern(sel.Text))
	} else {
		el, err = page.Element(sel.CSS)
	}

	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		return nil, browser.ErrElementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Element{el: el}, nil
}

// textPattern builds the ElementR pattern for a case-insensitive substring match.
func textPattern(text string) string {
	return "/" + regexp.QuoteMeta(text) + "/i"
}

func (p *Page) Press(ctx context.Context, key browser.Key) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// The keyboard is bound to the main frame's page, not to a context clone.
	return p.page.Keyboard.Type(k)
}

var keys = map[browser.Key]input.Key{
	browser.KeyEscape: input.Escape,
}

func (p *Page) Pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Page) WaitStable(ctx context.Context, budget time.Duration) error {
	bctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	err := p.page.Context(bctx).WaitStable(300 * time.Millisecond)
	if err != nil && bctx.Err() != nil && ctx.Err() == nil {
		log.Debugf("Page still changing after %s, capturing anyway", budget)
		return nil
	}
	return err
}

func (p *Page) Screenshot(ctx context.Context, extent browser.Extent) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(extent == browser.ExtentFull, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *Page) Close() error {
	return p.page.Close()
}

// Element wraps a rod element.
type Element struct {
	el *rod.Element
}

func (e *Element) WaitVisible(ctx context.Context, timeout time.Duration) (bool, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := e.el.Context(tctx).WaitVisible()
	if err == nil {
		return true, nil
	}
	if tctx.Err() != nil && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}

func (e *Element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}
