// Package cdpbrowser implements browser.Browser with chromedp.
package cdpbrowser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

// Options configure the launched Chrome.
type Options struct {
	Headless                bool          // Run without a window
	SlowMotion              time.Duration // Delay before each input action
	ExecPath                string        // Chrome binary, chromedp's lookup when empty
	RemoteURL               string        // DevTools URL of an existing Chrome
	UserAgent               string        // User agent override
	IgnoreCertificateErrors bool          // Ignore TLS certificate errors
	DisableHTTP2            bool          // Disable HTTP2
	NoSandbox               bool          // Pass --no-sandbox
}

// CustomFlags returns the allocator options derived from opts.
func (opts Options) CustomFlags() []chromedp.ExecAllocatorOption {
	var customFlags []chromedp.ExecAllocatorOption

	customFlags = append(customFlags, chromedp.Flag("headless", opts.Headless))

	if opts.IgnoreCertificateErrors {
		customFlags = append(customFlags, chromedp.Flag("ignore-certificate-errors", true))
	}

	if opts.DisableHTTP2 {
		customFlags = append(customFlags, chromedp.Flag("disable-http2", true))
	}

	if opts.NoSandbox {
		customFlags = append(customFlags, chromedp.NoSandbox)
	}

	if opts.UserAgent != "" {
		customFlags = append(customFlags, chromedp.UserAgent(opts.UserAgent))
	}

	if opts.ExecPath != "" {
		customFlags = append(customFlags, chromedp.ExecPath(opts.ExecPath))
	}

	return customFlags
}

// Browser is a chromedp-driven Chrome session. Each page is its own target.
type Browser struct {
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	warnedStealth atomic.Bool
}

// Launch starts Chrome (or attaches to RemoteURL).
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	b := &Browser{opts: opts}

	var allocCtx context.Context
	if opts.RemoteURL != "" {
		log.Debugf("Connecting to chrome at %s", opts.RemoteURL)
		allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		// Create custom chromedp options by appending the custom flags to the default options.
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], opts.CustomFlags()...)
		allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	}

	b.browserCtx, b.browserCancel = chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))

	// Running with no actions starts the browser.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(b.browserCtx) }()
	select {
	case err := <-started:
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("start chrome: %w", err)
		}
	case <-ctx.Done():
		b.Close()
		return nil, fmt.Errorf("start chrome: %w", ctx.Err())
	}

	log.Debugf("Launched chrome (headless: %v)", opts.Headless)
	return b, nil
}

func (b *Browser) NewPage(ctx context.Context, opts browser.PageOptions) (browser.Page, error) {
	if opts.Stealth && b.warnedStealth.CompareAndSwap(false, true) {
		log.Warn("Stealth pages are only available with the rod engine, opening a regular page")
	}

	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	p := &Page{ctx: tabCtx, cancel: cancel, slowMotion: b.opts.SlowMotion}

	// The first Run on a fresh context creates the target and ties its event
	// loop to the context it is given, so it must run on tabCtx itself.
	opened := make(chan error, 1)
	go func() { opened <- chromedp.Run(tabCtx) }()
	select {
	case err := <-opened:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("open page: %w", err)
		}
	case <-ctx.Done():
		cancel()
		return nil, fmt.Errorf("open page: %w", ctx.Err())
	}
	return p, nil
}

func (b *Browser) Close() error {
	var err error
	if b.browserCtx != nil {
		err = chromedp.Cancel(b.browserCtx)
		b.browserCancel()
		b.browserCtx = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	return err
}

// Page is one chromedp target.
type Page struct {
	ctx        context.Context
	cancel     context.CancelFunc
	slowMotion time.Duration
	marks      atomic.Int64
}

// run executes actions on an open tab, bounded by the caller's ctx. Cancelling
// ctx aborts the actions without closing the tab.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(rctx, actions...)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *Page) slow(ctx context.Context) error {
	if p.slowMotion <= 0 {
		return nil
	}
	return p.Pause(ctx, p.slowMotion)
}

func (p *Page) SetViewport(ctx context.Context, vp browser.Viewport) error {
	var opts []chromedp.EmulateViewportOption
	if vp.Mobile {
		opts = append(opts, chromedp.EmulateMobile, chromedp.EmulateTouch, chromedp.EmulatePortrait)
	}
	if err := p.run(ctx, chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height), opts...)); err != nil {
		return fmt.Errorf("set viewport %s: %w", vp, err)
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string, wait browser.WaitPolicy) error {
	want := "load"
	if wait == browser.WaitNetworkIdle {
		want = "networkIdle"
	}

	lctx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	loaders := make(chan cdp.LoaderID, 32)
	chromedp.ListenTarget(lctx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == want {
			select {
			case loaders <- e.LoaderID:
			default:
			}
		}
	})

	var loaderID cdp.LoaderID
	err := p.run(ctx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var (
				errorText string
				err       error
			)
			_, loaderID, errorText, err = page.Navigate(url).Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" {
				return fmt.Errorf("navigate %s: %s", url, errorText)
			}
			return nil
		}),
	)
	if err != nil {
		return err
	}

	for {
		select {
		case id := <-loaders:
			if id == loaderID {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// markMatch tags the first css match whose text contains text, ignoring case,
// and reports whether one was found.
const markMatch = `((css, text, mark) => {
	const want = text.toLowerCase();
	for (const el of document.querySelectorAll(css)) {
		if ((el.innerText || el.textContent || "").toLowerCase().includes(want)) {
			el.setAttribute("data-cmp-match", mark);
			return true;
		}
	}
	return false;
})(%s, %s, %s)`

func (p *Page) First(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	query := sel.CSS

	if sel.Text != "" {
		mark := strconv.FormatInt(p.marks.Add(1), 10)
		var found bool
		expr := fmt.Sprintf(markMatch, strconv.Quote(sel.CSS), strconv.Quote(sel.Text), strconv.Quote(mark))
		if err := p.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
			return nil, err
		}
		if !found {
			return nil, browser.ErrElementNotFound
		}
		query = fmt.Sprintf(`[data-cmp-match="%s"]`, mark)
	}

	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(query, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, browser.ErrElementNotFound
	}
	return &Element{page: p, query: query}, nil
}

func (p *Page) Press(ctx context.Context, key browser.Key) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := p.slow(ctx); err != nil {
		return err
	}
	return p.run(ctx, chromedp.KeyEvent(k))
}

var keys = map[browser.Key]string{
	browser.KeyEscape: kb.Escape,
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

// domQuiet resolves once no mutation has been observed for the given window.
const domQuiet = `new Promise(resolve => {
	let timer;
	const done = () => { observer.disconnect(); resolve(true); };
	const observer = new MutationObserver(() => { clearTimeout(timer); timer = setTimeout(done, %d); });
	observer.observe(document, { subtree: true, childList: true, attributes: true, characterData: true });
	timer = setTimeout(done, %d);
})`

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func (p *Page) WaitStable(ctx context.Context, budget time.Duration) error {
	bctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	quiet := (300 * time.Millisecond).Milliseconds()
	var ok bool
	err := p.run(bctx,
		chromedp.Poll(`document.readyState === "complete"`, nil, chromedp.WithPollingInterval(100*time.Millisecond)),
		chromedp.Evaluate(fmt.Sprintf(domQuiet, quiet, quiet), &ok, awaitPromise),
	)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		log.Debugf("Page still changing after %s, capturing anyway", budget)
		return nil
	}
	return err
}

func (p *Page) Screenshot(ctx context.Context, extent browser.Extent) ([]byte, error) {
	var buf []byte
	var action chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if extent == browser.ExtentFull {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := p.run(ctx, action); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *Page) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}

// Element is addressed by a query that resolves to it.
type Element struct {
	page  *Page
	query string
}

func (e *Element) WaitVisible(ctx context.Context, timeout time.Duration) (bool, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := e.page.run(tctx, chromedp.WaitVisible(e.query, chromedp.ByQuery))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.page.slow(ctx); err != nil {
		return err
	}
	return e.page.run(ctx, chromedp.Click(e.query, chromedp.ByQuery, chromedp.NodeVisible))
}
