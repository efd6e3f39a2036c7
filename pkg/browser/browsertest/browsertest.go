// Package browsertest provides an in-memory browser.Browser that records every
// call, for exercising the capture pipeline without Chrome.
package browsertest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

// Browser is a fake session. Configure pages through Setup before they are
// opened.
type Browser struct {
	// Setup, if set, is applied to every page right after it is opened.
	Setup      func(p *Page)
	NewPageErr error

	mu     sync.Mutex
	pages  []*Page
	closed bool
}

func New() *Browser {
	return &Browser{}
}

func (b *Browser) NewPage(ctx context.Context, opts browser.PageOptions) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	p := NewPage()
	p.Opts = opts
	if b.Setup != nil {
		b.Setup(p)
	}
	b.mu.Lock()
	b.pages = append(b.pages, p)
	b.mu.Unlock()
	return p, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Pages returns the pages opened so far, in order.
func (b *Browser) Pages() []*Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Page(nil), b.pages...)
}

// Page records calls and serves scripted elements.
type Page struct {
	Opts browser.PageOptions

	// Elements maps Selector.String() to the element First returns.
	Elements map[string]*Element
	// NavigateErr maps a URL to the error Navigate returns for it.
	NavigateErr map[string]error
	// FirstErr maps Selector.String() to an error First returns instead of an element.
	FirstErr      map[string]error
	PressErr      error
	ViewportErr   error
	ScreenshotErr error
	// Image is returned by Screenshot; a small PNG when nil.
	Image []byte

	mu       sync.Mutex
	calls    []string
	viewport browser.Viewport
	closed   bool
}

func NewPage() *Page {
	return &Page{
		Elements:    map[string]*Element{},
		NavigateErr: map[string]error{},
		FirstErr:    map[string]error{},
	}
}

// Add registers el under sel and returns it.
func (p *Page) Add(sel browser.Selector, el *Element) *Element {
	el.page = p
	el.sel = sel
	p.Elements[sel.String()] = el
	return el
}

func (p *Page) record(format string, args ...interface{}) {
	p.mu.Lock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	p.mu.Unlock()
}

// Calls returns the recorded operations, e.g. "navigate https://x", "press Escape".
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Count returns how many recorded calls equal call.
func (p *Page) Count(call string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (p *Page) Viewport() browser.Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) SetViewport(ctx context.Context, vp browser.Viewport) error {
	p.record("viewport %s", vp.Name)
	if p.ViewportErr != nil {
		return p.ViewportErr
	}
	p.mu.Lock()
	p.viewport = vp
	p.mu.Unlock()
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string, wait browser.WaitPolicy) error {
	p.record("navigate %s", url)
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.NavigateErr[url]
}

func (p *Page) First(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	p.record("first %s", sel)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.FirstErr[sel.String()]; err != nil {
		return nil, err
	}
	el, ok := p.Elements[sel.String()]
	if !ok {
		return nil, browser.ErrElementNotFound
	}
	return el, nil
}

func (p *Page) Press(ctx context.Context, key browser.Key) error {
	p.record("press %s", key)
	return p.PressErr
}

func (p *Page) Pause(ctx context.Context, d time.Duration) error {
	p.record("pause %s", d)
	return ctx.Err()
}

func (p *Page) WaitStable(ctx context.Context, budget time.Duration) error {
	p.record("stable %s", budget)
	return ctx.Err()
}

func (p *Page) Screenshot(ctx context.Context, extent browser.Extent) ([]byte, error) {
	p.record("screenshot %s %s", p.Viewport().Name, extent)
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	if p.Image != nil {
		return p.Image, nil
	}
	return SamplePNG(8, 8), nil
}

func (p *Page) Close() error {
	p.record("close")
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Element is a scripted DOM node.
type Element struct {
	Visible    bool
	VisibleErr error
	ClickErr   error

	page *Page
	sel  browser.Selector
}

func (e *Element) WaitVisible(ctx context.Context, timeout time.Duration) (bool, error) {
	e.page.record("visible %s", e.sel)
	if e.VisibleErr != nil {
		return false, e.VisibleErr
	}
	return e.Visible, nil
}

func (e *Element) Click(ctx context.Context) error {
	e.page.record("click %s", e.sel)
	return e.ClickErr
}

// SamplePNG encodes a w×h opaque PNG.
func SamplePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 16, B: 46, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
