// Package browser defines the capability surface the capture pipeline drives.
// The rodbrowser and cdpbrowser packages implement it on top of Chrome;
// browsertest implements it in memory for tests.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrElementNotFound is returned by Page.First when nothing matches.
var ErrElementNotFound = errors.New("element not found")

// Browser is one launched browser session.
type Browser interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
	Close() error
}

// Page is a single tab.
type Page interface {
	SetViewport(ctx context.Context, vp Viewport) error
	// Navigate loads url and blocks until the wait policy is satisfied or ctx
	// expires.
	Navigate(ctx context.Context, url string, wait WaitPolicy) error
	// First returns the first element matching sel without waiting for it to
	// appear. It returns ErrElementNotFound when nothing matches.
	First(ctx context.Context, sel Selector) (Element, error)
	Press(ctx context.Context, key Key) error
	Pause(ctx context.Context, d time.Duration) error
	// WaitStable blocks until the document is loaded, the network is quiet and
	// the DOM stops changing, or until budget elapses. Running out of budget is
	// not an error.
	WaitStable(ctx context.Context, budget time.Duration) error
	Screenshot(ctx context.Context, extent Extent) ([]byte, error)
	Close() error
}

// Element is a resolved DOM node.
type Element interface {
	// WaitVisible reports whether the element became visible within timeout.
	WaitVisible(ctx context.Context, timeout time.Duration) (bool, error)
	Click(ctx context.Context) error
}

// PageOptions tweak how a page is opened.
type PageOptions struct {
	Stealth bool
}

// Viewport is the emulated device size.
type Viewport struct {
	Name   string
	Width  int
	Height int
	Mobile bool
}

var (
	Desktop = Viewport{Name: "desktop", Width: 1920, Height: 1080}
	Mobile  = Viewport{Name: "mobile", Width: 375, Height: 667, Mobile: true}
)

func (v Viewport) String() string {
	return fmt.Sprintf("%s (%dx%d)", v.Name, v.Width, v.Height)
}

// Extent selects the captured area.
type Extent string

const (
	ExtentFull     Extent = "full"
	ExtentViewport Extent = "viewport"
)

// WaitPolicy is the readiness condition Navigate waits for.
type WaitPolicy string

const (
	WaitLoad        WaitPolicy = "load"
	WaitNetworkIdle WaitPolicy = "network-idle"
)

// Key is a keyboard key dispatched with Page.Press.
type Key string

const KeyEscape Key = "Escape"

// Selector locates an element by CSS, optionally narrowed to elements whose
// visible text contains Text.
type Selector struct {
	CSS  string `yaml:"css"`
	Text string `yaml:"text,omitempty"`
}

// CSS builds a plain CSS selector.
func CSS(css string) Selector {
	return Selector{CSS: css}
}

// WithText builds a selector matching css elements whose text contains text,
// ignoring case.
func WithText(css, text string) Selector {
	return Selector{CSS: css, Text: text}
}

func (s Selector) String() string {
	if s.Text == "" {
		return s.CSS
	}
	return fmt.Sprintf("%s:has-text(%q)", s.CSS, s.Text)
}

// UnmarshalYAML accepts either a bare CSS string or a {css, text} mapping.
func (s *Selector) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.CSS = value.Value
		s.Text = ""
		return nil
	}
	type plain Selector
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	if p.CSS == "" {
		return fmt.Errorf("selector at line %d: css is required", value.Line)
	}
	*s = Selector(p)
	return nil
}
