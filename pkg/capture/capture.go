// Package capture drives one page through the desktop and mobile viewports and
// writes a full-page and a viewport-only screenshot for each.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/browser"
	"github.com/kevinfar25/comparison-scraper/pkg/dismiss"
)

// SettleMode selects how the unit waits for a page to settle before capturing.
type SettleMode string

const (
	// SettleStable waits for load, network quiet and a stable DOM, bounded by
	// the settle interval.
	SettleStable SettleMode = "stable"
	// SettleFixed always pauses for the full settle interval.
	SettleFixed SettleMode = "fixed"
)

func ParseSettleMode(s string) (SettleMode, error) {
	switch SettleMode(s) {
	case SettleStable, SettleFixed:
		return SettleMode(s), nil
	case "":
		return SettleStable, nil
	}
	return "", fmt.Errorf("unknown settle mode %q (want %q or %q)", s, SettleStable, SettleFixed)
}

// Unit captures the four artifacts of a pass.
type Unit struct {
	Dir       string             // Output directory
	Dismisser *dismiss.Dismisser // Used on remote targets; nil disables dismissal
	Settle    SettleMode
	Imprint   bool // Add a caption band to each image

	Desktop browser.Viewport
	Mobile  browser.Viewport

	RemoteSettle time.Duration // Settle interval after loading a remote target
	LocalSettle  time.Duration // Settle interval after loading a local target
	MobileSettle time.Duration // Settle interval after switching to mobile
}

// NewUnit returns a Unit writing to dir with the default viewports and intervals.
func NewUnit(dir string) *Unit {
	return &Unit{
		Dir:          dir,
		Dismisser:    dismiss.New(),
		Settle:       SettleStable,
		Desktop:      browser.Desktop,
		Mobile:       browser.Mobile,
		RemoteSettle: 3 * time.Second,
		LocalSettle:  2 * time.Second,
		MobileSettle: 2 * time.Second,
	}
}

// Capture navigates page to target and writes the desktop and mobile
// artifacts named with role and ts. Artifacts written before a failure are
// returned together with the error.
func (u *Unit) Capture(ctx context.Context, page browser.Page, target Target, role Role, ts string) ([]Artifact, error) {
	var artifacts []Artifact

	addr, err := target.URL()
	if err != nil {
		return nil, &NavigationError{Target: target, Err: err}
	}

	if err := page.SetViewport(ctx, u.Desktop); err != nil {
		return nil, viewportError(role, u.Desktop, ts, err)
	}

	log.Infof("Navigating to %s", addr)
	navCtx, cancel := context.WithTimeout(ctx, target.Timeout)
	err = page.Navigate(navCtx, addr, target.Wait)
	cancel()
	if err != nil {
		return nil, &NavigationError{Target: target, Err: err}
	}

	settle := u.LocalSettle
	if target.Kind == Remote {
		settle = u.RemoteSettle
		if u.Dismisser != nil {
			u.Dismisser.Dismiss(ctx, page)
		}
	}

	if err := u.settle(ctx, page, settle); err != nil {
		return nil, viewportError(role, u.Desktop, ts, err)
	}

	log.Infof("Taking %s %s screenshots...", u.Desktop.Name, role)
	written, err := u.shoot(ctx, page, role, u.Desktop, ts)
	artifacts = append(artifacts, written...)
	if err != nil {
		return artifacts, err
	}

	if err := page.SetViewport(ctx, u.Mobile); err != nil {
		return artifacts, viewportError(role, u.Mobile, ts, err)
	}
	if err := u.settle(ctx, page, u.MobileSettle); err != nil {
		return artifacts, viewportError(role, u.Mobile, ts, err)
	}

	log.Infof("Taking %s %s screenshots...", u.Mobile.Name, role)
	written, err = u.shoot(ctx, page, role, u.Mobile, ts)
	artifacts = append(artifacts, written...)
	return artifacts, err
}

// viewportError reports a failure to prepare vp against the first artifact it
// would have produced.
func viewportError(role Role, vp browser.Viewport, ts string, err error) error {
	a := Artifact{Role: role, Viewport: vp.Name, Extent: browser.ExtentFull, Timestamp: ts}
	return &CaptureError{Artifact: a, Err: err}
}

func (u *Unit) settle(ctx context.Context, page browser.Page, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if u.Settle == SettleFixed {
		return page.Pause(ctx, d)
	}
	return page.WaitStable(ctx, d)
}

func (u *Unit) shoot(ctx context.Context, page browser.Page, role Role, vp browser.Viewport, ts string) ([]Artifact, error) {
	var out []Artifact
	for _, extent := range []browser.Extent{browser.ExtentFull, browser.ExtentViewport} {
		a := Artifact{Role: role, Viewport: vp.Name, Extent: extent, Timestamp: ts}

		img, err := page.Screenshot(ctx, extent)
		if err != nil {
			return out, &CaptureError{Artifact: a, Err: err}
		}

		if u.Imprint {
			img, err = Imprint(img, a.Caption())
			if err != nil {
				return out, &CaptureError{Artifact: a, Err: err}
			}
		}

		a.Path, err = u.write(a, img)
		if err != nil {
			return out, &CaptureError{Artifact: a, Err: err}
		}

		log.Resultf("Screenshot saved to %s", a.Path)
		out = append(out, a)
	}
	return out, nil
}

func (u *Unit) write(a Artifact, img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("empty image")
	}

	if err := os.MkdirAll(u.Dir, os.ModePerm); err != nil {
		return "", err
	}

	filename := filepath.Join(u.Dir, a.Name())
	if err := os.WriteFile(filename, img, 0o644); err != nil {
		return "", err
	}

	return filename, nil
}
