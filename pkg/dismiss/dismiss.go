// Package dismiss clears cookie banners, modals and promotional overlays off a
// page before it is captured. Every step is best effort: nothing here can fail
// a capture.
package dismiss

import (
	"context"
	"errors"
	"time"

	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

// DefaultSelectors lists common dismissal affordances, cookie/consent banners first
// since they appear first on load.
var DefaultSelectors = []browser.Selector{
	// Cookie banners
	browser.CSS(`[data-testid="cookie-banner"] button`),
	browser.CSS(`.cookie-banner button`),
	browser.CSS(`#cookie-banner button`),
	browser.CSS(`.cookie-consent button`),
	browser.CSS(`[aria-label*="Accept"]`),
	browser.CSS(`[aria-label*="Close"]`),
	browser.CSS(`button[data-dismiss="modal"]`),
	browser.CSS(`.modal-close`),
	browser.CSS(`.close`),
	browser.CSS(`.btn-close`),
	// Newsletter and promotional pop-ups
	browser.CSS(`.newsletter-popup .close`),
	browser.CSS(`.promo-popup .close`),
	browser.CSS(`.popup-close`),
	browser.CSS(`[data-testid="close-button"]`),
	browser.CSS(`[data-testid="modal-close"]`),
	// Generic buttons
	browser.WithText("button", "Close"),
	browser.WithText("button", "Accept"),
	browser.WithText("button", "Got it"),
	browser.WithText("button", "OK"),
	browser.WithText("button", "Dismiss"),
	// Icon fonts
	browser.CSS(`.fa-times`),
	browser.CSS(`.fa-close`),
}

// Outcome is what happened to one selector.
type Outcome string

const (
	Absent  Outcome = "absent"  // nothing matched
	Hidden  Outcome = "hidden"  // matched but not visible within the timeout
	Clicked Outcome = "clicked" // visible and clicked
	Skipped Outcome = "skipped" // an error was absorbed, see Attempt.Err
)

// Attempt records the result for one selector.
type Attempt struct {
	Selector browser.Selector
	Outcome  Outcome
	Err      error
}

// Result is the full record of a Dismiss call.
type Result struct {
	Attempts []Attempt
	// EscapeErr is the absorbed error of the fallback Escape press, if any.
	EscapeErr error
}

// Clicked returns the selectors that were clicked, in order.
func (r Result) Clicked() []browser.Selector {
	var out []browser.Selector
	for _, a := range r.Attempts {
		if a.Outcome == Clicked {
			out = append(out, a.Selector)
		}
	}
	return out
}

// Dismisser walks an ordered selector list and clicks whatever is visible.
type Dismisser struct {
	Selectors      []browser.Selector
	VisibleTimeout time.Duration // how long to wait for a match to become visible
	Animation      time.Duration // pause after each click and after Escape
}

// New returns a Dismisser over DefaultSelectors followed by extra.
func New(extra ...browser.Selector) *Dismisser {
	selectors := make([]browser.Selector, 0, len(DefaultSelectors)+len(extra))
	selectors = append(selectors, DefaultSelectors...)
	selectors = append(selectors, extra...)

	return &Dismisser{
		Selectors:      selectors,
		VisibleTimeout: 2 * time.Second,
		Animation:      time.Second,
	}
}

// Dismiss tries every selector once, then presses Escape once. It never fails;
// absorbed errors are reported in the Result.
func (d *Dismisser) Dismiss(ctx context.Context, page browser.Page) Result {
	log.Info("Checking for and closing pop-ups...")

	var res Result
	for _, sel := range d.Selectors {
		if err := ctx.Err(); err != nil {
			res.Attempts = append(res.Attempts, Attempt{Selector: sel, Outcome: Skipped, Err: err})
			continue
		}
		a := d.try(ctx, page, sel)
		if a.Outcome == Skipped {
			log.Debugf("Pop-up selector %s skipped: %v", sel, a.Err)
		}
		res.Attempts = append(res.Attempts, a)
	}

	if err := ctx.Err(); err != nil {
		res.EscapeErr = err
	} else if err := page.Press(ctx, browser.KeyEscape); err != nil {
		log.Debugf("Escape press failed: %v", err)
		res.EscapeErr = err
	} else {
		_ = page.Pause(ctx, d.Animation)
	}

	log.Infof("Pop-up handling complete (%d closed)", len(res.Clicked()))
	return res
}

func (d *Dismisser) try(ctx context.Context, page browser.Page, sel browser.Selector) Attempt {
	a := Attempt{Selector: sel}

	el, err := page.First(ctx, sel)
	if errors.Is(err, browser.ErrElementNotFound) {
		a.Outcome = Absent
		return a
	}
	if err != nil {
		a.Outcome, a.Err = Skipped, err
		return a
	}

	visible, err := el.WaitVisible(ctx, d.VisibleTimeout)
	if err != nil {
		a.Outcome, a.Err = Skipped, err
		return a
	}
	if !visible {
		a.Outcome = Hidden
		return a
	}

	log.Infof("Found pop-up with selector: %s", sel)
	if err := el.Click(ctx); err != nil {
		a.Outcome, a.Err = Skipped, err
		return a
	}
	_ = page.Pause(ctx, d.Animation)
	log.Infof("Closed pop-up: %s", sel)

	a.Outcome = Clicked
	return a
}
