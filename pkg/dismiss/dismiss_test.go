package dismiss

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinfar25/comparison-scraper/pkg/browser"
	"github.com/kevinfar25/comparison-scraper/pkg/browser/browsertest"
)

func fast() *Dismisser {
	d := New()
	d.VisibleTimeout = time.Millisecond
	d.Animation = 0
	return d
}

func clicks(p *browsertest.Page) []string {
	var out []string
	for _, c := range p.Calls() {
		if strings.HasPrefix(c, "click ") {
			out = append(out, c)
		}
	}
	return out
}

func TestDefaultSelectorsOrder(t *testing.T) {
	require.Len(t, DefaultSelectors, 22)
	assert.Equal(t, `[data-testid="cookie-banner"] button`, DefaultSelectors[0].CSS)
	assert.Equal(t, `.fa-close`, DefaultSelectors[len(DefaultSelectors)-1].CSS)
	assert.Equal(t, browser.WithText("button", "Got it"), DefaultSelectors[17])
}

func TestNewAppendsExtraSelectors(t *testing.T) {
	extra := browser.CSS(".site-banner .x")
	d := New(extra)
	require.Len(t, d.Selectors, len(DefaultSelectors)+1)
	assert.Equal(t, extra, d.Selectors[len(d.Selectors)-1])
	assert.Equal(t, 2*time.Second, d.VisibleTimeout)
	assert.Equal(t, time.Second, d.Animation)
}

func TestDismissNoOverlays(t *testing.T) {
	page := browsertest.NewPage()

	res := fast().Dismiss(context.Background(), page)

	assert.Empty(t, clicks(page))
	assert.Empty(t, res.Clicked())
	assert.NoError(t, res.EscapeErr)
	require.Len(t, res.Attempts, len(DefaultSelectors))
	for _, a := range res.Attempts {
		assert.Equal(t, Absent, a.Outcome, a.Selector.String())
	}
	assert.Equal(t, 1, page.Count("press Escape"))
	assert.Equal(t, len(DefaultSelectors), countPrefix(page, "first "))
}

func TestDismissSingleVisibleMatch(t *testing.T) {
	page := browsertest.NewPage()
	sel := browser.CSS(`.cookie-consent button`)
	page.Add(sel, &browsertest.Element{Visible: true})

	res := fast().Dismiss(context.Background(), page)

	assert.Equal(t, []string{"click " + sel.String()}, clicks(page))
	assert.Equal(t, []browser.Selector{sel}, res.Clicked())

	calls := page.Calls()
	clickAt, escapeAt := indexOf(calls, "click "+sel.String()), indexOf(calls, "press Escape")
	require.GreaterOrEqual(t, clickAt, 0)
	assert.Less(t, clickAt, escapeAt, "click must precede the fallback key")
	assert.Equal(t, "pause 0s", calls[clickAt+1], "animation pause follows the click")
}

func TestDismissHiddenMatchIsNotClicked(t *testing.T) {
	page := browsertest.NewPage()
	sel := browser.WithText("button", "OK")
	page.Add(sel, &browsertest.Element{Visible: false})

	res := fast().Dismiss(context.Background(), page)

	assert.Empty(t, clicks(page))
	assert.Equal(t, Hidden, attemptFor(res, sel).Outcome)
}

func TestDismissAbsorbsFailures(t *testing.T) {
	page := browsertest.NewPage()
	boom := errors.New("node detached")

	detached := browser.CSS(".modal-close")
	page.Add(detached, &browsertest.Element{Visible: true, ClickErr: boom})
	broken := browser.CSS(".close")
	page.Add(broken, &browsertest.Element{VisibleErr: boom})
	page.FirstErr[browser.CSS(".btn-close").String()] = boom
	ok := browser.CSS(".popup-close")
	page.Add(ok, &browsertest.Element{Visible: true})

	res := fast().Dismiss(context.Background(), page)

	assert.Equal(t, Skipped, attemptFor(res, detached).Outcome)
	assert.ErrorIs(t, attemptFor(res, detached).Err, boom)
	assert.Equal(t, Skipped, attemptFor(res, broken).Outcome)
	assert.Equal(t, Skipped, attemptFor(res, browser.CSS(".btn-close")).Outcome)
	assert.Equal(t, []browser.Selector{ok}, res.Clicked(), "later selectors still run")
	assert.Equal(t, 1, page.Count("press Escape"))
}

func TestDismissAllSelectorsFailStillPressesEscapeOnce(t *testing.T) {
	page := browsertest.NewPage()
	for _, sel := range DefaultSelectors {
		page.FirstErr[sel.String()] = errors.New("evaluation failed")
	}

	res := fast().Dismiss(context.Background(), page)

	for _, a := range res.Attempts {
		assert.Equal(t, Skipped, a.Outcome)
	}
	assert.Equal(t, 1, page.Count("press Escape"))
}

func TestDismissEscapeFailureIsAbsorbed(t *testing.T) {
	page := browsertest.NewPage()
	page.PressErr = errors.New("no target")

	res := fast().Dismiss(context.Background(), page)

	assert.EqualError(t, res.EscapeErr, "no target")
}

func TestDismissCancelledContext(t *testing.T) {
	page := browsertest.NewPage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := fast().Dismiss(ctx, page)

	require.Len(t, res.Attempts, len(DefaultSelectors))
	for _, a := range res.Attempts {
		assert.Equal(t, Skipped, a.Outcome)
		assert.ErrorIs(t, a.Err, context.Canceled)
	}
	assert.ErrorIs(t, res.EscapeErr, context.Canceled)
	assert.Empty(t, page.Calls())
}

func attemptFor(res Result, sel browser.Selector) Attempt {
	for _, a := range res.Attempts {
		if a.Selector == sel {
			return a
		}
	}
	return Attempt{}
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}

func countPrefix(p *browsertest.Page, prefix string) int {
	n := 0
	for _, c := range p.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
