package rodbrowser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

const overlayPage = `<!doctype html>
<html><body style="height:3000px">
<div class="cookie-banner"><button onclick="this.parentNode.remove()">Accept</button></div>
<div class="consent"><button class="all">ACCEPT ALL</button></div>
<p>content</p>
</body></html>`

func launchOrSkip(t *testing.T) *Browser {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping chrome test in short mode")
	}
	if _, has := launcher.LookPath(); !has {
		t.Skip("chrome not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := Launch(ctx, Options{Headless: true, NoSandbox: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPageLifecycle(t *testing.T) {
	b := launchOrSkip(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(overlayPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := b.NewPage(ctx, browser.PageOptions{})
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.SetViewport(ctx, browser.Mobile))
	require.NoError(t, page.Navigate(ctx, srv.URL, browser.WaitNetworkIdle))

	t.Run("missing element", func(t *testing.T) {
		_, err := page.First(ctx, browser.CSS(".does-not-exist"))
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("text selector ignores case", func(t *testing.T) {
		_, err := page.First(ctx, browser.WithText(".consent button", "Accept all"))
		require.NoError(t, err)
		_, err = page.First(ctx, browser.WithText("button", "accept"))
		require.NoError(t, err)
	})

	t.Run("text selector clicks", func(t *testing.T) {
		el, err := page.First(ctx, browser.WithText("button", "Accept"))
		require.NoError(t, err)
		visible, err := el.WaitVisible(ctx, 2*time.Second)
		require.NoError(t, err)
		assert.True(t, visible)
		require.NoError(t, el.Click(ctx))

		_, err = page.First(ctx, browser.CSS(".cookie-banner"))
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("escape and screenshots", func(t *testing.T) {
		require.NoError(t, page.Press(ctx, browser.KeyEscape))
		require.NoError(t, page.WaitStable(ctx, 2*time.Second))

		full, err := page.Screenshot(ctx, browser.ExtentFull)
		require.NoError(t, err)
		view, err := page.Screenshot(ctx, browser.ExtentViewport)
		require.NoError(t, err)
		assert.NotEmpty(t, full)
		assert.NotEmpty(t, view)
	})
}

func TestTextPattern(t *testing.T) {
	assert.Equal(t, "/Accept/i", textPattern("Accept"))
	assert.Equal(t, `/Got it\.\(1\)/i`, textPattern("Got it.(1)"))
}

func TestNavigateTimeout(t *testing.T) {
	b := launchOrSkip(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}))
	defer srv.Close()

	page, err := b.NewPage(context.Background(), browser.PageOptions{})
	require.NoError(t, err)
	defer page.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err = page.Navigate(ctx, srv.URL, browser.WaitNetworkIdle)
	assert.Error(t, err)
}
