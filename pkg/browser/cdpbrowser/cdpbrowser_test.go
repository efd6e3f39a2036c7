package cdpbrowser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

func TestCustomFlags(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"defaults", Options{}, 1},
		{"headless only", Options{Headless: true}, 1},
		{"everything", Options{
			Headless:                true,
			IgnoreCertificateErrors: true,
			DisableHTTP2:            true,
			NoSandbox:               true,
			UserAgent:               "test-agent",
			ExecPath:                "/usr/bin/chromium",
		}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.opts.CustomFlags(), tt.want)
		})
	}
}

func findChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping chrome test in short mode")
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("chrome not found")
	return ""
}

func TestPageLifecycle(t *testing.T) {
	bin := findChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!doctype html><html><body>
<div class="modal"><button class="x">Got it</button></div>
<div style="display:none"><button>Dismiss</button></div>
<div class="consent"><button>ACCEPT ALL</button></div>
</body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	b, err := Launch(ctx, Options{Headless: true, NoSandbox: true, ExecPath: bin})
	require.NoError(t, err)
	defer b.Close()

	page, err := b.NewPage(ctx, browser.PageOptions{})
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.SetViewport(ctx, browser.Desktop))
	require.NoError(t, page.Navigate(ctx, srv.URL, browser.WaitLoad))

	t.Run("text match", func(t *testing.T) {
		el, err := page.First(ctx, browser.WithText("button", "Got it"))
		require.NoError(t, err)
		visible, err := el.WaitVisible(ctx, 2*time.Second)
		require.NoError(t, err)
		assert.True(t, visible)
		assert.NoError(t, el.Click(ctx))
	})

	t.Run("text match ignores case", func(t *testing.T) {
		el, err := page.First(ctx, browser.WithText("button", "Accept"))
		require.NoError(t, err)
		visible, err := el.WaitVisible(ctx, 2*time.Second)
		require.NoError(t, err)
		assert.True(t, visible)
	})

	t.Run("hidden element times out as not visible", func(t *testing.T) {
		el, err := page.First(ctx, browser.WithText("button", "Dismiss"))
		require.NoError(t, err)
		visible, err := el.WaitVisible(ctx, 300*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, visible)
	})

	t.Run("absent", func(t *testing.T) {
		_, err := page.First(ctx, browser.CSS("#nope"))
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
		_, err = page.First(ctx, browser.WithText("button", "Nope"))
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("screenshots", func(t *testing.T) {
		require.NoError(t, page.Press(ctx, browser.KeyEscape))
		require.NoError(t, page.WaitStable(ctx, time.Second))
		for _, extent := range []browser.Extent{browser.ExtentFull, browser.ExtentViewport} {
			buf, err := page.Screenshot(ctx, extent)
			require.NoError(t, err)
			assert.NotEmpty(t, buf)
		}
	})
}
