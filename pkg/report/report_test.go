package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinfar25/comparison-scraper/pkg/capture"
)

const ts = "2024-01-15T10-30-00"

func TestRenderIsIdempotent(t *testing.T) {
	a, err := Render(ts, DefaultLabels())
	require.NoError(t, err)
	b, err := Render(ts, DefaultLabels())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRenderListsAllEightArtifacts(t *testing.T) {
	out, err := Render(ts, DefaultLabels())
	require.NoError(t, err)
	text := string(out)

	for _, role := range []capture.Role{capture.RoleReference, capture.RoleGenerated} {
		for _, a := range capture.ExpectedArtifacts(role, ts) {
			assert.Contains(t, text, "- "+a.Name()+" (")
		}
	}
	assert.Contains(t, text, "reference-desktop-full-"+ts+".png (Full page desktop view)")
	assert.Contains(t, text, "generated-mobile-viewport-"+ts+".png (Mobile viewport)")
}

func TestRenderSections(t *testing.T) {
	out, err := Render(ts, DefaultLabels())
	require.NoError(t, err)
	text := string(out)

	for _, want := range []string{
		"# Website Comparison Report\n",
		"Generated on: Mon, 15 Jan 2024 10:30:00 UTC\n",
		"Timestamp: " + ts + "\n",
		"### Reference Website (Liverpool FC)\n",
		"### Generated Website (Mobile Repair Site)\n",
		"### Layout & Structure\n",
		"### Visual Design\n",
		"### Responsive Behavior\n",
		"### User Experience\n",
		"- [ ] Color scheme follows Liverpool FC inspiration (#c8102e)\n",
		"## Next Steps\n",
		"All screenshots saved to: .\n",
	} {
		assert.Contains(t, text, want)
	}
	assert.Equal(t, 16, strings.Count(text, "- [ ] "))
}

func TestRenderCustomLabels(t *testing.T) {
	out, err := Render(ts, Labels{ReferenceName: "Acme", GeneratedName: "Draft", OutputDir: "/tmp/shots"})
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "### Reference Website (Acme)\n")
	assert.Contains(t, text, "### Generated Website (Draft)\n")
	assert.Contains(t, text, "- [ ] Color scheme follows Acme inspiration\n")
	assert.Contains(t, text, "All screenshots saved to: /tmp/shots\n")
}

func TestRenderRejectsBadTimestamp(t *testing.T) {
	_, err := Render("2024-01-15 10:30:00", DefaultLabels())
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := Write(dir, ts, DefaultLabels())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "comparison-report-"+ts+".md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, _ := Render(ts, DefaultLabels())
	assert.Equal(t, want, data)

	// None of the listed screenshots exist; the report is written anyway.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
