// Package report renders the markdown checklist that accompanies a comparison
// run.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/kevinfar25/comparison-scraper/pkg/capture"
)

// Labels are the fixed, per-run strings the report mentions.
type Labels struct {
	ReferenceName string
	GeneratedName string
	BrandColor    string
	OutputDir     string // Where the screenshots were written
}

// DefaultLabels returns the labels for the stock reference and generated sites.
func DefaultLabels() Labels {
	return Labels{
		ReferenceName: "Liverpool FC",
		GeneratedName: "Mobile Repair Site",
		BrandColor:    "#c8102e",
		OutputDir:     ".",
	}
}

// FileName is the report file name for a run.
func FileName(ts string) string {
	return fmt.Sprintf("comparison-report-%s.md", ts)
}

type view struct {
	Labels
	Timestamp   string
	GeneratedOn string
	Reference   []entry
	Generated   []entry
}

type entry struct {
	Name        string
	Description string
}

var descriptions = map[string]string{
	"desktop-full":     "Full page desktop view",
	"desktop-viewport": "Desktop viewport",
	"mobile-full":      "Full page mobile view",
	"mobile-viewport":  "Mobile viewport",
}

func entries(role capture.Role, ts string) []entry {
	var out []entry
	for _, a := range capture.ExpectedArtifacts(role, ts) {
		out = append(out, entry{
			Name:        a.Name(),
			Description: descriptions[a.Viewport+"-"+string(a.Extent)],
		})
	}
	return out
}

var reportTmpl = template.Must(template.New("report").Parse(`# Website Comparison Report
Generated on: {{.GeneratedOn}}
Timestamp: {{.Timestamp}}

## Screenshots Taken

### Reference Website ({{.ReferenceName}})
{{range .Reference}}- {{.Name}} ({{.Description}})
{{end}}
### Generated Website ({{.GeneratedName}})
{{range .Generated}}- {{.Name}} ({{.Description}})
{{end}}
## Comparison Checklist

### Layout & Structure
- [ ] Overall page hierarchy matches reference
- [ ] Section spacing is proportional
- [ ] Grid alignment is consistent
- [ ] Navigation placement is similar

### Visual Design
- [ ] Color scheme follows {{.ReferenceName}} inspiration{{if .BrandColor}} ({{.BrandColor}}){{end}}
- [ ] Typography is professional and readable
- [ ] Button styles are consistent
- [ ] Visual hierarchy is clear

### Responsive Behavior
- [ ] Mobile navigation functions properly
- [ ] Content reflows correctly at breakpoints
- [ ] Touch targets are appropriately sized
- [ ] Text remains readable on small screens

### User Experience
- [ ] Loading performance is acceptable
- [ ] Animations are smooth
- [ ] Forms function correctly
- [ ] Cross-browser compatibility verified

## Next Steps

1. Open screenshots side-by-side for visual comparison
2. Identify specific design gaps
3. Update CSS/HTML to address inconsistencies
4. Re-run comparison script to verify improvements
5. Repeat until design alignment is achieved

## Files Generated
All screenshots saved to: {{.OutputDir}}
`))

// Render returns the report for the run identified by ts. The output depends
// only on its arguments.
func Render(ts string, labels Labels) ([]byte, error) {
	at, err := capture.ParseTimestamp(ts)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}

	v := view{
		Labels:      labels,
		Timestamp:   ts,
		GeneratedOn: at.Format("Mon, 02 Jan 2006 15:04:05 MST"),
		Reference:   entries(capture.RoleReference, ts),
		Generated:   entries(capture.RoleGenerated, ts),
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the report and saves it into dir, returning its path. The
// listed screenshots are not checked for existence.
func Write(dir, ts string, labels Labels) (string, error) {
	content, err := Render(ts, labels)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(ts))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
