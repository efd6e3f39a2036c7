package capture

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

// TimestampLayout is ISO-8601 truncated to seconds with ':' replaced by '-',
// so it is safe in file names on every platform.
const TimestampLayout = "2006-01-02T15-04-05"

// Timestamp formats t (in UTC) as a run timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp is the inverse of Timestamp.
func ParseTimestamp(ts string) (time.Time, error) {
	return time.Parse(TimestampLayout, ts)
}

// Role tells the two capture passes apart.
type Role string

const (
	RoleReference Role = "reference"
	RoleGenerated Role = "generated"
)

// Artifact is one screenshot file.
type Artifact struct {
	Role      Role
	Viewport  string
	Extent    browser.Extent
	Timestamp string
	// Path is set once the file has been written.
	Path string
}

// Name is the file name: {role}-{viewport}-{extent}-{timestamp}.png
func (a Artifact) Name() string {
	return fmt.Sprintf("%s-%s-%s-%s.png", a.Role, a.Viewport, a.Extent, a.Timestamp)
}

// Caption is the human readable label imprinted under the image.
func (a Artifact) Caption() string {
	return fmt.Sprintf("%s · %s · %s · %s", a.Role, a.Viewport, a.Extent, a.Timestamp)
}

// ExpectedArtifacts lists the four artifacts a successful pass writes, in
// capture order.
func ExpectedArtifacts(role Role, ts string) []Artifact {
	var out []Artifact
	for _, vp := range []browser.Viewport{browser.Desktop, browser.Mobile} {
		for _, ext := range []browser.Extent{browser.ExtentFull, browser.ExtentViewport} {
			out = append(out, Artifact{Role: role, Viewport: vp.Name, Extent: ext, Timestamp: ts})
		}
	}
	return out
}

// TargetKind distinguishes remote sites from local documents.
type TargetKind int

const (
	Remote TargetKind = iota
	Local
)

func (k TargetKind) String() string {
	if k == Local {
		return "local"
	}
	return "remote"
}

// Target is what a pass navigates to.
type Target struct {
	Kind     TargetKind
	Location string // URL for remote targets, file path for local ones
	Timeout  time.Duration
	Wait     browser.WaitPolicy
}

func RemoteTarget(rawURL string, timeout time.Duration) Target {
	return Target{Kind: Remote, Location: rawURL, Timeout: timeout, Wait: browser.WaitNetworkIdle}
}

func LocalTarget(path string, timeout time.Duration) Target {
	return Target{Kind: Local, Location: path, Timeout: timeout, Wait: browser.WaitNetworkIdle}
}

// URL resolves the address to navigate to. Local paths are made absolute
// against the working directory and must exist.
func (t Target) URL() (string, error) {
	if t.Kind == Remote {
		u, err := url.Parse(strings.TrimSpace(t.Location))
		if err != nil {
			return "", err
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("unsupported scheme %q in %s", u.Scheme, t.Location)
		}
		return u.String(), nil
	}

	abs, err := filepath.Abs(t.Location)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", abs)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		// Windows drive letters
		u.Path = "/" + u.Path
	}
	return u.String(), nil
}
