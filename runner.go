package comparison

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/browser"
	"github.com/kevinfar25/comparison-scraper/pkg/capture"
	"github.com/kevinfar25/comparison-scraper/pkg/dismiss"
	"github.com/kevinfar25/comparison-scraper/pkg/report"
)

type Runner struct {
	Options *Options

	// Now is the clock the run timestamp is taken from.
	Now func() time.Time
	// Launch opens the browser session. It defaults to launching Options.Engine.
	Launch func(ctx context.Context) (browser.Browser, error)
}

// Options contains options for the runner
type Options struct {
	ReferenceURL      string        // Site to compare against
	ReferenceName     string        // Reference name used in the report
	ReferenceTimeout  time.Duration // Navigation bound for the reference site
	ReferenceRequired bool          // Abort the run when the reference pass fails

	LocalPath         string        // Generated document, relative to the working directory
	GeneratedName     string        // Generated site name used in the report
	LocalTimeout      time.Duration // Navigation bound for the local document
	GeneratedRequired bool          // Abort the run when the generated pass fails

	OutputDir string // Where screenshots and the report are written

	Engine                  Engine        // Browser automation backend
	Headless                bool          // Run in headless mode
	SlowMotion              time.Duration // Delay between input actions
	Stealth                 bool          // Mask automation fingerprints (rod only)
	UserAgent               string        // User agent to use
	IgnoreCertificateErrors bool          // Ignore certificate errors
	DisableHTTP2            bool          // Disable HTTP2 (chromedp only)
	NoSandbox               bool          // Pass --no-sandbox to Chrome

	Settle  capture.SettleMode // How pages settle before capture
	Imprint bool               // Caption each screenshot

	DismissSelectors []browser.Selector // Tried after the built-in pop-up selectors
	VisibleTimeout   time.Duration      // How long a pop-up match may take to become visible
	Animation        time.Duration      // Pause after dismissing a pop-up

	BrandColor string // Colour hint in the report checklist

	Silence bool // Silence output
	Verbose bool // Verbose logging
}

func init() {
	log.Init("comparison-scraper")
}

// DefaultOptions returns default options
func DefaultOptions() *Options {
	labels := report.DefaultLabels()

	return &Options{
		ReferenceURL:            "https://www.liverpoolfc.com/",
		ReferenceName:           labels.ReferenceName,
		ReferenceTimeout:        30 * time.Second,
		ReferenceRequired:       true,
		LocalPath:               "index.html",
		GeneratedName:           labels.GeneratedName,
		LocalTimeout:            10 * time.Second,
		OutputDir:               labels.OutputDir,
		Engine:                  EngineRod,
		SlowMotion:              time.Second,
		IgnoreCertificateErrors: true,
		DisableHTTP2:            true,
		Settle:                  capture.SettleStable,
		VisibleTimeout:          2 * time.Second,
		Animation:               time.Second,
		BrandColor:              labels.BrandColor,
	}
}

// NewRunner returns a new runner
func NewRunner() *Runner {
	log.Debug("Creating new runner...")

	return &Runner{
		Options: DefaultOptions(),
		Now:     time.Now,
	}
}

// NewRunnerWithOptions returns a new runner with the specified options
func NewRunnerWithOptions(options Options) *Runner {
	SetLogLevel(&options)
	log.Debug("Creating new runner with options...")

	return &Runner{
		Options: &options,
		Now:     time.Now,
	}
}

// Summary describes what a run produced.
type Summary struct {
	Timestamp  string
	Reference  PassResult
	Generated  PassResult
	ReportPath string // Empty when the run stopped before the report
}

// PassResult is the outcome of one capture pass. Artifacts holds what was
// actually written, which may be fewer than four when Err is set.
type PassResult struct {
	Role      capture.Role
	Target    capture.Target
	Artifacts []capture.Artifact
	Err       error
	Skipped   bool // The pass never ran because an earlier required pass failed
}

// Run captures the reference site, then the generated document under the same
// timestamp, and writes the comparison report. The browser session is closed
// on every return path.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	o := r.Options
	log.Info("Starting website design comparison")
	log.Infof("Comparing %s (%s) with %s (%s)", o.ReferenceName, o.ReferenceURL, o.GeneratedName, o.LocalPath)

	launch := r.Launch
	if launch == nil {
		launch = r.launchEngine
	}

	b, err := launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warnf("Failed to close browser: %v", err)
		}
	}()

	now := r.Now
	if now == nil {
		now = time.Now
	}

	unit := r.unit()
	summary := &Summary{Timestamp: capture.Timestamp(now())}

	passes := []struct {
		result   *PassResult
		target   capture.Target
		required bool
		hint     string
	}{
		{
			result:   &summary.Reference,
			target:   capture.RemoteTarget(o.ReferenceURL, o.ReferenceTimeout),
			required: o.ReferenceRequired,
			hint:     "Make sure the reference site is reachable from this machine.",
		},
		{
			result:   &summary.Generated,
			target:   capture.LocalTarget(o.LocalPath, o.LocalTimeout),
			required: o.GeneratedRequired,
			hint:     fmt.Sprintf("Make sure the %s file exists and is properly formatted.", filepath.Base(o.LocalPath)),
		},
	}
	summary.Reference.Role = capture.RoleReference
	summary.Generated.Role = capture.RoleGenerated

	for i, p := range passes {
		p.result.Target = p.target

		artifacts, err := r.pass(ctx, b, unit, p.target, p.result.Role, summary.Timestamp)
		p.result.Artifacts = artifacts
		if err == nil {
			continue
		}
		p.result.Err = err

		if p.required || ctx.Err() != nil {
			for _, rest := range passes[i+1:] {
				rest.result.Target = rest.target
				rest.result.Skipped = true
			}
			return summary, fmt.Errorf("%s pass: %w", p.result.Role, err)
		}

		log.Errorf("Error taking %s site screenshots: %v", p.result.Role, err)
		log.Warn(p.hint)
	}

	log.Info("Generating comparison report")
	summary.ReportPath, err = report.Write(o.OutputDir, summary.Timestamp, r.labels())
	if err != nil {
		return summary, err
	}
	log.Resultf("Comparison report saved to %s", summary.ReportPath)

	log.Info("Comparison process completed")
	log.Info("Next: review the screenshots side-by-side, work through the report checklist, then re-run to verify improvements")

	return summary, nil
}

func (r *Runner) unit() *capture.Unit {
	o := r.Options

	d := dismiss.New(o.DismissSelectors...)
	d.VisibleTimeout = o.VisibleTimeout
	d.Animation = o.Animation

	u := capture.NewUnit(o.OutputDir)
	u.Dismisser = d
	u.Settle = o.Settle
	u.Imprint = o.Imprint
	return u
}

func (r *Runner) labels() report.Labels {
	o := r.Options

	dir, err := filepath.Abs(o.OutputDir)
	if err != nil {
		dir = o.OutputDir
	}

	return report.Labels{
		ReferenceName: o.ReferenceName,
		GeneratedName: o.GeneratedName,
		BrandColor:    o.BrandColor,
		OutputDir:     dir,
	}
}

// SetLogLevel initiates the logger and sets the log level based on the options
func SetLogLevel(options *Options) {
	if options.Silence {
		log.SetLevel(log.FatalLevel)
	} else if options.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
