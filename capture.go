package comparison

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/browser"
	"github.com/kevinfar25/comparison-scraper/pkg/browser/cdpbrowser"
	"github.com/kevinfar25/comparison-scraper/pkg/browser/rodbrowser"
	"github.com/kevinfar25/comparison-scraper/pkg/capture"
)

// Engine names a browser automation backend.
type Engine string

const (
	EngineRod      Engine = "rod"
	EngineChromedp Engine = "chromedp"
)

// ParseEngine accepts an engine name case-insensitively; empty means rod.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case EngineRod, "":
		return EngineRod, nil
	case EngineChromedp:
		return EngineChromedp, nil
	}
	return "", fmt.Errorf("unknown engine %q (want %q or %q)", s, EngineRod, EngineChromedp)
}

// pass opens a fresh page, captures target on it and closes it again.
func (r *Runner) pass(ctx context.Context, b browser.Browser, unit *capture.Unit, target capture.Target, role capture.Role, ts string) ([]capture.Artifact, error) {
	log.Infof("Taking %s screenshots of %s", role, target.Location)

	page, err := b.NewPage(ctx, browser.PageOptions{Stealth: r.Options.Stealth})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debugf("Failed to close %s page: %v", role, err)
		}
	}()

	artifacts, err := unit.Capture(ctx, page, target, role, ts)
	if err != nil {
		return artifacts, err
	}

	log.Infof("Finished %s screenshots", role)
	return artifacts, nil
}

// launchEngine starts the browser selected by Options.Engine.
func (r *Runner) launchEngine(ctx context.Context) (browser.Browser, error) {
	o := r.Options
	log.Debugf("Launching %s browser (headless=%t, slow motion=%s)", o.Engine, o.Headless, o.SlowMotion)

	switch o.Engine {
	case EngineChromedp:
		b, err := cdpbrowser.Launch(ctx, cdpbrowser.Options{
			Headless:                o.Headless,
			SlowMotion:              o.SlowMotion,
			UserAgent:               o.UserAgent,
			IgnoreCertificateErrors: o.IgnoreCertificateErrors,
			DisableHTTP2:            o.DisableHTTP2,
			NoSandbox:               o.NoSandbox,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case EngineRod, "":
		b, err := rodbrowser.Launch(ctx, rodbrowser.Options{
			Headless:                 o.Headless,
			SlowMotion:               o.SlowMotion,
			UserAgent:                o.UserAgent,
			RespectCertificateErrors: !o.IgnoreCertificateErrors,
			NoSandbox:                o.NoSandbox,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown engine %q", o.Engine)
}
