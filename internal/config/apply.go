package config

import (
	"fmt"
	"strings"
	"time"

	comparison "github.com/kevinfar25/comparison-scraper"
	"github.com/kevinfar25/comparison-scraper/pkg/capture"
)

// Apply copies every value set in the file onto o. Zero values leave o alone.
func (c *Config) Apply(o *comparison.Options) error {
	setString(&o.ReferenceURL, c.Reference.URL)
	setString(&o.ReferenceName, c.Reference.Name)
	setDuration(&o.ReferenceTimeout, c.Reference.Timeout)
	setBool(&o.ReferenceRequired, c.Reference.Required)

	setString(&o.LocalPath, c.Generated.Path)
	setString(&o.GeneratedName, c.Generated.Name)
	setDuration(&o.LocalTimeout, c.Generated.Timeout)
	setBool(&o.GeneratedRequired, c.Generated.Required)

	setString(&o.OutputDir, c.Output)

	if c.Browser.Engine != "" {
		engine, err := comparison.ParseEngine(c.Browser.Engine)
		if err != nil {
			return fmt.Errorf("browser.engine: %w", err)
		}
		o.Engine = engine
	}
	setBool(&o.Headless, c.Browser.Headless)
	setDuration(&o.SlowMotion, c.Browser.SlowMotion)
	setBool(&o.Stealth, c.Browser.Stealth)
	setString(&o.UserAgent, c.Browser.UserAgent)
	setBool(&o.NoSandbox, c.Browser.NoSandbox)

	if c.Capture.Settle != "" {
		mode, err := capture.ParseSettleMode(c.Capture.Settle)
		if err != nil {
			return fmt.Errorf("capture.settle: %w", err)
		}
		o.Settle = mode
	}
	setBool(&o.Imprint, c.Capture.Imprint)

	setDuration(&o.VisibleTimeout, c.Dismiss.VisibleTimeout)
	setDuration(&o.Animation, c.Dismiss.Animation)
	o.DismissSelectors = append(o.DismissSelectors, c.Dismiss.Selectors...)

	setString(&o.BrandColor, c.Report.BrandColor)

	switch strings.ToLower(c.Logging.Level) {
	case "":
	case "debug":
		o.Verbose = true
	case "info":
		o.Verbose, o.Silence = false, false
	case "silent", "fatal":
		o.Silence = true
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
