package config

import (
	"time"

	"github.com/kevinfar25/comparison-scraper/pkg/browser"
)

type Config struct {
	Reference ReferenceConfig `yaml:"reference"`
	Generated GeneratedConfig `yaml:"generated"`
	Output    string          `yaml:"output"`
	Browser   BrowserConfig   `yaml:"browser"`
	Capture   CaptureConfig   `yaml:"capture"`
	Dismiss   DismissConfig   `yaml:"dismiss"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ReferenceConfig struct {
	URL      string        `yaml:"url"`
	Name     string        `yaml:"name"`
	Timeout  time.Duration `yaml:"timeout"`  // e.g. 30s
	Required *bool         `yaml:"required"` // unset keeps the default
}

type GeneratedConfig struct {
	Path     string        `yaml:"path"`
	Name     string        `yaml:"name"`
	Timeout  time.Duration `yaml:"timeout"` // e.g. 10s
	Required *bool         `yaml:"required"`
}

type BrowserConfig struct {
	Engine     string        `yaml:"engine"` // "rod", "chromedp"
	Headless   *bool         `yaml:"headless"`
	SlowMotion time.Duration `yaml:"slowMotion"`
	Stealth    *bool         `yaml:"stealth"`
	UserAgent  string        `yaml:"userAgent"`
	NoSandbox  *bool         `yaml:"noSandbox"`
}

type CaptureConfig struct {
	Settle  string `yaml:"settle"` // "stable", "fixed"
	Imprint *bool  `yaml:"imprint"`
}

type DismissConfig struct {
	VisibleTimeout time.Duration      `yaml:"visibleTimeout"`
	Animation      time.Duration      `yaml:"animation"`
	Selectors      []browser.Selector `yaml:"selectors"` // appended to the built-in list
}

type ReportConfig struct {
	BrandColor string `yaml:"brandColor"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "info", "debug", "silent"
}
