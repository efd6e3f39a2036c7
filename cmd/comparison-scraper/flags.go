package main

import (
	"time"

	"github.com/spf13/cobra"

	comparison "github.com/kevinfar25/comparison-scraper"
	"github.com/kevinfar25/comparison-scraper/internal/config"
	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/capture"
)

type cliFlags struct {
	ConfigFile string

	ReferenceURL     string
	LocalPath        string
	OutputDir        string
	Engine           string
	Headless         bool
	SlowMotion       time.Duration
	Stealth          bool
	Settle           string
	ReferenceTimeout time.Duration
	LocalTimeout     time.Duration
	Imprint          bool
	Strict           bool
	Debug            bool
	Silence          bool
}

func addFlags(cmd *cobra.Command, f *cliFlags) {
	d := comparison.DefaultOptions()
	flags := cmd.Flags()

	// INPUT
	flags.StringVarP(&f.ReferenceURL, "reference", "r", d.ReferenceURL, "reference site URL")
	flags.StringVarP(&f.LocalPath, "local", "l", d.LocalPath, "generated document to compare")
	flags.StringVarP(&f.ConfigFile, "config", "c", "", "YAML config file")

	// CONFIGURATIONS
	flags.StringVarP(&f.Engine, "engine", "e", string(d.Engine), "browser engine (rod, chromedp)")
	flags.BoolVar(&f.Headless, "headless", d.Headless, "run the browser without a window")
	flags.DurationVar(&f.SlowMotion, "slow-motion", d.SlowMotion, "delay between browser actions")
	flags.BoolVar(&f.Stealth, "stealth", d.Stealth, "mask automation fingerprints (rod only)")
	flags.StringVar(&f.Settle, "settle", string(d.Settle), "how pages settle before capture (stable, fixed)")
	flags.DurationVar(&f.ReferenceTimeout, "reference-timeout", d.ReferenceTimeout, "reference navigation timeout")
	flags.DurationVar(&f.LocalTimeout, "local-timeout", d.LocalTimeout, "local document navigation timeout")
	flags.BoolVar(&f.Strict, "strict", false, "fail the run when the generated pass fails")

	// OUTPUT
	flags.StringVarP(&f.OutputDir, "outfolder", "o", d.OutputDir, "save screenshots and the report to this folder")
	flags.BoolVar(&f.Imprint, "imprint", d.Imprint, "add a caption to every screenshot")
	flags.BoolVar(&f.Debug, "debug", false, "enable debug mode")
	flags.BoolVarP(&f.Silence, "silence", "s", false, "only log fatal errors")
}

// resolveOptions layers defaults, the config file and explicitly set flags,
// in that order.
func resolveOptions(cmd *cobra.Command, f *cliFlags) (*comparison.Options, error) {
	o := comparison.DefaultOptions()

	if f.ConfigFile != "" {
		log.Debugf("Loading config from %s", f.ConfigFile)
		cfg, err := config.Load(f.ConfigFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(o); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed

	if changed("reference") {
		o.ReferenceURL = f.ReferenceURL
	}
	if changed("local") {
		o.LocalPath = f.LocalPath
	}
	if changed("outfolder") {
		o.OutputDir = f.OutputDir
	}
	if changed("engine") {
		engine, err := comparison.ParseEngine(f.Engine)
		if err != nil {
			return nil, err
		}
		o.Engine = engine
	}
	if changed("headless") {
		o.Headless = f.Headless
	}
	if changed("slow-motion") {
		o.SlowMotion = f.SlowMotion
	}
	if changed("stealth") {
		o.Stealth = f.Stealth
	}
	if changed("settle") {
		mode, err := capture.ParseSettleMode(f.Settle)
		if err != nil {
			return nil, err
		}
		o.Settle = mode
	}
	if changed("reference-timeout") {
		o.ReferenceTimeout = f.ReferenceTimeout
	}
	if changed("local-timeout") {
		o.LocalTimeout = f.LocalTimeout
	}
	if changed("imprint") {
		o.Imprint = f.Imprint
	}
	if f.Strict {
		o.GeneratedRequired = true
	}
	if f.Debug {
		o.Verbose = true
	}
	if f.Silence {
		o.Silence = true
	}

	return o, nil
}
