// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the yaml configuration of the e-paper tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/epaper/textpanel"
	"github.com/GermanBionicSystems/epaper/tricolor"
	"github.com/GermanBionicSystems/epaper/waveshare2in66b"
)

// Pins names the control lines, as known to gpioreg.
type Pins struct {
	DC   string `yaml:"dc"`
	RST  string `yaml:"rst"`
	Busy string `yaml:"busy"`
}

// Line is one line of text and its color: white, black or red.
type Line struct {
	Text  string `yaml:"text"`
	Color string `yaml:"color,omitempty"`
}

// Panel is the text shown instead of the demo picture.
type Panel struct {
	Title Line   `yaml:"title"`
	Lines []Line `yaml:"lines,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	// SPI is the port name for spireg; empty selects the first port.
	SPI  string `yaml:"spi"`
	Pins Pins   `yaml:"pins"`

	// Orientation is landscape, portrait, landscape-flipped or
	// portrait-flipped.
	Orientation string `yaml:"orientation"`

	// BusyPollLimit bounds every busy wait, in 10ms polls. 0 waits forever.
	BusyPollLimit int `yaml:"busy_poll_limit"`

	// Schedule is a standard 5 field cron spec. Empty draws once.
	Schedule string `yaml:"schedule,omitempty"`

	// Panel, when set, replaces the demo picture.
	Panel *Panel `yaml:"panel,omitempty"`
}

// DefaultConfig returns the configuration matching the Waveshare HAT.
func DefaultConfig() *Config {
	return &Config{
		Pins: Pins{
			DC:   "GPIO25",
			RST:  "GPIO17",
			Busy: "GPIO24",
		},
		Orientation: waveshare2in66b.Landscape.String(),
	}
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Pins.DC == "" {
		c.Pins.DC = d.Pins.DC
	}
	if c.Pins.RST == "" {
		c.Pins.RST = d.Pins.RST
	}
	if c.Pins.Busy == "" {
		c.Pins.Busy = d.Pins.Busy
	}
	if c.Orientation == "" {
		c.Orientation = d.Orientation
	}
	if c.BusyPollLimit < 0 {
		c.BusyPollLimit = 0
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var o waveshare2in66b.Orientation
	if err := o.Set(c.Orientation); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("config: schedule %q: %w", c.Schedule, err)
		}
	}
	if c.Panel != nil {
		if _, err := c.TextPanel(); err != nil {
			return err
		}
	}
	return nil
}

// Opts returns the driver options.
func (c *Config) Opts() (*waveshare2in66b.Opts, error) {
	opts := &waveshare2in66b.Opts{BusyPollLimit: c.BusyPollLimit}
	if err := opts.Orientation.Set(c.Orientation); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return opts, nil
}

// ParseColor maps a color name to a panel color. Empty is black.
func ParseColor(s string) (tricolor.Color, error) {
	switch strings.ToLower(s) {
	case "", "black":
		return tricolor.Black, nil
	case "white":
		return tricolor.White, nil
	case "red", "chromatic":
		return tricolor.Chromatic, nil
	}
	return 0, fmt.Errorf("config: unknown color %q: expected white, black or red", s)
}

// TextPanel builds the configured text panel, nil when none is configured.
func (c *Config) TextPanel() (*textpanel.Panel, error) {
	if c.Panel == nil {
		return nil, nil
	}
	tc, err := ParseColor(c.Panel.Title.Color)
	if err != nil {
		return nil, err
	}
	p := textpanel.New(textpanel.NewLine(c.Panel.Title.Text, tc))
	for i, l := range c.Panel.Lines {
		lc, err := ParseColor(l.Color)
		if err != nil {
			return nil, err
		}
		if err := p.AddLine(textpanel.Line{Text: l.Text, Color: lc}); err != nil {
			return nil, fmt.Errorf("config: panel line %d: %w", i+1, err)
		}
	}
	return p, nil
}

// Load loads the configuration from the yaml file at path.
//
// A missing file is created with the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path atomically, readable by the owner only.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epd2in66b-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
