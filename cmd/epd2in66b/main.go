// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epd2in66b draws a text panel or the demo picture on a Waveshare 2.66inch
// e-Paper (B), once or on a cron schedule.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/epaper/internal/config"
	appLog "github.com/GermanBionicSystems/epaper/internal/log"
	"github.com/GermanBionicSystems/epaper/preview"
	"github.com/GermanBionicSystems/epaper/screen2d"
	"github.com/GermanBionicSystems/epaper/waveshare2in66b"
	"github.com/GermanBionicSystems/epaper/waveshare2in66b/epdtest"
)

// flagConfig holds the command line, applied over the config file.
type flagConfig struct {
	configPath  string
	spi         string
	dc          string
	rst         string
	busy        string
	orientation string
	schedule    string
	http        string
	sim         bool
	once        bool
	verbose     bool
}

func parseFlags(fs *flag.FlagSet, args []string) (flagConfig, error) {
	var f flagConfig
	fs.StringVar(&f.configPath, "config", "", "Path to the yaml config file; created with defaults when missing")
	fs.StringVar(&f.spi, "spi", "", "SPI port (overrides config)")
	fs.StringVar(&f.dc, "dc", "", "DC pin (overrides config)")
	fs.StringVar(&f.rst, "rst", "", "RST pin (overrides config)")
	fs.StringVar(&f.busy, "busy", "", "BUSY pin (overrides config)")
	fs.StringVar(&f.orientation, "orientation", "", "landscape, portrait, landscape-flipped or portrait-flipped (overrides config)")
	fs.StringVar(&f.schedule, "schedule", "", "cron spec for periodic redraws (overrides config)")
	fs.StringVar(&f.http, "http", "", "Serve the panel frame over HTTP on this address, e.g. :8010")
	fs.BoolVar(&f.sim, "sim", false, "Use a simulated panel and print it to the terminal")
	fs.BoolVar(&f.once, "once", false, "Draw once and exit, even when a schedule is configured")
	fs.BoolVar(&f.verbose, "v", false, "Verbose logging")
	err := fs.Parse(args)
	return f, err
}

// loadConfig reads the config file, if any, and applies the flags over it.
func loadConfig(f flagConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	for _, o := range []struct {
		dst *string
		v   string
	}{
		{&cfg.SPI, f.spi},
		{&cfg.Pins.DC, f.dc},
		{&cfg.Pins.RST, f.rst},
		{&cfg.Pins.Busy, f.busy},
		{&cfg.Orientation, f.orientation},
		{&cfg.Schedule, f.schedule},
	} {
		if o.v != "" {
			*o.dst = o.v
		}
	}
	if f.once {
		cfg.Schedule = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

// openHardware opens the SPI port and pins named in cfg.
func openHardware(cfg *config.Config, opts *waveshare2in66b.Opts) (*waveshare2in66b.Dev, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	dc, err := pin(cfg.Pins.DC)
	if err != nil {
		return nil, nil, err
	}
	rst, err := pin(cfg.Pins.RST)
	if err != nil {
		return nil, nil, err
	}
	busy, err := pin(cfg.Pins.Busy)
	if err != nil {
		return nil, nil, err
	}
	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, nil, err
	}
	dev, err := waveshare2in66b.New(port, dc, rst, busy, opts)
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	return dev, port, nil
}

// openSim returns a device backed by a simulated panel.
func openSim(opts *waveshare2in66b.Opts) (*waveshare2in66b.Dev, *epdtest.Panel, error) {
	p := epdtest.New(waveshare2in66b.Width, waveshare2in66b.Height)
	dev, err := waveshare2in66b.New(p, p.DC, p.RST, p.Busy, opts)
	if err != nil {
		return nil, nil, err
	}
	return dev, p, nil
}

func mainImpl(args []string) error {
	f, err := parseFlags(flag.NewFlagSet("epd2in66b", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if f.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	opts, err := cfg.Opts()
	if err != nil {
		return err
	}
	panel, err := cfg.TextPanel()
	if err != nil {
		return err
	}
	appLog.Info("effective config",
		"spi", cfg.SPI,
		"dc", cfg.Pins.DC,
		"rst", cfg.Pins.RST,
		"busy", cfg.Pins.Busy,
		"orientation", cfg.Orientation,
		"busy_poll_limit", cfg.BusyPollLimit,
		"schedule", cfg.Schedule,
		"text_panel", panel != nil,
		"sim", f.sim,
		"http", f.http,
	)

	a := &app{panel: panel}
	if f.sim {
		dev, sim, err := openSim(opts)
		if err != nil {
			return err
		}
		a.dev = dev
		a.sim = sim
		a.mirrors = append(a.mirrors, screen2d.New(&screen2d.Opts{X: waveshare2in66b.Width, Y: waveshare2in66b.Height}))
	} else {
		dev, port, err := openHardware(cfg, opts)
		if err != nil {
			return err
		}
		defer port.Close()
		a.dev = dev
	}
	appLog.Info("device ready", "dev", a.dev)

	if f.http != "" {
		p := preview.New(&preview.Opts{Width: waveshare2in66b.Width, Height: waveshare2in66b.Height})
		stop, err := servePreview(f.http, p)
		if err != nil {
			return err
		}
		defer stop()
		a.mirrors = append(a.mirrors, p)
	}

	if cfg.Schedule == "" {
		return a.cycle()
	}
	return a.schedule(cfg.Schedule)
}

// servePreview serves p on addr until the returned function is called.
func servePreview(addr string, p *preview.Display) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/", p)
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("preview server failed", err)
		}
	}()
	appLog.Info("serving preview", "addr", ln.Addr().String())
	return func() {
		_ = p.Halt()
		_ = srv.Close()
	}, nil
}

// schedule redraws on every tick of the cron expression expr until SIGINT or SIGTERM.
func (a *app) schedule(expr string) error {
	c := cron.New(cron.WithLogger(appLog.Cron{}), cron.WithChain(
		cron.Recover(appLog.Cron{}),
		cron.SkipIfStillRunning(appLog.Cron{}),
	))
	if _, err := c.AddFunc(expr, func() {
		if err := a.cycle(); err != nil {
			appLog.Error("draw cycle failed", err)
		}
	}); err != nil {
		return err
	}

	if err := a.cycle(); err != nil {
		appLog.Error("draw cycle failed", err)
	}
	c.Start()
	appLog.Info("scheduler started", "schedule", expr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLog.Info("signal received, shutting down", "signal", sig.String())

	<-c.Stop().Done()
	return a.dev.Halt()
}

func main() {
	if err := mainImpl(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		appLog.Error("epd2in66b failed", err)
		os.Exit(1)
	}
}
