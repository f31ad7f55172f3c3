// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A daemon that drives a flash LED as a torch.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/bcm"
	"github.com/warthog618/torch/bus"
	"github.com/warthog618/torch/gpio"
	"github.com/warthog618/torch/httpapi"
	"github.com/warthog618/torch/mockup"
	"github.com/warthog618/torch/prefs"
	"github.com/warthog618/torch/service"
)

var version = "undefined"

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stderr, "torchd: ", log.LstdFlags)

	p, err := prefs.Load(prefsPath(cfg))
	if err != nil {
		logger.Printf("using default preferences: %s", err)
	}
	opener, chip, err := newOpener(cfg)
	if err != nil {
		die(err.Error())
	}
	policy, err := torch.ParseReleasePolicy(cfg.MustGet("policy").String())
	if err != nil {
		die(err.Error())
	}

	relay := widgetRelay{logger: logger}
	dopts := []torch.Option{
		torch.WithLogger(logger),
		torch.WithReleasePolicy(policy),
	}
	sopts := []service.Option{
		service.WithLogger(logger),
		service.WithWidgetHandler(relay.update),
	}
	if p.OnAtStart {
		sopts = append(sopts, service.WithOnAtStart)
	}
	if p.Strobe {
		// the strobe toggles far faster than the camera can be reacquired.
		dopts = append(dopts, torch.WithKeepHeld)
		sopts = append(sopts, service.WithStrobe(time.Duration(p.StrobePeriod)))
	}
	svc := service.New(torch.New(opener, dopts...), sopts...)

	conn, err := connectBus(cfg.MustGet("bus").String())
	if err != nil {
		die(err.Error())
	}
	if conn != nil {
		defer conn.Close()
		s, err := bus.Export(conn, svc)
		if err != nil {
			die(err.Error())
		}
		relay.srv.Store(s)
		defer s.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if chip != "" {
		w, err := gpio.WatchRemove(chip, func() {
			logger.Printf("%s removed", chip)
			cancel()
		})
		if err != nil {
			logger.Printf("not watching for removal of %s: %s", chip, err)
		} else {
			defer w.Close()
		}
	}

	var hs *http.Server
	if addr := cfg.MustGet("http.addr").String(); addr != "" {
		hs = &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewRouter(svc, httpapi.WithLogger(logger)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("http: %s", err)
				cancel()
			}
		}()
	}

	svc.SurfaceCreated(nil)
	if err := svc.Start(ctx); err != nil {
		logger.Printf("start: %s", err)
	}
	<-ctx.Done()
	logger.Print("shutting down")
	if hs != nil {
		sctx, scancel := context.WithTimeout(context.Background(), time.Second)
		hs.Shutdown(sctx)
		scancel()
	}
	svc.Stop()
}

// widgetRelay forwards widget states to the bus server, once exported.
//
// Bus method calls may update the widget while the server is being stored.
type widgetRelay struct {
	srv    atomic.Pointer[bus.Server]
	logger *log.Logger
}

func (r *widgetRelay) update(ws service.WidgetState) {
	r.logger.Printf("widget %s", ws)
	if s := r.srv.Load(); s != nil {
		s.UpdateWidget(ws)
	}
}

func newOpener(cfg *config.Config) (torch.Opener, string, error) {
	switch backend := cfg.MustGet("backend").String(); backend {
	case "gpio":
		chip, offset, err := gpio.ParseLine(cfg.MustGet("gpio.line").String())
		if err != nil {
			return nil, "", err
		}
		return &gpio.Opener{
			Chip:      chip,
			Offset:    offset,
			ActiveLow: cfg.MustGet("gpio.activelow").Bool(),
			Consumer:  cfg.MustGet("consumer").String(),
		}, chip, nil
	case "bcm":
		return &bcm.Opener{
			Pin:       cfg.MustGet("bcm.pin").Int(),
			ActiveLow: cfg.MustGet("gpio.activelow").Bool(),
		}, "", nil
	case "mock":
		return mockup.New(), "", nil
	default:
		return nil, "", fmt.Errorf("unknown backend: %s", backend)
	}
}

func connectBus(name string) (*dbus.Conn, error) {
	switch name {
	case "session":
		return dbus.ConnectSessionBus()
	case "system":
		return dbus.ConnectSystemBus()
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown bus: %s", name)
}

func prefsPath(cfg *config.Config) string {
	if path := cfg.MustGet("prefs.file").String(); path != "" {
		return path
	}
	return prefs.DefaultPath()
}

func defaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"help":           false,
		"version":        false,
		"backend":        "gpio",
		"gpio.line":      "GPIO17",
		"gpio.activelow": false,
		"bcm.pin":        17,
		"policy":         torch.ReleaseOnOff.String(),
		"prefs.file":     "",
		"bus":            "session",
		"http.addr":      "",
		"consumer":       "torchd",
	}
}

func loadConfig() *config.Config {
	ff := []pflag.Flag{
		{Short: 'h', Name: "help", Options: pflag.IsBool},
		{Short: 'v', Name: "version", Options: pflag.IsBool},
		{Short: 'c', Name: "config-file"},
		{Short: 'b', Name: "backend"},
		{Short: 'l', Name: "gpio-line"},
		{Short: 'a', Name: "gpio-activelow", Options: pflag.IsBool},
		{Short: 'p', Name: "bcm-pin"},
		{Short: 'r', Name: "policy"},
		{Short: 'f', Name: "prefs-file"},
		{Short: 'd', Name: "bus"},
		{Short: 'H', Name: "http-addr"},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(ff)),
		env.New(env.WithEnvPrefix("TORCHD_")),
		config.WithDefault(dict.New(dict.WithMap(defaultConfig()))))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "torchd.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	if cfg.MustGet("help").Bool() {
		printHelp()
		os.Exit(0)
	}
	if cfg.MustGet("version").Bool() {
		printVersion()
		os.Exit(0)
	}
	return cfg
}

func die(reason string) {
	fmt.Fprintln(os.Stderr, "torchd: "+reason)
	os.Exit(1)
}

func printHelp() {
	fmt.Printf("Usage: %s [OPTIONS]\n", os.Args[0])
	fmt.Println("Drive a flash LED as a torch, controlled over D-Bus and HTTP.")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -h, --help:\t\tdisplay this message and exit")
	fmt.Println("  -v, --version:\tdisplay the version and exit")
	fmt.Println("  -c, --config-file=FILE (defaults to 'torchd.json'):")
	fmt.Println("\t\t\tread configuration from a JSON file")
	fmt.Println("  -b, --backend=[gpio|bcm|mock] (defaults to 'gpio'):")
	fmt.Println("\t\t\tselect the driver for the LED")
	fmt.Println("  -l, --gpio-line=LINE:\tthe line driving the LED, as chip:offset, a header pin or a line name")
	fmt.Println("  -a, --gpio-activelow:\tthe LED is lit when the line is low")
	fmt.Println("  -p, --bcm-pin=PIN:\tthe BCM GPIO number of the pin driving the LED (bcm backend)")
	fmt.Println("  -r, --policy=[release|keep] (defaults to 'release'):")
	fmt.Println("\t\t\twhether turning the torch off releases the LED")
	fmt.Println("  -f, --prefs-file=FILE:\tthe user preferences file")
	fmt.Println("  -d, --bus=[session|system|none] (defaults to 'session'):")
	fmt.Println("\t\t\tthe D-Bus to export the torch on")
	fmt.Println("  -H, --http-addr=ADDR:\tserve the HTTP API on ADDR")
	fmt.Println("")
	fmt.Println("All options may also be set by environment variables prefixed with TORCHD_,")
	fmt.Println("e.g. TORCHD_GPIO_LINE=gpiochip0:17.")
}

func printVersion() {
	fmt.Printf("%s (torch) %s\n", os.Args[0], version)
}
