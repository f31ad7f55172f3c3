// SPDX-FileCopyrightText: 2020 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warthog618/gpiod/device/rpi"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/gpio"
	"github.com/warthog618/torch/strobe"
)

// This example strobes a flash LED on GPIO 4, which is pin J8-7 on a Raspberry
// Pi, at 1Hz with a 50% duty cycle.
// Do not run this on a device which has this pin externally driven.
func main() {
	d := torch.New(
		&gpio.Opener{Chip: "gpiochip0", Offset: rpi.GPIO4, Consumer: "strobe"},
		torch.WithKeepHeld,
		torch.WithLogger(log.New(os.Stdout, "", 0)),
	)
	defer d.Release()

	// capture exit signals to ensure the LED is released on exit.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := strobe.Run(ctx, d, time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "strobe: %s\n", err)
	}
}
