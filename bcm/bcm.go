// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package bcm provides a torch camera driver for a flash LED connected to a
// BCM283x GPIO pin, accessed through memory-mapped GPIO.
//
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
package bcm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	"github.com/warthog618/torch"
)

// the GPIO memory map is process wide.
var (
	mu   sync.Mutex
	open bool
)

// MaxPin is the highest BCM GPIO number on the 40 pin header.
const MaxPin = 27

// Opener opens a BCM GPIO pin driving a flash LED.
type Opener struct {
	// The BCM GPIO number of the pin.
	Pin int

	// Indicates the LED is lit when the pin is driven low.
	ActiveLow bool
}

// Open maps the GPIO memory and sets the pin as an output, initially inactive.
//
// Returns ErrBusy if a pin is already open in this process.
func (o *Opener) Open() (torch.Camera, error) {
	if o.Pin < 0 || o.Pin > MaxPin {
		return nil, ErrInvalidPin{o.Pin}
	}
	mu.Lock()
	defer mu.Unlock()
	if open {
		return nil, ErrBusy
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w", err)
	}
	open = true
	c := &Camera{pin: rpio.Pin(o.Pin), activeLow: o.ActiveLow, mode: torch.FlashModeOff}
	c.pin.Output()
	c.write(false)
	return c, nil
}

// Camera is a flash LED on a BCM GPIO pin.
//
// The LED supports only the off and torch flash modes.
type Camera struct {
	pin       rpio.Pin
	activeLow bool
	mode      torch.FlashMode
	released  bool
}

// Parameters returns the current flash mode.
func (c *Camera) Parameters() (torch.Parameters, error) {
	return torch.Parameters{
		FlashMode:           c.mode,
		SupportedFlashModes: []torch.FlashMode{torch.FlashModeOff, torch.FlashModeTorch},
	}, nil
}

// SetParameters drives the pin active for torch mode and inactive for off.
func (c *Camera) SetParameters(p torch.Parameters) error {
	if c.released {
		return ErrReleased
	}
	switch p.FlashMode {
	case torch.FlashModeTorch:
		c.write(true)
	case torch.FlashModeOff:
		c.write(false)
	default:
		return fmt.Errorf("flash mode '%s' not supported", p.FlashMode)
	}
	c.mode = p.FlashMode
	return nil
}

// Release turns the LED off, returns the pin to an input and unmaps the GPIO
// memory.
func (c *Camera) Release() error {
	mu.Lock()
	defer mu.Unlock()
	if c.released {
		return ErrReleased
	}
	c.released = true
	c.write(false)
	c.pin.Input()
	open = false
	return rpio.Close()
}

func (c *Camera) write(active bool) {
	if level(active, c.activeLow) == rpio.High {
		c.pin.High()
	} else {
		c.pin.Low()
	}
}

// level returns the physical level for the logical state of the LED.
func level(active, activeLow bool) rpio.State {
	if active != activeLow {
		return rpio.High
	}
	return rpio.Low
}

var (
	// ErrBusy indicates a pin is already open.
	ErrBusy = errors.New("gpio busy")

	// ErrReleased indicates the camera has been released.
	ErrReleased = errors.New("already released")
)

// ErrInvalidPin indicates the pin is not a header GPIO.
type ErrInvalidPin struct {
	Pin int
}

func (e ErrInvalidPin) Error() string {
	return fmt.Sprintf("invalid pin %d", e.Pin)
}
