// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package gpio provides a torch camera driver for a flash LED connected to a
// line of a GPIO character device.
package gpio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
	"github.com/warthog618/torch"
	"golang.org/x/sys/unix"
)

// Opener opens a GPIO line driving a flash LED.
type Opener struct {
	// The name or path of the GPIO chip, e.g. gpiochip0.
	Chip string

	// The offset of the line on the chip.
	Offset int

	// Indicates the LED is lit when the line is driven low.
	ActiveLow bool

	// The consumer label applied to the requested line.
	Consumer string
}

// Open requests the line as an output, initially inactive.
//
// Returns ErrBusy if the line is already in use.
func (o *Opener) Open() (torch.Camera, error) {
	consumer := o.Consumer
	if len(consumer) == 0 {
		consumer = "torch"
	}
	c, err := gpiod.NewChip(o.Chip, gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, err
	}
	// the requested line outlives the chip.
	defer c.Close()
	if o.Offset < 0 || o.Offset >= c.Lines() {
		return nil, ErrInvalidOffset{o.Offset, c.Lines()}
	}
	inf, err := c.LineInfo(o.Offset)
	if err != nil {
		return nil, err
	}
	if inf.Used {
		return nil, ErrBusy
	}
	opts := []gpiod.LineReqOption{gpiod.AsOutput(0)}
	if o.ActiveLow {
		opts = append(opts, gpiod.AsActiveLow)
	}
	l, err := c.RequestLine(o.Offset, opts...)
	if err != nil {
		if errors.Is(err, unix.EBUSY) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("error requesting GPIO line: %w", err)
	}
	return &Camera{l: l, mode: torch.FlashModeOff}, nil
}

// Camera is a flash LED on a requested GPIO line.
//
// The LED supports only the off and torch flash modes.
type Camera struct {
	l    *gpiod.Line
	mode torch.FlashMode
}

// Parameters returns the current flash mode.
func (c *Camera) Parameters() (torch.Parameters, error) {
	return torch.Parameters{
		FlashMode:           c.mode,
		SupportedFlashModes: []torch.FlashMode{torch.FlashModeOff, torch.FlashModeTorch},
	}, nil
}

// SetParameters drives the line active for torch mode and inactive for off.
func (c *Camera) SetParameters(p torch.Parameters) error {
	v, err := lineValue(p.FlashMode)
	if err != nil {
		return err
	}
	if err = c.l.SetValue(v); err != nil {
		return err
	}
	c.mode = p.FlashMode
	return nil
}

// Release returns the line.
//
// On release the line reverts to its default state.
func (c *Camera) Release() error {
	return c.l.Close()
}

func lineValue(mode torch.FlashMode) (int, error) {
	switch mode {
	case torch.FlashModeTorch:
		return 1, nil
	case torch.FlashModeOff:
		return 0, nil
	}
	return 0, ErrUnsupportedMode{mode}
}

// ParseLine identifies a GPIO line from its description.
//
// The description may be a chip and offset, e.g. "gpiochip0:17", a Raspberry
// Pi header pin or BCM name, e.g. "J8p11" or "GPIO17", which is assumed to be
// on gpiochip0, or the name of a line.
func ParseLine(s string) (string, int, error) {
	if len(s) == 0 {
		return "", 0, ErrLineNotFound
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		o, err := strconv.ParseUint(s[i+1:], 10, 64)
		if err != nil || i == 0 {
			return "", 0, fmt.Errorf("can't parse line '%s'", s)
		}
		return s[:i], int(o), nil
	}
	if o, err := rpi.Pin(s); err == nil {
		return "gpiochip0", o, nil
	}
	return FindLine(s)
}

// FindLine finds the chip and offset of the named line.
//
// Returns ErrLineNotFound if no line has that name.
func FindLine(name string) (string, int, error) {
	for _, cname := range gpiod.Chips() {
		c, err := gpiod.NewChip(cname)
		if err != nil {
			continue
		}
		for o := 0; o < c.Lines(); o++ {
			inf, err := c.LineInfo(o)
			if err != nil {
				continue
			}
			if inf.Name == name {
				c.Close()
				return cname, o, nil
			}
		}
		c.Close()
	}
	return "", 0, ErrLineNotFound
}

var (
	// ErrBusy indicates the line is already in use.
	ErrBusy = errors.New("line busy")

	// ErrLineNotFound indicates the line could not be found.
	ErrLineNotFound = errors.New("line not found")
)

// ErrInvalidOffset indicates the offset is beyond the lines of the chip.
type ErrInvalidOffset struct {
	Offset int
	Lines  int
}

func (e ErrInvalidOffset) Error() string {
	return fmt.Sprintf("invalid offset %d, chip has %d lines", e.Offset, e.Lines)
}

// ErrUnsupportedMode indicates the flash mode cannot be provided by an LED.
type ErrUnsupportedMode struct {
	Mode torch.FlashMode
}

func (e ErrUnsupportedMode) Error() string {
	return fmt.Sprintf("flash mode '%s' not supported", e.Mode)
}
