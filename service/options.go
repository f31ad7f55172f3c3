// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package service

import (
	"io"
	"log"
	"time"
)

// Option defines the interface required to provide a Service option.
type Option interface {
	applyServiceOption(*Options)
}

// Options contains the options for a Service.
type Options struct {
	logger       *log.Logger
	handlers     []WidgetHandler
	onAtStart    bool
	strobePeriod time.Duration
}

func defaultOptions() Options {
	return Options{logger: log.New(io.Discard, "", 0)}
}

// LoggerOption provides the logger for the Service.
type LoggerOption struct {
	l *log.Logger
}

// WithLogger specifies the logger for the Service.
func WithLogger(l *log.Logger) LoggerOption {
	return LoggerOption{l}
}

func (o LoggerOption) applyServiceOption(so *Options) {
	if o.l != nil {
		so.logger = o.l
	}
}

// WidgetHandlerOption adds a receiver of widget state updates.
type WidgetHandlerOption struct {
	h WidgetHandler
}

// WithWidgetHandler adds a handler called with each widget state published by
// the Service.
//
// Handlers are called in the order they were added, from the goroutine
// performing the toggle.
func WithWidgetHandler(h WidgetHandler) WidgetHandlerOption {
	return WidgetHandlerOption{h}
}

func (o WidgetHandlerOption) applyServiceOption(so *Options) {
	if o.h != nil {
		so.handlers = append(so.handlers, o.h)
	}
}

// OnAtStartOption determines if the torch is turned on by Start.
type OnAtStartOption bool

// WithOnAtStart turns the torch on when the Service is started.
var WithOnAtStart = OnAtStartOption(true)

func (o OnAtStartOption) applyServiceOption(so *Options) {
	so.onAtStart = bool(o)
}

// StrobeOption sets the strobe period.
type StrobeOption time.Duration

// WithStrobe strobes the torch with the given period rather than lighting it
// continuously.
//
// The device should keep the camera held when the torch is off, else the
// camera is reacquired on every flash.
func WithStrobe(period time.Duration) StrobeOption {
	return StrobeOption(period)
}

func (o StrobeOption) applyServiceOption(so *Options) {
	so.strobePeriod = time.Duration(o)
}
