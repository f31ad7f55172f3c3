// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package service dispatches UI and lifecycle events to a torch Device.
//
// The Service sequences toggles behind the readiness of a display surface,
// keeps widgets informed of the torch state, and optionally strobes the torch.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/torch"
	"github.com/warthog618/torch/strobe"
)

// WidgetState is the state displayed by a torch widget.
type WidgetState int

const (
	// WidgetOff indicates the torch is off.
	WidgetOff WidgetState = iota

	// WidgetOn indicates the torch is on.
	WidgetOn

	// WidgetFocus indicates a toggle is in progress.
	WidgetFocus
)

func (w WidgetState) String() string {
	switch w {
	case WidgetOff:
		return "off"
	case WidgetOn:
		return "on"
	case WidgetFocus:
		return "focus"
	}
	return fmt.Sprintf("WidgetState(%d)", int(w))
}

// ParseWidgetState converts the name of a state into a WidgetState.
func ParseWidgetState(s string) (WidgetState, error) {
	switch s {
	case "off":
		return WidgetOff, nil
	case "on":
		return WidgetOn, nil
	case "focus":
		return WidgetFocus, nil
	}
	return WidgetOff, fmt.Errorf("unknown widget state '%s'", s)
}

func widgetState(on bool) WidgetState {
	if on {
		return WidgetOn
	}
	return WidgetOff
}

// WidgetHandler receives widget state updates.
type WidgetHandler func(WidgetState)

// Service drives a torch Device in response to events.
type Service struct {
	dev     *torch.Device
	options Options
	strober *strobe.Strober

	// tmu serialises toggles.
	tmu sync.Mutex

	// mu covers the attributes below it.
	mu   sync.Mutex
	cond *sync.Cond

	// indicates a surface has been provided.
	ready bool

	// the surface provided to the device.
	surface torch.Surface

	// the most recently published widget state.
	widget WidgetState
}

// New creates a Service for the device.
func New(dev *torch.Device, options ...Option) *Service {
	so := defaultOptions()
	for _, option := range options {
		option.applyServiceOption(&so)
	}
	s := Service{dev: dev, options: so}
	s.cond = sync.NewCond(&s.mu)
	if so.strobePeriod > 0 {
		s.strober = strobe.New(dev, so.strobePeriod,
			strobe.WithErrorHandler(s.strobeFailed))
	}
	return &s
}

// Device returns the device driven by the Service.
func (s *Service) Device() *torch.Device {
	return s.dev
}

// SurfaceCreated provides the display surface and starts the preview.
//
// Toggles waiting for the surface are released.  A nil surface is valid for
// devices that do not preview.
func (s *Service) SurfaceCreated(surface torch.Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options.logger.Print("surface created")
	s.ready = true
	s.surface = surface
	s.startPreview()
	s.cond.Broadcast()
}

func (s *Service) startPreview() {
	if !s.dev.IsHeld() {
		return
	}
	if err := s.dev.SetPreviewDisplay(s.surface); err != nil {
		s.options.logger.Printf("error setting preview display: %s", err)
		return
	}
	if err := s.dev.StartPreview(); err != nil {
		s.options.logger.Printf("error starting preview: %s", err)
	}
}

// SurfaceDestroyed stops the preview and withdraws the surface.
func (s *Service) SurfaceDestroyed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options.logger.Print("surface destroyed")
	s.dev.StopPreview()
	s.ready = false
	s.surface = nil
}

// WaitSurface blocks until a surface has been provided.
//
// Returns an ErrInterrupted error if the context is done first.
func (s *Service) WaitSurface(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		s.options.logger.Print("waiting for surface")
	}
	for !s.ready {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		s.cond.Wait()
	}
	return nil
}

// IsOn returns true if the torch is on, or strobing.
func (s *Service) IsOn() bool {
	if s.strober != nil && s.strober.Running() {
		return true
	}
	return s.dev.IsOn()
}

// IsStrobing returns true if the Service strobes rather than lighting the
// torch continuously.
func (s *Service) IsStrobing() bool {
	return s.strober != nil
}

// Widget returns the most recently published widget state.
func (s *Service) Widget() WidgetState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.widget
}

// Toggle switches the torch to the opposite of its current state.
//
// Returns the resulting state.  The toggle waits for the surface.
func (s *Service) Toggle(ctx context.Context) (bool, error) {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	was := s.IsOn()
	s.options.logger.Printf("current torch state: %s", widgetState(was))
	return s.toggle(ctx, was, !was)
}

// Set switches the torch to the given state.
//
// Has no effect if the torch is already in that state.
func (s *Service) Set(ctx context.Context, on bool) error {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	was := s.IsOn()
	if was == on {
		return nil
	}
	_, err := s.toggle(ctx, was, on)
	return err
}

func (s *Service) toggle(ctx context.Context, was, on bool) (bool, error) {
	s.publish(WidgetFocus)
	err := s.WaitSurface(ctx)
	if err == nil {
		err = s.set(on)
	}
	is := s.IsOn()
	if err == nil && is == was {
		err = ErrStateUnchanged
	}
	if err != nil {
		s.options.logger.Printf("cannot toggle torch %s: %s", widgetState(on), err)
	}
	s.publish(widgetState(is))
	return is, err
}

func (s *Service) set(on bool) error {
	if on && !s.dev.IsHeld() {
		if err := s.acquire(); err != nil {
			return err
		}
	}
	if s.strober == nil {
		return s.dev.Toggle(on)
	}
	if on {
		return s.strober.Start()
	}
	if err := s.strober.Stop(); err != nil {
		s.options.logger.Printf("strobe error: %s", err)
	}
	if s.dev.IsOn() {
		return s.dev.Toggle(false)
	}
	return nil
}

// acquire acquires the camera and provides it the surface.
func (s *Service) acquire() error {
	if err := s.dev.Acquire(); err != nil && !errors.Is(err, torch.ErrAlreadyHeld) {
		return fmt.Errorf("%w: %w", torch.ErrNoCamera, err)
	}
	s.mu.Lock()
	if s.ready {
		s.startPreview()
	}
	s.mu.Unlock()
	return nil
}

// strobeFailed reports the state of the torch after the strobe fails.
func (s *Service) strobeFailed(err error) {
	s.options.logger.Printf("strobe failed: %s", err)
	s.publish(widgetState(s.dev.IsOn()))
}

// Start acquires the camera and, if configured, turns the torch on.
//
// Returns the acquisition error if the camera cannot be acquired.
func (s *Service) Start(ctx context.Context) error {
	s.options.logger.Print("starting")
	if err := s.dev.Acquire(); err != nil && !errors.Is(err, torch.ErrAlreadyHeld) {
		s.options.logger.Printf("cannot acquire camera: %s", err)
		return err
	}
	s.mu.Lock()
	if s.ready {
		s.startPreview()
	}
	s.mu.Unlock()
	if s.options.onAtStart {
		s.options.logger.Print("turning torch on at start")
		return s.Set(ctx, true)
	}
	return nil
}

// Pause turns the torch off, if on.
func (s *Service) Pause() {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	s.options.logger.Print("pausing")
	if !s.IsOn() {
		return
	}
	if err := s.set(false); err != nil {
		s.options.logger.Printf("cannot toggle torch off: %s", err)
	}
	s.publish(widgetState(s.IsOn()))
}

// Stop turns the torch off, if on, and releases the camera.
func (s *Service) Stop() {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	s.options.logger.Print("stopping")
	if s.strober != nil {
		if err := s.strober.Stop(); err != nil {
			s.options.logger.Printf("strobe error: %s", err)
		}
	}
	s.dev.Release()
	s.publish(WidgetOff)
}

func (s *Service) publish(w WidgetState) {
	s.mu.Lock()
	s.widget = w
	s.mu.Unlock()
	for _, h := range s.options.handlers {
		h(w)
	}
}

var (
	// ErrInterrupted indicates the wait for the surface was interrupted.
	ErrInterrupted = errors.New("interrupted")

	// ErrStateUnchanged indicates the torch state did not change after a
	// toggle.
	ErrStateUnchanged = errors.New("torch state did not change")
)
