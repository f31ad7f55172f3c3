// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package strobe flashes a torch on and off at a fixed period.
package strobe

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Toggler turns a torch on or off.
type Toggler interface {
	Toggle(on bool) error
}

// Run strobes the torch with a 50% duty cycle until the context is done, then
// turns the torch off.
//
// Returns nil if stopped by the context, else the error that ended the strobe.
func Run(ctx context.Context, t Toggler, period time.Duration) error {
	if period <= 0 {
		return ErrInvalidPeriod
	}
	if err := t.Toggle(true); err != nil {
		return err
	}
	return strobe(ctx, t, period)
}

// strobe runs the strobe from the on state.
func strobe(ctx context.Context, t Toggler, period time.Duration) error {
	ticker := time.NewTicker(period / 2)
	defer ticker.Stop()
	on := true
	for {
		select {
		case <-ticker.C:
			on = !on
			if err := t.Toggle(on); err != nil {
				// the failed step may have left the LED lit either way.
				t.Toggle(false)
				return err
			}
		case <-ctx.Done():
			if on {
				return t.Toggle(false)
			}
			return nil
		}
	}
}

// ErrorHandler receives the error that ended a strobe.
type ErrorHandler func(error)

// Option modifies a Strober.
type Option interface {
	applyStroberOption(*Strober)
}

// ErrorHandlerOption provides a receiver for strobe failures.
type ErrorHandlerOption struct {
	eh ErrorHandler
}

// WithErrorHandler specifies a handler called when a running strobe fails.
//
// The handler is called from the strobe goroutine, after the strobe has
// stopped running.
func WithErrorHandler(eh ErrorHandler) ErrorHandlerOption {
	return ErrorHandlerOption{eh}
}

func (o ErrorHandlerOption) applyStroberOption(s *Strober) {
	s.eh = o.eh
}

// Strober runs a strobe in the background.
type Strober struct {
	t      Toggler
	period time.Duration
	eh     ErrorHandler

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// New creates a Strober for the torch.
func New(t Toggler, period time.Duration, options ...Option) *Strober {
	s := Strober{t: t, period: period}
	for _, option := range options {
		option.applyStroberOption(&s)
	}
	return &s
}

// Period returns the strobe period.
func (s *Strober) Period() time.Duration {
	return s.period
}

// Start turns the torch on and starts strobing.
//
// An error turning the torch on is returned directly and the strobe is not
// started.  Starting a running Strober has no effect.
func (s *Strober) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running() {
		return nil
	}
	if s.period <= 0 {
		return ErrInvalidPeriod
	}
	if err := s.t.Toggle(true); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.err = nil
	go func() {
		err := strobe(ctx, s.t, s.period)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(done)
		if err != nil && s.eh != nil {
			s.eh(err)
		}
	}()
	return nil
}

// Stop stops the strobe, leaving the torch off.
//
// Returns the error, if any, that ended the strobe.
func (s *Strober) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.cancel = nil
	s.done = nil
	s.err = nil
	return err
}

// Running returns true while the strobe is running.
func (s *Strober) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running()
}

func (s *Strober) running() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// ErrInvalidPeriod indicates the strobe period is not positive.
var ErrInvalidPeriod = errors.New("strobe period must be positive")
