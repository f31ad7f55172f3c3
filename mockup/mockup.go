// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mockup provides an in-memory camera mockup.
// This is intended for testing of torch, but could also be used for testing
// by users of their own code that uses torch.
package mockup

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/torch"
)

// Mockup represents a single mocked camera.
//
// Only one handle to the camera may be open at a time.
type Mockup struct {
	mu sync.Mutex

	supported []torch.FlashMode
	mode      torch.FlashMode

	openErr   error
	paramsErr error
	setErr    error
	relErr    error

	cam        *Camera
	opens      int
	releases   int
	previewing bool
	surface    torch.Surface
	history    []torch.FlashMode
}

// New creates a new Mockup.
//
// By default the camera supports the off and torch flash modes.
func New(options ...Option) *Mockup {
	m := Mockup{
		supported: []torch.FlashMode{torch.FlashModeOff, torch.FlashModeTorch},
		mode:      torch.FlashModeOff,
	}
	for _, option := range options {
		option(&m)
	}
	return &m
}

// Option modifies the behaviour of a Mockup.
type Option func(*Mockup)

// WithFlashModes sets the flash modes reported as supported.
//
// An empty list mocks a camera without a flash.
func WithFlashModes(modes ...torch.FlashMode) Option {
	return func(m *Mockup) {
		m.supported = append([]torch.FlashMode(nil), modes...)
	}
}

// WithOpenError causes Open to fail with err.
func WithOpenError(err error) Option {
	return func(m *Mockup) {
		m.openErr = err
	}
}

// Open opens the mocked camera.
//
// Returns ErrBusy if a handle is already open.
func (m *Mockup) Open() (torch.Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	if m.cam != nil {
		return nil, ErrBusy
	}
	m.opens++
	m.cam = &Camera{m: m}
	return m.cam, nil
}

// SetOpenError sets the error returned by subsequent calls to Open.
func (m *Mockup) SetOpenError(err error) {
	m.mu.Lock()
	m.openErr = err
	m.mu.Unlock()
}

// SetParametersError sets the error returned by subsequent calls to
// Camera.Parameters.
func (m *Mockup) SetParametersError(err error) {
	m.mu.Lock()
	m.paramsErr = err
	m.mu.Unlock()
}

// SetSetError sets the error returned by subsequent calls to
// Camera.SetParameters.
func (m *Mockup) SetSetError(err error) {
	m.mu.Lock()
	m.setErr = err
	m.mu.Unlock()
}

// SetReleaseError sets the error returned by subsequent calls to
// Camera.Release.
func (m *Mockup) SetReleaseError(err error) {
	m.mu.Lock()
	m.relErr = err
	m.mu.Unlock()
}

// IsOpen returns true if a handle to the camera is open.
func (m *Mockup) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cam != nil
}

// Opens returns the number of successful opens.
func (m *Mockup) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Releases returns the number of releases.
func (m *Mockup) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

// FlashMode returns the flash mode of the hardware.
func (m *Mockup) FlashMode() torch.FlashMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// IsLit returns true if the hardware flash is lit in torch mode.
func (m *Mockup) IsLit() bool {
	return m.FlashMode() == torch.FlashModeTorch
}

// IsPreviewing returns true if the preview has been started.
func (m *Mockup) IsPreviewing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.previewing
}

// Surface returns the surface most recently set as the preview display.
func (m *Mockup) Surface() torch.Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface
}

// History returns the flash modes applied to the hardware, in order.
func (m *Mockup) History() []torch.FlashMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]torch.FlashMode(nil), m.history...)
}

// Camera is an open handle to the mocked camera.
type Camera struct {
	m *Mockup
	// protected by m.mu
	released bool
}

func (c *Camera) check() error {
	if c.released {
		return ErrReleased
	}
	return nil
}

// Parameters returns the current camera parameters.
func (c *Camera) Parameters() (torch.Parameters, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if err := c.check(); err != nil {
		return torch.Parameters{}, err
	}
	if c.m.paramsErr != nil {
		return torch.Parameters{}, c.m.paramsErr
	}
	return torch.Parameters{
		FlashMode:           c.m.mode,
		SupportedFlashModes: append([]torch.FlashMode(nil), c.m.supported...),
	}, nil
}

// SetParameters applies the flash mode.
func (c *Camera) SetParameters(p torch.Parameters) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	if c.m.setErr != nil {
		return c.m.setErr
	}
	supported := false
	for _, m := range c.m.supported {
		if m == p.FlashMode {
			supported = true
		}
	}
	if !supported {
		return ErrUnsupportedMode{p.FlashMode}
	}
	c.m.mode = p.FlashMode
	c.m.history = append(c.m.history, p.FlashMode)
	return nil
}

// SetPreviewDisplay records the surface.
func (c *Camera) SetPreviewDisplay(s torch.Surface) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.m.surface = s
	return nil
}

// StartPreview starts the preview.
func (c *Camera) StartPreview() error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.m.previewing = true
	return nil
}

// StopPreview stops the preview.
func (c *Camera) StopPreview() error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.m.previewing = false
	return nil
}

// Release returns the camera.
//
// The hardware reverts to its default state, with the flash off and no
// preview.
func (c *Camera) Release() error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.released = true
	c.m.cam = nil
	c.m.releases++
	c.m.mode = torch.FlashModeOff
	c.m.previewing = false
	c.m.surface = nil
	return c.m.relErr
}

var (
	// ErrBusy indicates the camera is already open.
	ErrBusy = errors.New("camera busy")

	// ErrReleased indicates the camera handle has been released.
	ErrReleased = errors.New("camera released")
)

// ErrUnsupportedMode indicates the requested flash mode is not supported by
// the mocked hardware.
type ErrUnsupportedMode struct {
	Mode torch.FlashMode
}

func (e ErrUnsupportedMode) Error() string {
	return fmt.Sprintf("flash mode '%s' not supported", e.Mode)
}
