// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package torch is a library for driving the flash LED of a camera-like
// device as a flashlight.
//
// The Device mediates all access to a single hardware handle and tracks
// whether its flash is lit in continuous "torch" mode.
//
// Supports:
// - Acquire/release of an exclusive hardware handle
// - Torch capability detection per acquisition
// - Torch on/off with a configurable release policy
// - Preview passthrough for drivers that need an active preview
//
// Example of use:
//
//  d := torch.New(opener)
//  if err := d.Toggle(true); err != nil {
//  	panic(err)
//  }
//  defer d.Release()
//
package torch

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
)

// FlashMode is the mode of the camera flash.
type FlashMode string

const (
	// FlashModeOff indicates the flash is never fired.
	FlashModeOff FlashMode = "off"

	// FlashModeAuto indicates the flash is fired automatically when required.
	FlashModeAuto FlashMode = "auto"

	// FlashModeOn indicates the flash is always fired during capture.
	FlashModeOn FlashMode = "on"

	// FlashModeRedEye indicates the flash is fired in red-eye reduction mode.
	FlashModeRedEye FlashMode = "red-eye"

	// FlashModeTorch indicates the flash is lit continuously.
	FlashModeTorch FlashMode = "torch"
)

// Parameters contains the camera parameters relevant to the flash.
type Parameters struct {
	// The current flash mode.
	FlashMode FlashMode

	// The flash modes supported by the hardware.
	//
	// Empty if the camera has no flash.
	SupportedFlashModes []FlashMode
}

// Supports returns true if the mode is one of the supported flash modes.
func (p Parameters) Supports(mode FlashMode) bool {
	for _, m := range p.SupportedFlashModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Camera is an exclusively held handle to the camera hardware.
type Camera interface {
	// Parameters returns the current camera parameters.
	Parameters() (Parameters, error)

	// SetParameters applies the parameters to the hardware.
	SetParameters(Parameters) error

	// Release returns the hardware.
	//
	// The Camera must not be used after it is released.
	Release() error
}

// Surface is an opaque display surface passed through to a Previewer.
type Surface interface{}

// Previewer is implemented by cameras that require a preview surface and an
// active preview before the flash can be driven.
type Previewer interface {
	SetPreviewDisplay(Surface) error
	StartPreview() error
	StopPreview() error
}

// Opener opens the camera hardware.
type Opener interface {
	Open() (Camera, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func() (Camera, error)

// Open calls f.
func (f OpenerFunc) Open() (Camera, error) {
	return f()
}

// Torch drives the flash of an acquired camera in torch mode.
//
// The camera passed to SetTorch implements Previewer, with the preview state
// tracked by the Device and the display surface left as supplied to the
// Device.
type Torch interface {
	SetTorch(cam Camera, on bool) error
}

// DefaultTorch switches torch mode by setting the flash mode parameter.
//
// This suffices for most hardware.
type DefaultTorch struct{}

// SetTorch sets the flash mode to torch or off.
func (DefaultTorch) SetTorch(cam Camera, on bool) error {
	return setFlashMode(cam, flashMode(on))
}

// PreviewTorch switches torch mode by setting the flash mode parameter and
// then starting or stopping the camera preview.
//
// Required by hardware that only lights the LED while previewing.
type PreviewTorch struct{}

// SetTorch sets the flash mode and starts the preview when turning on, or
// sets the flash mode and stops the preview when turning off.
func (PreviewTorch) SetTorch(cam Camera, on bool) error {
	if err := setFlashMode(cam, flashMode(on)); err != nil {
		return err
	}
	p, ok := cam.(Previewer)
	if !ok {
		return nil
	}
	if on {
		return p.StartPreview()
	}
	return p.StopPreview()
}

func flashMode(on bool) FlashMode {
	if on {
		return FlashModeTorch
	}
	return FlashModeOff
}

func setFlashMode(cam Camera, mode FlashMode) error {
	params, err := cam.Parameters()
	if err != nil {
		return err
	}
	params.FlashMode = mode
	return cam.SetParameters(params)
}

// ReleasePolicy determines whether turning the torch off releases the camera.
type ReleasePolicy int

const (
	// ReleaseOnOff releases the camera whenever the torch is turned off.
	ReleaseOnOff ReleasePolicy = iota

	// KeepHeld keeps the camera held after the torch is turned off, so it can
	// be quickly turned on again.
	KeepHeld
)

func (p ReleasePolicy) String() string {
	switch p {
	case ReleaseOnOff:
		return "release"
	case KeepHeld:
		return "keep"
	}
	return fmt.Sprintf("ReleasePolicy(%d)", int(p))
}

// ParseReleasePolicy converts the name of a policy into a ReleasePolicy.
func ParseReleasePolicy(name string) (ReleasePolicy, error) {
	switch name {
	case "release", "":
		return ReleaseOnOff, nil
	case "keep":
		return KeepHeld, nil
	}
	return ReleaseOnOff, fmt.Errorf("unknown release policy '%s'", name)
}

// State is a snapshot of the state of a Device.
type State struct {
	// The camera is held.
	Held bool

	// The held camera supports torch mode.
	SupportsTorch bool

	// The torch is lit.
	On bool
}

// StateHandler receives the state of the Device after it changes.
type StateHandler func(State)

// Device manages the lifecycle of a single camera handle and the state of its
// torch.
type Device struct {
	opener  Opener
	options DeviceOptions

	// mutex covers the attributes below it.
	mu sync.Mutex

	// the currently held camera, or nil.
	cam Camera

	// indicates the held camera reported torch support when acquired.
	supportsTorch bool

	// indicates the torch is lit.
	on bool

	// indicates a preview has been started on the held camera.
	previewing bool
}

// New creates a Device that opens its camera from the opener.
//
// The camera is not opened until Acquire or Toggle is called.
func New(opener Opener, options ...Option) *Device {
	do := DeviceOptions{
		torch:  DefaultTorch{},
		logger: log.New(io.Discard, "", 0),
	}
	for _, option := range options {
		option.applyDeviceOption(&do)
	}
	return &Device{opener: opener, options: do}
}

// Acquire opens the camera.
//
// Returns ErrAlreadyHeld if the camera is already held, and
// ErrDeviceUnavailable if the driver refuses access.
func (d *Device) Acquire() error {
	d.mu.Lock()
	err := d.acquire()
	s := d.state()
	d.mu.Unlock()
	if err == nil {
		d.notify(s)
	}
	return err
}

func (d *Device) acquire() error {
	if d.cam != nil {
		return ErrAlreadyHeld
	}
	d.options.logger.Print("acquiring camera")
	cam, err := d.opener.Open()
	if err != nil {
		d.options.logger.Printf("failed to open camera: %s", err)
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if cam == nil {
		return ErrDeviceUnavailable
	}
	d.cam = cam
	d.on = false
	d.previewing = false
	d.supportsTorch = false
	params, err := cam.Parameters()
	if err != nil {
		d.options.logger.Printf("failed to read camera parameters: %s", err)
		return nil
	}
	d.supportsTorch = params.Supports(FlashModeTorch)
	return nil
}

// Release turns off the torch, if lit, and returns the camera.
//
// Errors while turning off or releasing are logged, and the camera is
// considered released regardless.
func (d *Device) Release() {
	d.mu.Lock()
	held := d.cam != nil
	d.release()
	s := d.state()
	d.mu.Unlock()
	if held {
		d.notify(s)
	}
}

func (d *Device) release() {
	if d.cam == nil {
		return
	}
	d.options.logger.Print("releasing camera")
	if d.on {
		if err := d.options.torch.SetTorch(d.held(), false); err != nil {
			d.options.logger.Printf("failed to turn off torch before release: %s", err)
		}
		d.on = false
	}
	d.stopPreview()
	if err := d.cam.Release(); err != nil {
		d.options.logger.Printf("failed to release camera: %s", err)
	}
	d.cam = nil
	d.supportsTorch = false
}

// Toggle turns the torch on or off.
//
// The camera is acquired if not already held.  If the camera does not support
// torch mode it is released and ErrUnsupportedTorch returned.
//
// Turning the torch off releases the camera unless the Device was created with
// the KeepHeld policy.
func (d *Device) Toggle(on bool) error {
	d.mu.Lock()
	before := d.state()
	err := d.toggle(on)
	s := d.state()
	d.mu.Unlock()
	if s != before {
		d.notify(s)
	}
	return err
}

func (d *Device) toggle(on bool) error {
	if d.cam == nil {
		if err := d.acquire(); err != nil {
			return fmt.Errorf("%w: %w", ErrNoCamera, err)
		}
	}
	if !d.supportsTorch {
		d.options.logger.Print("camera does not support torch mode")
		d.release()
		return ErrUnsupportedTorch
	}
	d.options.logger.Printf("turning torch %s", onOff(on))
	if err := d.options.torch.SetTorch(d.held(), on); err != nil {
		return fmt.Errorf("%w: %w", ErrToggleFailed, err)
	}
	d.on = on
	if !on && d.options.policy == ReleaseOnOff {
		d.release()
	}
	return nil
}

// SetPreviewDisplay supplies the held camera with a display surface.
//
// Ignored if the camera is not held or does not support previews.
func (d *Device) SetPreviewDisplay(s Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.cam.(Previewer)
	if !ok {
		return nil
	}
	return p.SetPreviewDisplay(s)
}

// StartPreview starts the preview on the held camera.
//
// Ignored if the camera is not held, does not support previews, or is already
// previewing.
func (d *Device) StartPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startPreview()
}

func (d *Device) startPreview() error {
	if d.previewing {
		return nil
	}
	p, ok := d.cam.(Previewer)
	if !ok {
		return nil
	}
	if err := p.StartPreview(); err != nil {
		return err
	}
	d.previewing = true
	return nil
}

// StopPreview stops the preview on the held camera, if started.
func (d *Device) StopPreview() {
	d.mu.Lock()
	d.stopPreview()
	d.mu.Unlock()
}

func (d *Device) stopPreview() {
	if !d.previewing {
		return
	}
	d.previewing = false
	if p, ok := d.cam.(Previewer); ok {
		if err := p.StopPreview(); err != nil {
			d.options.logger.Printf("failed to stop preview: %s", err)
		}
	}
}

// heldCamera presents the held camera to the Torch.
//
// Called with the Device lock held.
type heldCamera struct {
	Camera
	d *Device
}

func (d *Device) held() heldCamera {
	return heldCamera{Camera: d.cam, d: d}
}

// SetPreviewDisplay passes the surface to the camera, if it previews.
func (h heldCamera) SetPreviewDisplay(s Surface) error {
	if p, ok := h.Camera.(Previewer); ok {
		return p.SetPreviewDisplay(s)
	}
	return nil
}

// StartPreview starts the preview, if not already started.
func (h heldCamera) StartPreview() error {
	return h.d.startPreview()
}

// StopPreview stops the preview, if started.
func (h heldCamera) StopPreview() error {
	h.d.stopPreview()
	return nil
}

// IsOn returns true if the torch is lit.
func (d *Device) IsOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on
}

// IsHeld returns true if the camera is held.
func (d *Device) IsHeld() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cam != nil
}

// SupportsTorch returns true if the held camera supports torch mode.
//
// Always false if the camera is not held.
func (d *Device) SupportsTorch() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.supportsTorch
}

// State returns a snapshot of the Device state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state()
}

func (d *Device) state() State {
	return State{
		Held:          d.cam != nil,
		SupportsTorch: d.supportsTorch,
		On:            d.on,
	}
}

func (d *Device) notify(s State) {
	if d.options.sh != nil {
		d.options.sh(s)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

var (
	// ErrAlreadyHeld indicates the camera is already held by the Device.
	ErrAlreadyHeld = errors.New("camera already held")

	// ErrDeviceUnavailable indicates the driver refused access to the camera,
	// as it is absent or in use elsewhere.
	ErrDeviceUnavailable = errors.New("camera unavailable")

	// ErrNoCamera indicates the camera could not be acquired to toggle the
	// torch.
	ErrNoCamera = errors.New("no camera")

	// ErrUnsupportedTorch indicates the camera does not support torch mode.
	ErrUnsupportedTorch = errors.New("torch mode not supported")

	// ErrToggleFailed indicates the driver failed to change the flash mode.
	ErrToggleFailed = errors.New("toggle failed")
)
