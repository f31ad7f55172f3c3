// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package torch

import (
	"io"
	"log"
)

// Option defines the interface required to provide a Device option.
type Option interface {
	applyDeviceOption(*DeviceOptions)
}

// DeviceOptions contains the options for a Device.
type DeviceOptions struct {
	torch  Torch
	policy ReleasePolicy
	logger *log.Logger
	sh     StateHandler
}

// TorchOption selects the strategy used to drive the torch.
type TorchOption struct {
	t Torch
}

// WithTorch specifies the strategy used to drive the torch.
//
// The default is DefaultTorch.
func WithTorch(t Torch) TorchOption {
	return TorchOption{t}
}

func (o TorchOption) applyDeviceOption(d *DeviceOptions) {
	if o.t != nil {
		d.torch = o.t
	}
}

// ReleasePolicyOption selects the behaviour when the torch is turned off.
type ReleasePolicyOption ReleasePolicy

// WithReleasePolicy specifies whether turning the torch off releases the
// camera.
//
// The default is ReleaseOnOff.
func WithReleasePolicy(p ReleasePolicy) ReleasePolicyOption {
	return ReleasePolicyOption(p)
}

func (o ReleasePolicyOption) applyDeviceOption(d *DeviceOptions) {
	d.policy = ReleasePolicy(o)
}

// WithKeepHeld keeps the camera held after the torch is turned off.
var WithKeepHeld = ReleasePolicyOption(KeepHeld)

// LoggerOption provides the logger for the Device.
type LoggerOption struct {
	l *log.Logger
}

// WithLogger specifies the logger for the Device.
//
// By default nothing is logged.
func WithLogger(l *log.Logger) LoggerOption {
	return LoggerOption{l}
}

func (o LoggerOption) applyDeviceOption(d *DeviceOptions) {
	if o.l == nil {
		d.logger = log.New(io.Discard, "", 0)
		return
	}
	d.logger = o.l
}

// StateHandlerOption provides a receiver for state changes.
type StateHandlerOption struct {
	sh StateHandler
}

// WithStateHandler specifies a handler called after each change of the Device
// state.
//
// The handler is called from the goroutine that changed the state, after the
// Device lock has been released, so it may call back into the Device.
func WithStateHandler(sh StateHandler) StateHandlerOption {
	return StateHandlerOption{sh}
}

func (o StateHandlerOption) applyDeviceOption(d *DeviceOptions) {
	d.sh = o.sh
}
