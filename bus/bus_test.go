// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package bus

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/service"
)

type fakeToggler struct {
	on  bool
	err error
}

func (f *fakeToggler) Toggle(ctx context.Context) (bool, error) {
	if f.err != nil {
		return f.on, f.err
	}
	f.on = !f.on
	return f.on, nil
}

func (f *fakeToggler) Set(ctx context.Context, on bool) error {
	if f.err != nil {
		return f.err
	}
	f.on = on
	return nil
}

func (f *fakeToggler) IsOn() bool {
	return f.on
}

func TestObject(t *testing.T) {
	f := fakeToggler{}
	o := object{t: &f}

	on, derr := o.Toggle()
	assert.Nil(t, derr)
	assert.True(t, on)
	on, derr = o.State()
	assert.Nil(t, derr)
	assert.True(t, on)

	derr = o.Set(false)
	assert.Nil(t, derr)
	assert.False(t, f.on)

	f.err = torch.ErrUnsupportedTorch
	on, derr = o.Toggle()
	require.NotNil(t, derr)
	assert.False(t, on)
	assert.Equal(t, "org.warthog618.Torch1.Error.UnsupportedTorch", derr.Name)
	derr = o.Set(true)
	require.NotNil(t, derr)
	assert.Equal(t, "org.warthog618.Torch1.Error.UnsupportedTorch", derr.Name)
}

func TestMakeError(t *testing.T) {
	patterns := []struct {
		err  error
		name string
	}{
		{torch.ErrUnsupportedTorch, "UnsupportedTorch"},
		{fmt.Errorf("%w: %w", torch.ErrNoCamera, torch.ErrDeviceUnavailable), "NoCamera"},
		{torch.ErrDeviceUnavailable, "DeviceUnavailable"},
		{torch.ErrAlreadyHeld, "AlreadyHeld"},
		{fmt.Errorf("%w: busy", torch.ErrToggleFailed), "ToggleFailed"},
		{fmt.Errorf("%w: %w", service.ErrInterrupted, context.Canceled), "Interrupted"},
		{service.ErrStateUnchanged, "StateUnchanged"},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			derr := makeError(p.err)
			require.NotNil(t, derr)
			assert.Equal(t, errorPrefix+p.name, derr.Name)
			assert.Equal(t, []interface{}{p.err.Error()}, derr.Body)
		}
		t.Run(p.name, tf)
	}
	derr := makeError(errors.New("other"))
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)
}

func TestParseError(t *testing.T) {
	assert.Nil(t, parseError(nil))

	// value
	err := parseError(*makeError(torch.ErrUnsupportedTorch))
	assert.Equal(t, torch.ErrUnsupportedTorch, err)

	// pointer
	err = parseError(makeError(torch.ErrAlreadyHeld))
	assert.Equal(t, torch.ErrAlreadyHeld, err)

	// wrapped cause is kept as text
	cause := fmt.Errorf("%w: line busy", torch.ErrNoCamera)
	err = parseError(*makeError(cause))
	assert.True(t, errors.Is(err, torch.ErrNoCamera))
	assert.Contains(t, err.Error(), "line busy")

	// unknown passes through
	other := errors.New("other")
	assert.Equal(t, other, parseError(other))
	derr := dbus.MakeFailedError(other)
	assert.Equal(t, derr, parseError(derr))
}

func TestSignalState(t *testing.T) {
	patterns := []struct {
		name  string
		sig   *dbus.Signal
		state service.WidgetState
		ok    bool
	}{
		{"nil", nil, service.WidgetOff, false},
		{"on", &dbus.Signal{Path: Path, Name: Iface + ".StateChanged", Body: []interface{}{"on"}},
			service.WidgetOn, true},
		{"focus", &dbus.Signal{Path: Path, Name: Iface + ".StateChanged", Body: []interface{}{"focus"}},
			service.WidgetFocus, true},
		{"path", &dbus.Signal{Path: "/other", Name: Iface + ".StateChanged", Body: []interface{}{"on"}},
			service.WidgetOff, false},
		{"member", &dbus.Signal{Path: Path, Name: Iface + ".Other", Body: []interface{}{"on"}},
			service.WidgetOff, false},
		{"empty", &dbus.Signal{Path: Path, Name: Iface + ".StateChanged"},
			service.WidgetOff, false},
		{"type", &dbus.Signal{Path: Path, Name: Iface + ".StateChanged", Body: []interface{}{1}},
			service.WidgetOff, false},
		{"value", &dbus.Signal{Path: Path, Name: Iface + ".StateChanged", Body: []interface{}{"dim"}},
			service.WidgetOff, false},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			ws, ok := signalState(p.sig)
			assert.Equal(t, p.ok, ok)
			assert.Equal(t, p.state, ws)
		}
		t.Run(p.name, tf)
	}
}
