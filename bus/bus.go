// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package bus exposes a torch Service on D-Bus.
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/service"
)

const (
	// Name is the well-known bus name of the torch service.
	Name = "org.warthog618.Torch"

	// Path is the object path of the torch.
	Path = dbus.ObjectPath("/org/warthog618/Torch")

	// Iface is the torch interface.
	Iface = "org.warthog618.Torch1"

	// StateChanged is the member name of the widget state signal.
	StateChanged = "StateChanged"

	errorPrefix = Iface + ".Error."
)

// Toggler is the service exported on the bus.
type Toggler interface {
	Toggle(ctx context.Context) (bool, error)
	Set(ctx context.Context, on bool) error
	IsOn() bool
}

// Server exports a Toggler on a bus connection.
type Server struct {
	conn *dbus.Conn
	obj  *object
}

// Export claims the well-known name on the connection and exports the
// Toggler.
//
// Returns ErrNameTaken if another torch service owns the name.
func Export(conn *dbus.Conn, t Toggler) (*Server, error) {
	reply, err := conn.RequestName(Name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request name %s: %w", Name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, ErrNameTaken
	}
	obj := &object{t: t}
	if err := conn.Export(obj, Path, Iface); err != nil {
		conn.ReleaseName(Name)
		return nil, err
	}
	return &Server{conn: conn, obj: obj}, nil
}

// UpdateWidget emits the StateChanged signal.
//
// Can be used as a service.WidgetHandler.
func (s *Server) UpdateWidget(ws service.WidgetState) {
	s.conn.Emit(Path, Iface+"."+StateChanged, ws.String())
}

// Close withdraws the export and releases the name.
func (s *Server) Close() error {
	s.conn.Export(nil, Path, Iface)
	_, err := s.conn.ReleaseName(Name)
	return err
}

// object is the exported torch.
//
// Method calls originate from the bus and are not cancellable, so each is
// bound to a background context.
type object struct {
	t Toggler
}

// Toggle switches the torch and returns the resulting state.
func (o *object) Toggle() (bool, *dbus.Error) {
	on, err := o.t.Toggle(context.Background())
	if err != nil {
		return on, makeError(err)
	}
	return on, nil
}

// Set switches the torch to the state.
func (o *object) Set(on bool) *dbus.Error {
	if err := o.t.Set(context.Background(), on); err != nil {
		return makeError(err)
	}
	return nil
}

// State returns the state of the torch.
func (o *object) State() (bool, *dbus.Error) {
	return o.t.IsOn(), nil
}

var errorNames = []struct {
	err  error
	name string
}{
	{torch.ErrUnsupportedTorch, "UnsupportedTorch"},
	{torch.ErrNoCamera, "NoCamera"},
	{torch.ErrDeviceUnavailable, "DeviceUnavailable"},
	{torch.ErrAlreadyHeld, "AlreadyHeld"},
	{torch.ErrToggleFailed, "ToggleFailed"},
	{service.ErrInterrupted, "Interrupted"},
	{service.ErrStateUnchanged, "StateUnchanged"},
}

// makeError converts a torch error into a named D-Bus error.
func makeError(err error) *dbus.Error {
	for _, en := range errorNames {
		if errors.Is(err, en.err) {
			return dbus.NewError(errorPrefix+en.name, []interface{}{err.Error()})
		}
	}
	return dbus.MakeFailedError(err)
}

// parseError converts a named D-Bus error back into a torch error.
func parseError(err error) error {
	var derr dbus.Error
	if !errors.As(err, &derr) {
		var pderr *dbus.Error
		if !errors.As(err, &pderr) {
			return err
		}
		derr = *pderr
	}
	for _, en := range errorNames {
		if derr.Name == errorPrefix+en.name {
			if len(derr.Body) > 0 {
				if msg, ok := derr.Body[0].(string); ok && msg != en.err.Error() {
					return fmt.Errorf("%w: %s", en.err, msg)
				}
			}
			return en.err
		}
	}
	return err
}

// ErrNameTaken indicates another torch service is running on the bus.
var ErrNameTaken = errors.New("name " + Name + " already taken")
