// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package bus

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/warthog618/torch/service"
)

// Client calls a torch service over D-Bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient creates a client of the torch service on the connection.
func NewClient(conn *dbus.Conn) *Client {
	return &Client{conn: conn, obj: conn.Object(Name, Path)}
}

// Toggle switches the torch and returns the resulting state.
func (c *Client) Toggle(ctx context.Context) (bool, error) {
	var on bool
	err := c.obj.CallWithContext(ctx, Iface+".Toggle", 0).Store(&on)
	return on, parseError(err)
}

// Set switches the torch to the state.
func (c *Client) Set(ctx context.Context, on bool) error {
	return parseError(c.obj.CallWithContext(ctx, Iface+".Set", 0, on).Err)
}

// State returns the state of the torch.
func (c *Client) State(ctx context.Context) (bool, error) {
	var on bool
	err := c.obj.CallWithContext(ctx, Iface+".State", 0).Store(&on)
	return on, parseError(err)
}

// Watch calls fn with each widget state signalled by the service until the
// context is done.
func (c *Client) Watch(ctx context.Context, fn service.WidgetHandler) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Iface),
		dbus.WithMatchMember(StateChanged),
	}
	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return err
	}
	defer c.conn.RemoveMatchSignal(opts...)
	ch := make(chan *dbus.Signal, 10)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)
	for {
		select {
		case sig := <-ch:
			if ws, ok := signalState(sig); ok {
				fn(ws)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func signalState(sig *dbus.Signal) (service.WidgetState, bool) {
	if sig == nil ||
		sig.Path != Path ||
		sig.Name != Iface+"."+StateChanged ||
		len(sig.Body) < 1 {
		return service.WidgetOff, false
	}
	s, ok := sig.Body[0].(string)
	if !ok {
		return service.WidgetOff, false
	}
	ws, err := service.ParseWidgetState(s)
	if err != nil {
		return service.WidgetOff, false
	}
	return ws, true
}
