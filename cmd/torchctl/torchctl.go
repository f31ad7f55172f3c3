// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A utility to control a torch.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"github.com/warthog618/torch/bus"
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.System, "system", "s", false, "use the system bus rather than the session bus")
	rootCmd.PersistentFlags().DurationVarP(&rootOpts.Timeout, "timeout", "t", 5*time.Second, "the time to wait for the torch service to respond")
}

var (
	rootCmd = &cobra.Command{
		Use:   "torchctl",
		Short: "torchctl is a utility to control a torch",
		Long:  "torchctl is a utility to control a torch served by torchd over D-Bus",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootOpts = struct {
		System  bool
		Timeout time.Duration
	}{}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "torchctl %s: %s\n", cmd.Name(), err)
}

func connect() (*dbus.Conn, *bus.Client, error) {
	var conn *dbus.Conn
	var err error
	if rootOpts.System {
		conn, err = dbus.ConnectSystemBus()
	} else {
		conn, err = dbus.ConnectSessionBus()
	}
	if err != nil {
		return nil, nil, err
	}
	return conn, bus.NewClient(conn), nil
}

func callContext() (context.Context, context.CancelFunc) {
	if rootOpts.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), rootOpts.Timeout)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
