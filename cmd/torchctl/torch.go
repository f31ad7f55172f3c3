// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/torch/bus"
)

func init() {
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statusCmd)
}

var (
	onCmd = &cobra.Command{
		Use:   "on",
		Short: "Turn the torch on",
		Args:  cobra.NoArgs,
		Run:   call(set(true)),
	}
	offCmd = &cobra.Command{
		Use:   "off",
		Short: "Turn the torch off",
		Args:  cobra.NoArgs,
		Run:   call(set(false)),
	}
	toggleCmd = &cobra.Command{
		Use:   "toggle",
		Short: "Toggle the torch",
		Long:  `Switch the torch to the opposite state and print the resulting state.`,
		Args:  cobra.NoArgs,
		Run:   call(toggle),
	}
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Display the state of the torch",
		Args:  cobra.NoArgs,
		Run:   call(status),
	}
)

type action func(ctx context.Context, c *bus.Client) error

func call(a action) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		conn, c, err := connect()
		if err != nil {
			logErr(cmd, err)
			os.Exit(1)
		}
		ctx, cancel := callContext()
		err = a(ctx, c)
		cancel()
		conn.Close()
		if err != nil {
			logErr(cmd, err)
			os.Exit(1)
		}
	}
}

func set(on bool) action {
	return func(ctx context.Context, c *bus.Client) error {
		return c.Set(ctx, on)
	}
}

func toggle(ctx context.Context, c *bus.Client) error {
	on, err := c.Toggle(ctx)
	if err != nil {
		return err
	}
	fmt.Println(onOff(on))
	return nil
}

func status(ctx context.Context, c *bus.Client) error {
	on, err := c.State(ctx)
	if err != nil {
		return err
	}
	fmt.Println(onOff(on))
	return nil
}
