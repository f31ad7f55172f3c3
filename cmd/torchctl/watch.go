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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warthog618/torch/service"
)

func init() {
	watchCmd.Flags().UintVarP(&watchOpts.NumEvents, "num-events", "n", 0, "exit after n events")
	rootCmd.AddCommand(watchCmd)
}

var (
	watchCmd = &cobra.Command{
		Use:   "watch [flags]",
		Short: "Watch the torch for changes of state",
		Long:  `Wait for changes to the state of the torch widget and print them to standard output.`,
		Args:  cobra.NoArgs,
		RunE:  watch,
	}
	watchOpts = struct {
		NumEvents uint
	}{}
)

func watch(cmd *cobra.Command, args []string) error {
	conn, c, err := connect()
	if err != nil {
		return err
	}
	defer conn.Close()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	count := uint(0)
	return c.Watch(ctx, func(ws service.WidgetState) {
		fmt.Println(ws)
		count++
		if watchOpts.NumEvents > 0 && count >= watchOpts.NumEvents {
			cancel()
		}
	})
}
