// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/torch/gpio"
)

func init() {
	rootCmd.AddCommand(findCmd)
}

var findCmd = &cobra.Command{
	Use:                   "find <line>...",
	Short:                 "Find the GPIO line driving a flash LED",
	Long:                  `Resolve lines given as chip:offset, a Raspberry Pi header pin or a line name.  The output can be used as the torchd --gpio-line.`,
	Args:                  cobra.MinimumNArgs(1),
	Run:                   find,
	DisableFlagsInUseLine: true,
}

func find(cmd *cobra.Command, args []string) {
	rc := 0
	for _, line := range args {
		chip, offset, err := gpio.ParseLine(line)
		if err != nil {
			logErr(cmd, fmt.Errorf("%s: %w", line, err))
			rc = 1
			continue
		}
		fmt.Printf("%s:%d\n", chip, offset)
	}
	os.Exit(rc)
}
