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
	"github.com/warthog618/gpiod"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List GPIO chips able to drive a flash LED",
	Long:  `List each GPIO chip with its label, and the number of its lines free to drive a flash LED.`,
	Args:  cobra.NoArgs,
	Run:   detect,
}

func detect(cmd *cobra.Command, args []string) {
	rc := 0
	for _, name := range gpiod.Chips() {
		free, err := freeLines(name)
		if err != nil {
			logErr(cmd, err)
			rc = 1
			continue
		}
		fmt.Println(free)
	}
	os.Exit(rc)
}

// freeLines describes the chip and the number of its lines not in use.
func freeLines(name string) (string, error) {
	c, err := gpiod.NewChip(name)
	if err != nil {
		return "", err
	}
	defer c.Close()
	free := 0
	for o := 0; o < c.Lines(); o++ {
		inf, err := c.LineInfo(o)
		if err != nil {
			return "", fmt.Errorf("%s line %d: %w", name, o, err)
		}
		if !inf.Used {
			free++
		}
	}
	return fmt.Sprintf("%s [%s] %d of %d lines free", c.Name, c.Label, free, c.Lines()), nil
}
