// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpio

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/pilebones/go-udev/netlink"
)

// RemoveWatcher reports the removal of a GPIO chip.
type RemoveWatcher struct {
	conn  *netlink.UEventConn
	queue chan netlink.UEvent
	errs  chan error
	quit  chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

// WatchRemove calls fn when udev reports the removal of the named chip.
//
// fn is called from the watcher goroutine at most once.
func WatchRemove(chip string, fn func()) (*RemoveWatcher, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, fmt.Errorf("unable to connect to Netlink Kobject UEvent socket: %w", err)
	}
	action := "remove"
	matcher := &netlink.RuleDefinition{Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "gpio",
			"DEVNAME":   devnamePattern(chip),
		}}
	// buffered so the monitor can deliver the read error caused by Close,
	// and then see the quit, after the watch has stopped.
	w := RemoveWatcher{
		conn:  conn,
		queue: make(chan netlink.UEvent, 1),
		errs:  make(chan error, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	w.quit = conn.Monitor(w.queue, w.errs, matcher)
	go w.watch(fn)
	return &w, nil
}

func (w *RemoveWatcher) watch(fn func()) {
	defer close(w.done)
	fired := false
	for {
		select {
		case <-w.queue:
			// keep draining so the monitor never blocks
			if !fired {
				fired = true
				fn()
			}
		case err := <-w.errs:
			log.Printf("udev monitor error: %v", err)
		case <-w.stop:
			return
		}
	}
}

// Close stops the watcher.
func (w *RemoveWatcher) Close() {
	w.quit <- struct{}{}
	w.conn.Close()
	close(w.stop)
	<-w.done
}

// devnamePattern returns the udev DEVNAME pattern matching the chip.
func devnamePattern(chip string) string {
	name := strings.TrimPrefix(chip, "/dev/")
	return "^(/dev/)?" + regexp.QuoteMeta(name) + "$"
}
