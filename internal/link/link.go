// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package link opens the point-to-point serial telemetry device and
// classifies the errors its reads produce.
package link

import (
	"fmt"
	"io"
	"time"
)

// Serial parameters of the telemetry firmware.
const (
	DefaultBaudRate    = 460800
	DefaultReadTimeout = 60 * time.Second
)

// Mode holds the line settings used when opening a device.
type Mode struct {
	BaudRate    int
	ReadTimeout time.Duration // idle time after which a read fails with ErrReadTimeout
}

// DefaultMode returns the settings the telemetry firmware expects.
func DefaultMode() Mode {
	return Mode{
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Opener opens a named device for reading.
type Opener interface {
	Open(name string, mode Mode) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(name string, mode Mode) (io.ReadCloser, error)

// Open calls f.
func (f OpenerFunc) Open(name string, mode Mode) (io.ReadCloser, error) {
	return f(name, mode)
}

// Driver names accepted by NewOpener.
const (
	DriverBugst   = "bugst"
	DriverJacobsa = "jacobsa"
)

// NewOpener returns the opener for the named serial driver.
func NewOpener(driver string) (Opener, error) {
	switch driver {
	case "", DriverBugst:
		return BugstOpener{}, nil
	case DriverJacobsa:
		return JacobsaOpener{}, nil
	default:
		return nil, fmt.Errorf("unknown serial driver %q (want %q or %q)", driver, DriverBugst, DriverJacobsa)
	}
}
