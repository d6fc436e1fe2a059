// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package link

import (
	"fmt"
	"io"

	jserial "github.com/jacobsa/go-serial/serial"
	"go.bug.st/serial"
)

// BugstOpener opens devices with go.bug.st/serial, which supports a native
// read timeout.
type BugstOpener struct{}

// Open opens name at mode.BaudRate, 8N1.
func (BugstOpener) Open(name string, mode Mode) (io.ReadCloser, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	if mode.ReadTimeout > 0 {
		if err := port.SetReadTimeout(mode.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
		}
	}

	return &timeoutReader{rc: port}, nil
}

// JacobsaOpener opens devices with github.com/jacobsa/go-serial. That driver
// caps its inter-character timeout well below a minute, so reads block and
// an idle watchdog enforces mode.ReadTimeout instead.
type JacobsaOpener struct{}

// Open opens name at mode.BaudRate, 8N1.
func (JacobsaOpener) Open(name string, mode Mode) (io.ReadCloser, error) {
	port, err := jserial.Open(jserial.OpenOptions{
		PortName:        name,
		BaudRate:        uint(mode.BaudRate),
		DataBits:        8,
		StopBits:        1,
		ParityMode:      jserial.PARITY_NONE,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	if mode.ReadTimeout <= 0 {
		return port, nil
	}
	return NewIdleReader(port, mode.ReadTimeout), nil
}
