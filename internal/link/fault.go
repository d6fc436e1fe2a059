package link

import (
	"errors"
	"io"
	"os"
	"syscall"

	"go.bug.st/serial"
)

// ErrReadTimeout is returned when the device stays idle for the whole read
// timeout.
var ErrReadTimeout = errors.New("read timed out")

// Fault classifies a read error.
type Fault int

const (
	// FaultNone means the error is transient: drop the line, keep reading.
	FaultNone Fault = iota
	FaultBrokenPipe
	FaultTimedOut
	FaultUnexpectedEOF
)

func (f Fault) String() string {
	switch f {
	case FaultBrokenPipe:
		return "broken pipe"
	case FaultTimedOut:
		return "timed out"
	case FaultUnexpectedEOF:
		return "unexpected end of stream"
	default:
		return "transient"
	}
}

// Classify reports whether err ends the current connection, and why.
// A device that disappears (closed port, EIO/ENXIO/ENODEV from an unplugged
// USB adapter) counts as a broken pipe.
func Classify(err error) Fault {
	if err == nil {
		return FaultNone
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return FaultUnexpectedEOF
	case errors.Is(err, ErrReadTimeout), errors.Is(err, os.ErrDeadlineExceeded):
		return FaultTimedOut
	case errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, os.ErrClosed),
		errors.Is(err, syscall.EIO),
		errors.Is(err, syscall.ENXIO),
		errors.Is(err, syscall.ENODEV):
		return FaultBrokenPipe
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
		return FaultBrokenPipe
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return FaultTimedOut
	}

	return FaultNone
}
