package link

import (
	"io"
	"sync/atomic"
	"time"
)

// timeoutReader turns the (0, nil) a timed-out serial read returns into
// ErrReadTimeout, so line readers see an error instead of spinning.
type timeoutReader struct {
	rc io.ReadCloser
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if n == 0 && err == nil && len(p) > 0 {
		return 0, ErrReadTimeout
	}
	return n, err
}

func (r *timeoutReader) Close() error {
	return r.rc.Close()
}

// IdleReader closes the underlying device when a single Read blocks longer
// than the timeout, and reports ErrReadTimeout for that read.
type IdleReader struct {
	rc      io.ReadCloser
	timeout time.Duration
	timer   *time.Timer

	// armed is true only while a Read is blocked in rc. The watchdog and
	// Read race to clear it; whoever wins decides the outcome.
	armed atomic.Bool
	fired atomic.Bool
}

// NewIdleReader wraps rc with an idle watchdog.
func NewIdleReader(rc io.ReadCloser, timeout time.Duration) *IdleReader {
	r := &IdleReader{rc: rc, timeout: timeout}
	r.timer = time.AfterFunc(timeout, func() {
		if !r.armed.CompareAndSwap(true, false) {
			return
		}
		r.fired.Store(true)
		rc.Close()
	})
	r.timer.Stop()
	return r
}

// Read reads from the device, failing with ErrReadTimeout if it stays idle
// for the whole timeout. Data that arrives as the watchdog fires is still
// returned; the following Read reports the timeout.
func (r *IdleReader) Read(p []byte) (int, error) {
	if r.fired.Load() {
		return 0, ErrReadTimeout
	}

	r.armed.Store(true)
	r.timer.Reset(r.timeout)
	n, err := r.rc.Read(p)
	beatWatchdog := r.armed.CompareAndSwap(true, false)
	r.timer.Stop()

	if beatWatchdog {
		return n, err
	}
	if n == 0 {
		return 0, ErrReadTimeout
	}
	return n, nil
}

// Close stops the watchdog and closes the device.
func (r *IdleReader) Close() error {
	r.armed.Store(false)
	r.timer.Stop()
	if r.fired.Load() {
		return nil
	}
	return r.rc.Close()
}
