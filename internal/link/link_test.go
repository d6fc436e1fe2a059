package link

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type netTimeout struct{}

func (netTimeout) Error() string   { return "i/o timeout" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Fault
	}{
		{"nil", nil, FaultNone},
		{"eof", io.EOF, FaultUnexpectedEOF},
		{"unexpected eof", io.ErrUnexpectedEOF, FaultUnexpectedEOF},
		{"wrapped eof", fmt.Errorf("read: %w", io.EOF), FaultUnexpectedEOF},
		{"read timeout", ErrReadTimeout, FaultTimedOut},
		{"deadline", os.ErrDeadlineExceeded, FaultTimedOut},
		{"timeout interface", netTimeout{}, FaultTimedOut},
		{"epipe", &os.PathError{Op: "read", Path: "/dev/ttyACM0", Err: syscall.EPIPE}, FaultBrokenPipe},
		{"closed pipe", io.ErrClosedPipe, FaultBrokenPipe},
		{"eio", &os.PathError{Op: "read", Path: "/dev/ttyACM0", Err: syscall.EIO}, FaultBrokenPipe},
		{"other", errors.New("framing error"), FaultNone},
		{"eintr", syscall.EINTR, FaultNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestFaultString(t *testing.T) {
	assert.Equal(t, "broken pipe", FaultBrokenPipe.String())
	assert.Equal(t, "timed out", FaultTimedOut.String())
	assert.Equal(t, "unexpected end of stream", FaultUnexpectedEOF.String())
	assert.Equal(t, "transient", FaultNone.String())
}

type zeroReader struct{ closed bool }

func (z *zeroReader) Read(p []byte) (int, error) { return 0, nil }
func (z *zeroReader) Close() error               { z.closed = true; return nil }

func TestTimeoutReader(t *testing.T) {
	z := &zeroReader{}
	r := &timeoutReader{rc: z}

	n, err := r.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrReadTimeout)

	require.NoError(t, r.Close())
	assert.True(t, z.closed)
}

func TestIdleReader_TimesOut(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	r := NewIdleReader(pr, 20*time.Millisecond)

	start := time.Now()
	_, err := r.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, FaultTimedOut, Classify(err))

	// once fired the reader stays dead
	_, err = r.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.NoError(t, r.Close())
}

func TestIdleReader_PassesDataThrough(t *testing.T) {
	pr, pw := io.Pipe()
	r := NewIdleReader(pr, time.Second)

	go func() {
		pw.Write([]byte("hello\n"))
	}()

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(buf[:n]))

	pw.Close()
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, r.Close())
}

// lateReader delivers its data only after a delay, and keeps a count of
// Close calls instead of unblocking.
type lateReader struct {
	delay  time.Duration
	closes atomic.Int32
}

func (l *lateReader) Read(p []byte) (int, error) {
	time.Sleep(l.delay)
	return copy(p, "late\n"), nil
}

func (l *lateReader) Close() error {
	l.closes.Add(1)
	return nil
}

func TestIdleReader_DataRacingWatchdogIsKept(t *testing.T) {
	lr := &lateReader{delay: 50 * time.Millisecond}
	r := NewIdleReader(lr, 10*time.Millisecond)

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "late\n", string(buf[:n]))
	assert.Equal(t, int32(1), lr.closes.Load())

	_, err = r.Read(buf)
	assert.ErrorIs(t, err, ErrReadTimeout)

	require.NoError(t, r.Close())
	assert.Equal(t, int32(1), lr.closes.Load())
}

func TestIdleReader_WatchdogIdleBetweenReads(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewIdleReader(pr, 20*time.Millisecond)

	go pw.Write([]byte("a"))
	buf := make([]byte, 4)
	_, err := r.Read(buf)
	require.NoError(t, err)

	// time spent outside Read never counts against the device
	time.Sleep(60 * time.Millisecond)
	go pw.Write([]byte("b"))
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "b", string(buf[:n]))
	assert.NoError(t, r.Close())
}

func TestNewOpener(t *testing.T) {
	o, err := NewOpener("")
	require.NoError(t, err)
	assert.IsType(t, BugstOpener{}, o)

	o, err = NewOpener(DriverJacobsa)
	require.NoError(t, err)
	assert.IsType(t, JacobsaOpener{}, o)

	_, err = NewOpener("usbserial")
	assert.Error(t, err)
}

func TestOpeners_MissingDevice(t *testing.T) {
	for _, o := range []Opener{BugstOpener{}, JacobsaOpener{}} {
		_, err := o.Open("/dev/nonexistent-serial-port-12345", DefaultMode())
		assert.Error(t, err)
	}
}

func TestDefaultMode(t *testing.T) {
	m := DefaultMode()
	assert.Equal(t, 460800, m.BaudRate)
	assert.Equal(t, 60*time.Second, m.ReadTimeout)
}
