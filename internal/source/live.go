// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_replay/internal/link"
	"github.com/relabs-tech/inertial_replay/internal/orientation"
	"github.com/relabs-tech/inertial_replay/internal/record"
)

// DefaultRetryInterval is the pause between failed device opens.
const DefaultRetryInterval = 100 * time.Millisecond

// LiveOptions tunes the live link. Production code uses DefaultLiveOptions;
// tests shrink the intervals for fake devices.
type LiveOptions struct {
	Mode          link.Mode
	RetryInterval time.Duration
}

// DefaultLiveOptions returns the fixed telemetry link parameters.
func DefaultLiveOptions() LiveOptions {
	return LiveOptions{
		Mode:          link.DefaultMode(),
		RetryInterval: DefaultRetryInterval,
	}
}

// State is a consistent copy of the live stream state.
type State struct {
	Time        float64 // ms of samples received since connect
	Prev        float64 // Time as of the previous Think
	Open        bool
	Orientation quat.Number
	Sample      record.Sample
}

// Live streams records from a serial device in a background goroutine and
// serves the latest state to pollers.
//
// The goroutine owns the device and is the only writer. It reconnects
// forever; device loss is routine and only shows up as Open == false.
type Live struct {
	name   string
	opener link.Opener
	opts   LiveOptions
	done   chan struct{}

	// mu guards everything below. The reader goroutine holds it only for
	// in-memory updates, never across device I/O.
	mu     sync.RWMutex
	time   float64
	prev   float64
	open   bool
	sample *record.Sample
	intg   *orientation.Integrator
}

// StartLive starts streaming from the device name and returns at once.
// The goroutine runs until ctx is cancelled; pass context.Background() to
// keep it for the life of the process.
func StartLive(ctx context.Context, name string, opener link.Opener, opts LiveOptions) *Live {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}

	l := &Live{
		name:   name,
		opener: opener,
		opts:   opts,
		done:   make(chan struct{}),
		sample: &record.Sample{Reference: orientation.Identity},
		intg:   orientation.NewIntegrator(),
	}
	go l.readForever(ctx)
	return l
}

// Done is closed once the background goroutine has exited.
func (l *Live) Done() <-chan struct{} {
	return l.done
}

func (l *Live) readForever(ctx context.Context) {
	defer close(l.done)

	buffer := &record.Sample{}
	for {
		port, err := l.connect(ctx)
		if err != nil {
			return
		}
		log.Printf("%s: connected", l.name)

		fault := l.readLines(ctx, port, &buffer)
		port.Close()

		log.Printf("%s: disconnected (%s)", l.name, fault)
		l.markClosed()

		if ctx.Err() != nil {
			return
		}
	}
}

// connect opens the device, retrying every RetryInterval until it succeeds
// or ctx is done.
func (l *Live) connect(ctx context.Context) (io.ReadCloser, error) {
	reported := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		port, err := l.opener.Open(l.name, l.opts.Mode)
		if err == nil {
			return port, nil
		}
		if !reported {
			log.Printf("%s: waiting for device: %v", l.name, err)
			reported = true
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.opts.RetryInterval):
		}
	}
}

// readLines feeds decoded lines into the shared state until the stream
// faults. Bad lines and transient read errors only drop the line at hand.
func (l *Live) readLines(ctx context.Context, port io.ReadCloser, buffer **record.Sample) link.Fault {
	// Unblock a pending read on cancellation.
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer stop()

	r := bufio.NewReader(port)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil {
				return link.FaultBrokenPipe
			}
			if fault := link.Classify(err); fault != link.FaultNone {
				return fault
			}
			continue
		}

		s, err := record.Decode(line)
		if err != nil {
			continue
		}
		**buffer = s
		l.publish(buffer)
	}
}

// publish integrates the sample in *buffer and swaps it in as the current
// record. The previous record comes back in *buffer for reuse.
func (l *Live) publish(buffer **record.Sample) {
	s := *buffer

	l.mu.Lock()
	l.time += s.DT
	l.open = true
	l.intg.AddSample(s.DT, s.Gyro)
	l.sample, *buffer = s, l.sample
	l.mu.Unlock()
}

func (l *Live) markClosed() {
	l.mu.Lock()
	l.open = false
	l.time = 0
	l.prev = 0
	l.intg.Reset()
	l.mu.Unlock()
}

// Think snapshots the stream clock and reports link status, e.g.
// "Live 12.34 (20 ms)" or "Offline".
func (l *Live) Think() string {
	l.mu.Lock()
	open, t, prev := l.open, l.time, l.prev
	l.prev = l.time
	l.mu.Unlock()

	if !open {
		return "Offline"
	}
	return fmt.Sprintf("Live %.2f (%s ms)", t*0.001, strconv.FormatFloat(t-prev, 'f', -1, 64))
}

func (l *Live) OrientationEstimate() quat.Number {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intg.Orientation()
}

func (l *Live) ReferenceOrientation() quat.Number {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sample.Reference
}

func (l *Live) Arrows() (accel, mag record.Vec3) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sample.Accel, l.sample.Mag
}

// Snapshot returns the whole shared state from a single update cycle.
func (l *Live) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return State{
		Time:        l.time,
		Prev:        l.prev,
		Open:        l.open,
		Orientation: l.intg.Orientation(),
		Sample:      *l.sample,
	}
}
