// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"errors"
	"fmt"
	"log"

	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_replay/internal/orientation"
	"github.com/relabs-tech/inertial_replay/internal/record"
)

// ErrNoSamples is returned when a recorded log holds no valid record.
var ErrNoSamples = errors.New("no records to play back")

// Recorded replays a record log in a loop. It is meant for a single
// polling goroutine and does no locking.
type Recorded struct {
	samples []record.Sample
	frame   int
	intg    *orientation.Integrator
}

// NewRecorded plays samples. The slice must not be modified afterwards.
func NewRecorded(samples []record.Sample) (*Recorded, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return &Recorded{
		samples: samples,
		intg:    orientation.NewIntegrator(),
	}, nil
}

// LoadRecorded reads the log at path fully into memory.
func LoadRecorded(path string) (*Recorded, error) {
	samples, dropped, err := record.Load(path)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		log.Printf("source: %s: skipped %d malformed lines", path, dropped)
	}

	rec, err := NewRecorded(samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Think advances one frame, wrapping at the end of the log. Leaving frame 0
// starts a new cycle, so the integrator is reset before the new frame's gyro
// sample is added.
func (r *Recorded) Think() string {
	if r.frame == 0 {
		r.intg.Reset()
	}
	r.frame = (r.frame + 1) % len(r.samples)

	s := &r.samples[r.frame]
	r.intg.AddSample(s.DT, s.Gyro)

	return fmt.Sprintf("%d / %d", r.frame, len(r.samples))
}

func (r *Recorded) OrientationEstimate() quat.Number {
	return r.intg.Orientation()
}

func (r *Recorded) ReferenceOrientation() quat.Number {
	return r.samples[r.frame].Reference
}

func (r *Recorded) Arrows() (accel, mag record.Vec3) {
	s := &r.samples[r.frame]
	return s.Accel, s.Mag
}

// Frame is the index of the current record.
func (r *Recorded) Frame() int {
	return r.frame
}

// Len is the number of records in the log.
func (r *Recorded) Len() int {
	return len(r.samples)
}

// Integrated reports how many gyro samples went into the current estimate.
func (r *Recorded) Integrated() int {
	return r.intg.Samples()
}
