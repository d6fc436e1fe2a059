// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package source provides the recorded and live sensor sources a render or
// publish loop polls once per tick.
package source

import (
	"context"
	"log"
	"strings"

	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_replay/internal/link"
	"github.com/relabs-tech/inertial_replay/internal/record"
)

// DefaultInput is played back when no input is named.
const DefaultInput = "tilt1.txt"

// DevicePrefix marks an input designator as a live device.
const DevicePrefix = "/dev/"

// Source is polled once per tick: Think first, then the getters.
// Results describe the current tick only.
type Source interface {
	// Think advances the source and returns a status label.
	Think() string
	// OrientationEstimate is the gyro-integrated orientation.
	OrientationEstimate() quat.Number
	// ReferenceOrientation is the device-supplied attitude, scalar first.
	ReferenceOrientation() quat.Number
	// Arrows returns the raw accelerometer and magnetometer vectors.
	Arrows() (accel, mag record.Vec3)
}

// IsDevice reports whether designator names a live device.
func IsDevice(designator string) bool {
	return strings.HasPrefix(designator, DevicePrefix)
}

// Open picks a source for designator: a live link for device paths, a
// recorded log otherwise. An empty designator plays DefaultInput.
// Only recorded sources can fail here.
func Open(ctx context.Context, designator string, opener link.Opener) (Source, error) {
	if designator == "" {
		designator = DefaultInput
	}

	if IsDevice(designator) {
		log.Printf("source: streaming from %s at %d baud", designator, link.DefaultBaudRate)
		return StartLive(ctx, designator, opener, DefaultLiveOptions()), nil
	}

	rec, err := LoadRecorded(designator)
	if err != nil {
		return nil, err
	}
	log.Printf("source: playing %d records from %s", rec.Len(), designator)
	return rec, nil
}
