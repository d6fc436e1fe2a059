// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package record

import "gonum.org/v1/gonum/num/quat"

// Vec3 is a 3-component vector in the sensor body frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sample is one decoded telemetry line.
type Sample struct {
	DT    float64 // ms since previous sample
	Accel Vec3
	Gyro  Vec3 // rad/s
	Mag   Vec3

	// Reference is the externally computed attitude for the same instant,
	// scalar first. Display only, never integrated.
	Reference quat.Number
}
