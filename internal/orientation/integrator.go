// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_replay/internal/record"
)

// Identity is the zero rotation.
var Identity = quat.Number{Real: 1}

// Integrator accumulates an orientation from gyro samples.
// It is not safe for concurrent use; callers that share one must lock.
type Integrator struct {
	q       quat.Number
	samples int
}

// NewIntegrator returns an integrator at identity.
func NewIntegrator() *Integrator {
	return &Integrator{q: Identity}
}

// AddSample integrates one angular-velocity sample w (rad/s) over dtMs
// milliseconds.
//
// The sensor frame is X right, Y forward, Z down (left handed); the world
// frame is X right, Y up, Z back (right handed). Each increment is applied
// about the orientation's own current axes, in X, Y, Z order:
//
//	X by -w.X*dt, Y by +w.Z*dt, Z by +w.Y*dt
func (in *Integrator) AddSample(dtMs float64, w record.Vec3) {
	dt := dtMs * 0.001

	q := in.Orientation()
	q = quat.Mul(q, axisAngle(1, 0, 0, -w.X*dt))
	q = quat.Mul(q, axisAngle(0, 1, 0, w.Z*dt))
	q = quat.Mul(q, axisAngle(0, 0, 1, w.Y*dt))

	in.q = normalize(q)
	in.samples++
}

// Reset puts the orientation back to identity.
func (in *Integrator) Reset() {
	in.q = Identity
	in.samples = 0
}

// Orientation returns the accumulated unit quaternion.
func (in *Integrator) Orientation() quat.Number {
	if in.q == (quat.Number{}) {
		return Identity
	}
	return in.q
}

// Samples reports how many samples were integrated since the last reset.
func (in *Integrator) Samples() int {
	return in.samples
}

// axisAngle builds the rotation of angle radians about the unit axis (x, y, z).
func axisAngle(x, y, z, angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: x * s, Jmag: y * s, Kmag: z * s}
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return Identity
	}
	return quat.Scale(1/n, q)
}
