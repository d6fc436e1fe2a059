package app

import (
	"time"

	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_replay/internal/orientation"
	"github.com/relabs-tech/inertial_replay/internal/record"
	"github.com/relabs-tech/inertial_replay/internal/source"
)

// Quat is the JSON form of a quaternion, scalar first.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// QuatFrom converts a gonum quaternion.
func QuatFrom(q quat.Number) Quat {
	return Quat{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// Attitude is one orientation in both quaternion and angle form.
type Attitude struct {
	Quat Quat             `json:"quat"`
	Pose orientation.Pose `json:"pose"`
}

func attitudeFrom(q quat.Number) Attitude {
	return Attitude{Quat: QuatFrom(q), Pose: orientation.PoseFromQuat(q)}
}

// Arrows are the raw display vectors of the current record, plus the tilt
// the accelerometer alone implies.
type Arrows struct {
	Accel record.Vec3      `json:"accel"`
	Mag   record.Vec3      `json:"mag"`
	Tilt  orientation.Pose `json:"tilt"`
}

// Frame is everything one tick of polling a source yields.
type Frame struct {
	Time      string   `json:"time"` // RFC3339
	Label     string   `json:"label"`
	Estimate  Attitude `json:"estimate"`
	Reference Attitude `json:"reference"`
	Arrows    Arrows   `json:"arrows"`
}

// Poll runs one tick against src: Think first, then the getters.
func Poll(src source.Source, now time.Time) Frame {
	label := src.Think()
	accel, mag := src.Arrows()

	return Frame{
		Time:      now.Format(time.RFC3339),
		Label:     label,
		Estimate:  attitudeFrom(src.OrientationEstimate()),
		Reference: attitudeFrom(src.ReferenceOrientation()),
		Arrows:    Arrows{Accel: accel, Mag: mag, Tilt: orientation.PoseFromAccel(accel)},
	}
}
