package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_replay/internal/record"
)

// Pose is the human readable form of an orientation, in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// PoseFromQuat converts a unit quaternion to roll/pitch/yaw (ZYX order).
func PoseFromQuat(q quat.Number) Pose {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	rollRad := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	// Clamp to keep asin defined at gimbal lock.
	sinp := 2 * (w*y - z*x)
	sinp = math.Max(-1, math.Min(1, sinp))
	pitchRad := math.Asin(sinp)

	yawRad := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Pose{
		Roll:  degrees(rollRad),
		Pitch: degrees(pitchRad),
		Yaw:   degrees(yawRad),
	}
}

// PoseFromAccel is the tilt implied by gravity alone:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
//
// Yaw stays 0. Only meaningful while the device is not accelerating.
func PoseFromAccel(a record.Vec3) Pose {
	return Pose{
		Roll:  degrees(math.Atan2(a.Y, a.Z)),
		Pitch: degrees(math.Atan2(-a.X, math.Hypot(a.Y, a.Z))),
	}
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
