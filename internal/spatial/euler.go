package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultGimbalEpsilon is the default half-width, in radians, of the band
// around pitch = ±π/2 treated as gimbal lock.
const DefaultGimbalEpsilon = 1e-3

// Euler holds roll, pitch, yaw in radians (static XYZ).
type Euler struct {
	Roll, Pitch, Yaw float64
}

// QuaternionFromEuler converts roll/pitch/yaw to a unit quaternion.
func QuaternionFromEuler(roll, pitch, yaw float64) Quaternion {
	return fromQuat(mgl64.AnglesToQuat(yaw, pitch, roll, mgl64.ZYX))
}

func (e Euler) Quaternion() Quaternion { return QuaternionFromEuler(e.Roll, e.Pitch, e.Yaw) }

// Matrix3 returns Rz(yaw)·Ry(pitch)·Rx(roll).
func (e Euler) Matrix3() Mat3 {
	return fromMat3(mgl64.Rotate3DZ(e.Yaw).Mul3(mgl64.Rotate3DY(e.Pitch)).Mul3(mgl64.Rotate3DX(e.Roll)))
}

func (e Euler) Slice() []float64 { return []float64{e.Roll, e.Pitch, e.Yaw} }

func (e Euler) ApproxEqual(o Euler, tol float64) bool {
	return angleDiff(e.Roll, o.Roll) <= tol &&
		angleDiff(e.Pitch, o.Pitch) <= tol &&
		angleDiff(e.Yaw, o.Yaw) <= tol
}

func (e Euler) String() string { return fmt.Sprintf("[%g, %g, %g]", e.Roll, e.Pitch, e.Yaw) }

// IsGimbalLocked reports whether pitch lies within eps of ±π/2.
func IsGimbalLocked(e Euler, eps float64) bool {
	return math.Abs(math.Abs(e.Pitch)-math.Pi/2) < eps
}

// angleDiff is the absolute wrapped difference between two angles.
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return math.Abs(d)
}
