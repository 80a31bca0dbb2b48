// Package spatial provides the pose and orientation value types shared by
// every layer of the simulation wrapper.
//
// All types are plain values and every conversion is a pure function:
//
//   - [Vec3]: 3-D position or direction
//   - [Quaternion]: orientation, scalar-last [x, y, z, w]
//   - [Euler]: roll/pitch/yaw in radians, static XYZ convention
//   - [Mat3], [Mat4]: rotation and homogeneous transform matrices
//   - [Pose]: position plus unit quaternion
//   - [Matrix]: dense row-major matrix for Jacobians and mass matrices
//
// # Euler Convention
//
// Angles follow the static (extrinsic) XYZ convention used by the physics
// engine: R = Rz(yaw) · Ry(pitch) · Rx(roll). Round trips through
// [Quaternion] are exact up to floating point error except near pitch = ±π/2,
// where roll and yaw are not separable. Use [IsGimbalLocked] to detect that band.
//
// # Normalization
//
// Constructors ([NewQuaternion], [NewPose]) renormalize raw data and fail on
// degenerate input. Quaternion components are exported and can be mutated in
// place; the result is not renormalized automatically and callers must call
// [Quaternion.Normalize] before using it as an orientation.
package spatial
