package spatial

import "github.com/go-gl/mathgl/mgl64"

// ViewMatrix is the look-at transform from world to camera coordinates
// (OpenGL convention, camera looks down -Z).
func ViewMatrix(eye, target, up Vec3) Mat4 {
	return fromMat4(mgl64.LookAtV(eye.vec(), target.vec(), up.vec()))
}

// ProjectionMatrixFOV is a perspective projection with a vertical field of
// view in radians.
func ProjectionMatrixFOV(fov, aspect, near, far float64) Mat4 {
	return fromMat4(mgl64.Perspective(fov, aspect, near, far))
}
