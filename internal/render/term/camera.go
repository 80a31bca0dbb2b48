package term

import (
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// Camera orbits a target the way the debug visualizer does and projects
// world points onto a canvas.
type Camera struct {
	physics.DebugCameraConfig
	FOV  float64
	Zoom float64
}

func NewCamera(cfg physics.DebugCameraConfig) *Camera {
	return &Camera{DebugCameraConfig: cfg, FOV: physics.DefaultFOV, Zoom: 1}
}

// Orbit turns the camera about its target; pitch stays short of the poles.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = math.Max(-1.5, math.Min(1.5, c.Pitch+dpitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Project maps p to dot coordinates on a sw x sh dot canvas. It returns
// the depth along the view axis and whether the point is in front of the
// camera.
func (c *Camera) Project(view spatial.Mat4, p spatial.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	v := spatial.Vec3{
		X: view[0][0]*p.X + view[0][1]*p.Y + view[0][2]*p.Z + view[0][3],
		Y: view[1][0]*p.X + view[1][1]*p.Y + view[1][2]*p.Z + view[1][3],
		Z: view[2][0]*p.X + view[2][1]*p.Y + view[2][2]*p.Z + view[2][3],
	}
	depth = -v.Z
	if depth < physics.DefaultNear {
		return 0, 0, depth, false
	}
	f := c.Zoom / math.Tan(c.FOV/2)
	half := float64(min(sw, sh)) / 2
	x = int(math.Round(float64(sw)/2 + f*v.X/depth*half))
	y = int(math.Round(float64(sh)/2 - f*v.Y/depth*half))
	return x, y, depth, true
}

func (c *Camera) View() spatial.Mat4 { return physics.DebugView(c.DebugCameraConfig) }
