package physics

import (
	"fmt"
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// Default projection of camera images taken without an explicit matrix.
const (
	DefaultFOV  = math.Pi / 3
	DefaultNear = 0.01
	DefaultFar  = 100.0
)

func deg(rad float64) float64 { return rad * 180 / math.Pi }
func rad(deg float64) float64 { return deg * math.Pi / 180 }

func (p *Physics) ResetDebugVisualizer(cfg DebugCameraConfig) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.eng.ResetDebugCamera(engine.DebugCamera{
		Distance: cfg.Distance,
		YawDeg:   deg(cfg.Yaw),
		PitchDeg: deg(cfg.Pitch),
		Target:   cfg.Target,
	})
}

// DebugView is the view matrix looking from the debug camera's orbit
// position at its target.
func DebugView(cfg DebugCameraConfig) spatial.Mat4 {
	forward := spatial.Vec3{
		X: math.Sin(cfg.Yaw) * math.Cos(cfg.Pitch),
		Y: math.Cos(cfg.Yaw) * math.Cos(cfg.Pitch),
		Z: math.Sin(cfg.Pitch),
	}
	eye := cfg.Target.Sub(forward.Scale(cfg.Distance))
	return spatial.ViewMatrix(eye, cfg.Target, spatial.Vec3{Z: 1})
}

// DebugVisualizerInfo returns the debug camera in radians together with the
// view and projection matrices it implies for a square image.
func (p *Physics) DebugVisualizerInfo() (DebugVisualizerInfo, error) {
	if err := p.alive(); err != nil {
		return DebugVisualizerInfo{}, err
	}
	cam, err := p.eng.DebugCamera()
	if err != nil {
		return DebugVisualizerInfo{}, err
	}
	cfg := DebugCameraConfig{
		Distance: cam.Distance,
		Yaw:      rad(cam.YawDeg),
		Pitch:    rad(cam.PitchDeg),
		Target:   cam.Target,
	}
	return DebugVisualizerInfo{
		DebugCameraConfig: cfg,
		View:              DebugView(cfg),
		Projection:        spatial.ProjectionMatrixFOV(DefaultFOV, 1, DefaultNear, DefaultFar),
	}, nil
}

func (p *Physics) ComputeViewMatrix(eye, target, up spatial.Vec3) spatial.Mat4 {
	return spatial.ViewMatrix(eye, target, up)
}

// ComputeProjectionMatrixFOV takes the vertical field of view in radians.
func (p *Physics) ComputeProjectionMatrixFOV(fov, aspect, near, far float64) spatial.Mat4 {
	return spatial.ProjectionMatrixFOV(fov, aspect, near, far)
}

// CameraImage renders the scene. A nil view uses the debug camera and a nil
// projection uses DefaultFOV at the image's aspect ratio.
func (p *Physics) CameraImage(width, height int, mode ImageMode, view, proj *spatial.Mat4) (*CameraImage, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	switch mode {
	case ImageRGB, ImageDepth, ImageRGBD, ImageSegmentation:
	default:
		return nil, fmt.Errorf("%w: image mode %q", ErrNotImplemented, mode)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrDimensionMismatch, width, height)
	}
	req := engine.ImageRequest{Width: width, Height: height}
	if view != nil {
		req.View = *view
	} else {
		info, err := p.DebugVisualizerInfo()
		if err != nil {
			return nil, err
		}
		req.View = info.View
	}
	if proj != nil {
		req.Projection = *proj
	} else {
		req.Projection = spatial.ProjectionMatrixFOV(DefaultFOV, float64(width)/float64(height), DefaultNear, DefaultFar)
	}
	img, err := p.eng.CameraImage(req)
	if err != nil {
		return nil, err
	}
	out := &CameraImage{Mode: mode, Width: img.Width, Height: img.Height}
	switch mode {
	case ImageRGB:
		out.RGBA = img.RGBA
	case ImageDepth:
		out.Depth = img.Depth
	case ImageRGBD:
		out.RGBA, out.Depth = img.RGBA, img.Depth
	case ImageSegmentation:
		out.Segmentation = img.Segmentation
	}
	return out, nil
}
