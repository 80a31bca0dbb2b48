package reference

import (
	"fmt"
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

var backgroundRGBA = [4]uint8{178, 178, 204, 255}

type solid struct {
	pose spatial.Pose
	half spatial.Vec3
	rgba [4]float64
	seg  int32
}

// segmentationID packs the body id and link index the way the segmentation
// mask reports them.
func segmentationID(id engine.BodyID, idx engine.LinkIndex) int32 {
	return int32(id) + int32(idx+1)<<24
}

// CameraImage ray casts the visual geometry as oriented boxes. Depth is the
// OpenGL depth buffer value in [0, 1]; empty pixels have depth 1 and
// segmentation -1.
func (e *Engine) CameraImage(req engine.ImageRequest) (*engine.Image, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", engine.ErrDimensionMismatch, req.Width, req.Height)
	}
	p := req.Projection
	if p[0][0] == 0 || p[1][1] == 0 || p[3][2] != -1 {
		return nil, fmt.Errorf("%w: projection is not a perspective matrix", engine.ErrUnsupportedFormat)
	}

	var solids []solid
	for _, id := range e.Bodies() {
		b := e.bodies[id]
		frames := b.frames(b.q)
		add := func(idx engine.LinkIndex, l *link) {
			frame := b.linkFrame(frames, idx)
			for _, g := range l.visuals {
				half := g.halfExtents()
				if half == (spatial.Vec3{}) {
					continue
				}
				solids = append(solids, solid{pose: g.solidPose(frame), half: half, rgba: g.rgba, seg: segmentationID(id, idx)})
			}
		}
		add(engine.BaseLink, &b.base)
		for i := range b.links {
			add(engine.LinkIndex(i), &b.links[i])
		}
	}

	cam := spatial.PoseFromMatrix4(req.View).Inverse()
	w, h := req.Width, req.Height
	img := &engine.Image{
		Width:        w,
		Height:       h,
		RGBA:         make([]uint8, 4*w*h),
		Depth:        make([]float32, w*h),
		Segmentation: make([]int32, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ndcX := 2*(float64(x)+0.5)/float64(w) - 1
			ndcY := 1 - 2*(float64(y)+0.5)/float64(h)
			dir := cam.Orientation.Rotate(spatial.Vec3{X: ndcX / p[0][0], Y: ndcY / p[1][1], Z: -1})
			k := y*w + x

			best, hit := math.Inf(1), -1
			var normal spatial.Vec3
			for i, s := range solids {
				if t, n, ok := s.intersect(cam.Position, dir); ok && t < best {
					best, hit, normal = t, i, n
				}
			}
			if hit < 0 {
				copy(img.RGBA[4*k:4*k+4], backgroundRGBA[:])
				img.Depth[k] = 1
				img.Segmentation[k] = -1
				continue
			}
			zc := -best
			zndc := (p[2][2]*zc + p[2][3]) / -zc
			img.Depth[k] = float32(clamp(0.5*zndc+0.5, 0, 1))
			img.Segmentation[k] = solids[hit].seg
			shade := 0.35 + 0.65*math.Abs(normal.Dot(dir.Normalize()))
			c := solids[hit].rgba
			for ch := 0; ch < 3; ch++ {
				img.RGBA[4*k+ch] = uint8(clamp(c[ch]*shade, 0, 1) * 255)
			}
			img.RGBA[4*k+3] = uint8(clamp(c[3], 0, 1) * 255)
		}
	}
	return img, nil
}

// intersect is the slab test against the oriented box. t is measured in
// multiples of dir, so for camera rays it is the view-space depth.
func (s solid) intersect(origin, dir spatial.Vec3) (float64, spatial.Vec3, bool) {
	inv := s.pose.Orientation.Conjugate()
	o := inv.Rotate(origin.Sub(s.pose.Position)).Slice()
	d := inv.Rotate(dir).Slice()
	h := s.half.Slice()
	tmin, tmax := math.Inf(-1), math.Inf(1)
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < -h[i] || o[i] > h[i] {
				return 0, spatial.Vec3{}, false
			}
			continue
		}
		t1, t2 := (-h[i]-o[i])/d[i], (h[i]-o[i])/d[i]
		sg := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sg = 1
		}
		if t1 > tmin {
			tmin, axis, sign = t1, i, sg
		}
		tmax = math.Min(tmax, t2)
	}
	if tmin > tmax || tmin <= 0 || axis < 0 {
		return 0, spatial.Vec3{}, false
	}
	n := [3]float64{}
	n[axis] = sign
	return tmin, s.pose.Orientation.Rotate(spatial.Vec3{X: n[0], Y: n[1], Z: n[2]}), true
}
