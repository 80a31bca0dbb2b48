package term

import (
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

const circleSegments = 16

type edge struct{ a, b spatial.Vec3 }

type wireframe struct {
	edges []edge
	pose  spatial.Pose
	color lipgloss.Color
}

// Scene is a wireframe [render.Backend] drawn onto a braille [Canvas].
type Scene struct {
	shapes map[render.Handle]*wireframe
	next   render.Handle
}

func NewScene() *Scene {
	return &Scene{shapes: make(map[render.Handle]*wireframe)}
}

func (s *Scene) Create(vs engine.VisualShape) (render.Handle, error) {
	h := s.next
	s.next++
	s.shapes[h] = &wireframe{
		edges: outline(vs.Geometry, vs.Dimensions),
		pose:  spatial.IdentityPose(),
		color: hexColor(vs.RGBA),
	}
	return h, nil
}

func (s *Scene) Update(h render.Handle, pose spatial.Pose) error {
	w, ok := s.shapes[h]
	if !ok {
		return fmt.Errorf("%w: %d", render.ErrUnknownHandle, h)
	}
	w.pose = pose
	return nil
}

func (s *Scene) Remove(h render.Handle) error {
	if _, ok := s.shapes[h]; !ok {
		return fmt.Errorf("%w: %d", render.ErrUnknownHandle, h)
	}
	delete(s.shapes, h)
	return nil
}

func (s *Scene) Len() int { return len(s.shapes) }

type projected struct {
	x1, y1, x2, y2 int
	depth          float64
	color          lipgloss.Color
}

// Draw paints every shape far to near so nearer colours win shared cells.
func (s *Scene) Draw(c *Canvas, cam *Camera) {
	sw, sh := c.Dots()
	view := cam.View()

	handles := make([]render.Handle, 0, len(s.shapes))
	for h := range s.shapes {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	var proj []projected
	for _, h := range handles {
		w := s.shapes[h]
		for _, e := range w.edges {
			x1, y1, d1, ok1 := cam.Project(view, w.pose.TransformPoint(e.a), sw, sh)
			x2, y2, d2, ok2 := cam.Project(view, w.pose.TransformPoint(e.b), sw, sh)
			if !ok1 || !ok2 {
				continue
			}
			proj = append(proj, projected{x1, y1, x2, y2, (d1 + d2) / 2, w.color})
		}
	}
	sort.SliceStable(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2, e.color)
	}
}

// Render draws the scene onto a fresh w x h canvas.
func (s *Scene) Render(w, h int, cam *Camera) *Canvas {
	c := NewCanvas(w, h)
	s.Draw(c, cam)
	return c
}

// outline returns the edges of a geometry in its own frame. Meshes draw
// their bounding box.
func outline(g engine.GeometryType, dims spatial.Vec3) []edge {
	switch g {
	case engine.GeomSphere:
		r := dims.X
		return append(append(
			circle(spatial.Vec3{}, r, 0),
			circle(spatial.Vec3{}, r, 1)...),
			circle(spatial.Vec3{}, r, 2)...)
	case engine.GeomCylinder, engine.GeomCapsule:
		r, half := dims.X, dims.Z/2
		top, bottom := spatial.Vec3{Z: half}, spatial.Vec3{Z: -half}
		edges := append(circle(top, r, 2), circle(bottom, r, 2)...)
		for _, a := range []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2} {
			off := spatial.Vec3{X: r * math.Cos(a), Y: r * math.Sin(a)}
			edges = append(edges, edge{top.Add(off), bottom.Add(off)})
		}
		return edges
	case engine.GeomPlane:
		return box(spatial.Vec3{X: 1, Y: 1})
	}
	return box(dims)
}

func box(h spatial.Vec3) []edge {
	v := [8]spatial.Vec3{
		{X: -h.X, Y: -h.Y, Z: -h.Z}, {X: h.X, Y: -h.Y, Z: -h.Z}, {X: h.X, Y: h.Y, Z: -h.Z}, {X: -h.X, Y: h.Y, Z: -h.Z},
		{X: -h.X, Y: -h.Y, Z: h.Z}, {X: h.X, Y: -h.Y, Z: h.Z}, {X: h.X, Y: h.Y, Z: h.Z}, {X: -h.X, Y: h.Y, Z: h.Z},
	}
	idx := [12][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	edges := make([]edge, 0, len(idx))
	for _, e := range idx {
		edges = append(edges, edge{v[e[0]], v[e[1]]})
	}
	return edges
}

// circle lies in the plane normal to axis (0=X, 1=Y, 2=Z).
func circle(center spatial.Vec3, r float64, axis int) []edge {
	point := func(a float64) spatial.Vec3 {
		u, v := r*math.Cos(a), r*math.Sin(a)
		switch axis {
		case 0:
			return center.Add(spatial.Vec3{Y: u, Z: v})
		case 1:
			return center.Add(spatial.Vec3{X: u, Z: v})
		}
		return center.Add(spatial.Vec3{X: u, Y: v})
	}
	edges := make([]edge, 0, circleSegments)
	for i := 0; i < circleSegments; i++ {
		a0 := 2 * math.Pi * float64(i) / circleSegments
		a1 := 2 * math.Pi * float64(i+1) / circleSegments
		edges = append(edges, edge{point(a0), point(a1)})
	}
	return edges
}

func hexColor(rgba [4]float64) lipgloss.Color {
	ch := func(v float64) int { return int(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", ch(rgba[0]), ch(rgba[1]), ch(rgba[2])))
}
