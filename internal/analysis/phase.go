package analysis

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render/term"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

type Point struct{ X, Y float64 }

// Joint extracts one joint's position trace.
func Joint(samples []sim.Sample, joint int) ([]float64, error) {
	out := make([]float64, len(samples))
	for i, s := range samples {
		if joint < 0 || joint >= len(s.Q) {
			return nil, fmt.Errorf("analysis: joint %d out of range (%d joints)", joint, len(s.Q))
		}
		out[i] = s.Q[joint]
	}
	return out, nil
}

// PhasePortrait pairs a joint's position with its velocity.
func PhasePortrait(samples []sim.Sample, joint int) ([]Point, error) {
	pts := make([]Point, len(samples))
	for i, s := range samples {
		if joint < 0 || joint >= len(s.Q) || joint >= len(s.Qd) {
			return nil, fmt.Errorf("analysis: joint %d out of range (%d joints)", joint, len(s.Q))
		}
		pts[i] = Point{X: s.Q[joint], Y: s.Qd[joint]}
	}
	return pts, nil
}

// EEPath is the end-effector trace projected on the xy plane.
func EEPath(samples []sim.Sample) []Point {
	pts := make([]Point, len(samples))
	for i, s := range samples {
		pts[i] = Point{X: s.EE.Position.X, Y: s.EE.Position.Y}
	}
	return pts
}

// Bounds returns the extent of pts, widened to a unit span on flat axes.
func Bounds(pts []Point) (lo, hi Point) {
	if len(pts) == 0 {
		return Point{}, Point{1, 1}
	}
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X, hi.X = min(lo.X, p.X), max(hi.X, p.X)
		lo.Y, hi.Y = min(lo.Y, p.Y), max(hi.Y, p.Y)
	}
	if hi.X == lo.X {
		lo.X, hi.X = lo.X-0.5, hi.X+0.5
	}
	if hi.Y == lo.Y {
		lo.Y, hi.Y = lo.Y-0.5, hi.Y+0.5
	}
	return lo, hi
}

// Plot draws pts as a connected line scaled to fill a w x h cell canvas.
func Plot(pts []Point, w, h int, color lipgloss.Color) *term.Canvas {
	c := term.NewCanvas(w, h)
	if len(pts) == 0 {
		return c
	}
	lo, hi := Bounds(pts)
	dw, dh := c.Dots()
	px := func(p Point) (int, int) {
		x := int((p.X - lo.X) / (hi.X - lo.X) * float64(dw-1))
		y := int((hi.Y - p.Y) / (hi.Y - lo.Y) * float64(dh-1))
		return x, y
	}
	x0, y0 := px(pts[0])
	c.Set(x0, y0, color)
	for _, p := range pts[1:] {
		x1, y1 := px(p)
		c.DrawLine(x0, y0, x1, y1, color)
		x0, y0 = x1, y1
	}
	return c
}
