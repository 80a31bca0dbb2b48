package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/analysis"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render/term"
)

const (
	background   = "#0a0a0a"
	defaultColor = "#00ff00"
)

var pixelMap = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasToSVG draws every inked braille dot as a circle in its cell colour.
func CanvasToSVG(w io.Writer, canvas *term.Canvas, scale float64) error {
	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r, color := canvas.Cell(col, row)
			pattern := r - 0x2800
			if pattern <= 0 {
				continue
			}
			fill := string(color)
			if fill == "" {
				fill = defaultColor
			}
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, fill)
				}
			}
		}
	}
	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// PathToSVG draws pts as a polyline fitted to width x height with a 10%
// margin. y grows upwards.
func PathToSVG(w io.Writer, pts []analysis.Point, width, height int, stroke string) error {
	if len(pts) < 2 {
		return fmt.Errorf("export: need at least two points, got %d", len(pts))
	}
	lo, hi := analysis.Bounds(pts)
	rangeX, rangeY := hi.X-lo.X, hi.Y-lo.Y
	lo.X -= rangeX * 0.1
	lo.Y -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, stroke)

	for i, p := range pts {
		x := (p.X - lo.X) / rangeX * float64(width)
		y := float64(height) - (p.Y-lo.Y)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
