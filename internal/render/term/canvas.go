package term

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille dot grid of Width x Height cells, that is
// 2*Width x 4*Height dots. Each cell keeps the colour of the last dot
// drawn into it.
type Canvas struct {
	Width, Height int
	cells         [][]rune
	colors        [][]lipgloss.Color
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		cells:  make([][]rune, h),
		colors: make([][]lipgloss.Color, h),
	}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
		c.colors[i] = make([]lipgloss.Color, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) Set(x, y int, color lipgloss.Color) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row][col] |= dotBits[y%4][x%2]
	c.colors[row][col] = color
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = brailleBlank
			c.colors[i][j] = ""
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, color lipgloss.Color) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// String renders the canvas without colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Styled renders the canvas with each cell in its colour.
func (c *Canvas) Styled() string {
	var b strings.Builder
	for i, row := range c.cells {
		for j, r := range row {
			if c.colors[i][j] == "" || r == brailleBlank {
				b.WriteRune(r)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(c.colors[i][j]).Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Cell returns the braille rune and colour at a cell.
func (c *Canvas) Cell(col, row int) (rune, lipgloss.Color) {
	return c.cells[row][col], c.colors[row][col]
}
