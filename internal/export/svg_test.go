package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/analysis"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render/term"
)

func TestCanvasToSVG(t *testing.T) {
	c := term.NewCanvas(2, 1)
	c.Set(0, 0, "#ff0000")
	c.Set(3, 3, "")

	var buf bytes.Buffer
	if err := CanvasToSVG(&buf, c, 10); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `width="40" height="40"`) {
		t.Errorf("bad size in %s", out)
	}
	if n := strings.Count(out, "<circle"); n != 2 {
		t.Errorf("got %d dots, want 2", n)
	}
	if !strings.Contains(out, `cx="5.0" cy="5.0" r="4.0" fill="#ff0000"`) {
		t.Errorf("missing red dot in %s", out)
	}
	if !strings.Contains(out, `cx="35.0" cy="35.0" r="4.0" fill="`+defaultColor+`"`) {
		t.Errorf("missing default dot in %s", out)
	}
}

func TestPathToSVG(t *testing.T) {
	var buf bytes.Buffer
	pts := []analysis.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	if err := PathToSVG(&buf, pts, 120, 120, "#00ffff"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `d="M10.0,110.0 L110.0,10.0"`) {
		t.Errorf("unexpected path %s", buf.String())
	}
	if err := PathToSVG(&buf, pts[:1], 10, 10, "#fff"); err == nil {
		t.Error("expected error for a single point")
	}
}
