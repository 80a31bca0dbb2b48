package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render/term"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a [sim.Observer] that redraws the scene to out at most
// frameRate times per second. It needs no interactive terminal.
type LiveRenderer struct {
	out       io.Writer
	adapter   *render.Adapter
	scene     *term.Scene
	cam       *term.Camera
	width     int
	height    int
	frameRate int
	lastFrame time.Time
	now       func() time.Time
	frames    int
	err       error
}

func NewLiveRenderer(out io.Writer, adapter *render.Adapter, scene *term.Scene, cam *term.Camera, width, height, frameRate int) *LiveRenderer {
	return &LiveRenderer{
		out:       out,
		adapter:   adapter,
		scene:     scene,
		cam:       cam,
		width:     width,
		height:    height,
		frameRate: max(frameRate, 1),
		now:       time.Now,
	}
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

func (r *LiveRenderer) OnStep(s sim.Sample) {
	if r.err != nil {
		return
	}
	now := r.now()
	if !r.lastFrame.IsZero() && now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now
	if err := r.adapter.Sync(); err != nil {
		r.err = err
		return
	}
	canvas := r.scene.Render(r.width, r.height, r.cam)
	fmt.Fprint(r.out, clearScreen)
	fmt.Fprint(r.out, canvas.Styled())
	fmt.Fprintf(r.out, "t=%.2fs  q=%.3f\n", s.Time, s.Q)
	r.frames++
}

// Frames counts frames drawn so far.
func (r *LiveRenderer) Frames() int { return r.frames }

// Err reports the first sync failure; frames stop being drawn after it.
func (r *LiveRenderer) Err() error { return r.err }
