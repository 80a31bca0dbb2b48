package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/assets"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/control"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render/term"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

func assetsDir(t *testing.T) string {
	t.Helper()
	dir, err := assets.Extract(t.TempDir())
	if err != nil {
		t.Fatalf("extract assets: %v", err)
	}
	return dir
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestMenuOpensPreset(t *testing.T) {
	m := NewApp(assetsDir(t))
	defer m.Close()
	if !strings.Contains(m.View(), "two_link_reach") {
		t.Fatalf("menu should list presets:\n%s", m.View())
	}

	idx := -1
	for i, name := range m.presets {
		if name == "two_link_reach" {
			idx = i
		}
	}
	for i := 0; i < idx; i++ {
		m = send(t, m, key("down"))
	}
	m = send(t, m, key("enter"))
	if m.state != stateSim || m.err != nil {
		t.Fatalf("expected simulation view, state=%v err=%v", m.state, m.err)
	}

	m = send(t, m, tickMsg(time.Now()), tickMsg(time.Now()))
	if m.last.Step != 1 {
		t.Errorf("expected two steps, last step %d", m.last.Step)
	}
	if !strings.Contains(m.View(), "ee (") {
		t.Errorf("simulation view missing end-effector line:\n%s", m.View())
	}

	m = send(t, m, key("q"))
	if m.state != stateMenu || m.sess != nil {
		t.Errorf("q should close the world and return to the menu")
	}
}

func TestPauseAndSingleStep(t *testing.T) {
	m := NewApp(assetsDir(t), WithWorld("two_link_reach", config.GetWorldPreset("two_link_reach")))
	defer m.Close()

	m = send(t, m, key(" "), tickMsg(time.Now()))
	if len(m.history) != 0 {
		t.Fatalf("paused model should not step")
	}
	m = send(t, m, key("n"))
	if len(m.history) != 1 {
		t.Errorf("n should advance one step, history %d", len(m.history))
	}
	m = send(t, m, key("+"), key("+"))
	if m.speed != 4 {
		t.Errorf("expected speed 4, got %d", m.speed)
	}
}

func TestManualJog(t *testing.T) {
	m := NewApp(assetsDir(t), WithWorld("two_link_swing", config.GetWorldPreset("two_link_swing")))
	defer m.Close()

	m = send(t, m, key("m"), key("tab"), key("k"), key("k"))
	manual, ok := m.sess.runner.Controller().(*control.Manual)
	if !ok {
		t.Fatalf("m should switch to manual control")
	}
	offsets := manual.Offsets()
	if offsets[0] != 0 || offsets[1] < 2*jogStep-1e-12 {
		t.Errorf("expected elbow jogged by %f, got %v", 2*jogStep, offsets)
	}
	m = send(t, m, key("m"))
	if _, ok := m.sess.runner.Controller().(*control.Manual); ok {
		t.Errorf("second m should restore the preset controller")
	}
}

func TestTuneParameter(t *testing.T) {
	m := NewApp(assetsDir(t), WithWorld("two_link_swing", config.GetWorldPreset("two_link_swing")))
	defer m.Close()

	tr := m.sess.runner.Controller().(*control.JointTrajectory)
	before := tr.Amplitude
	m = send(t, m, key("."))
	if tr.Amplitude <= before {
		t.Errorf("expected amplitude to grow from %f, got %f", before, tr.Amplitude)
	}
}

func TestLiveRendererThrottles(t *testing.T) {
	dir := assetsDir(t)
	cfg := config.GetWorldPreset("two_link_reach")
	cfg.AssetsDir = dir
	w, err := world.New(*cfg, world.WithDefaultScene())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	defer w.Close()

	var out bytes.Buffer
	scene := term.NewScene()
	info, _ := w.Physics().DebugVisualizerInfo()
	r := NewLiveRenderer(&out, render.NewAdapter(w.Physics(), scene), scene, term.NewCamera(info.DebugCameraConfig), 30, 12, 10)
	clock := time.Unix(0, 0)
	r.now = func() time.Time { return clock }

	for i := 0; i < 20; i++ {
		r.OnStep(sim.Sample{Q: []float64{0, 0}})
		clock = clock.Add(10 * time.Millisecond)
	}
	if r.Frames() != 2 {
		t.Errorf("expected 2 frames at 10 fps over 200ms, got %d", r.Frames())
	}
	if r.Err() != nil {
		t.Errorf("unexpected error: %v", r.Err())
	}
	if scene.Len() == 0 {
		t.Errorf("scene should hold the world's shapes")
	}
	if !strings.Contains(out.String(), clearScreen) {
		t.Errorf("frames should clear the screen")
	}
}
