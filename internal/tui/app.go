package tui

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/control"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render/term"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

const (
	jogStep     = 0.05
	orbitStep   = 0.1
	maxSpeed    = 16
	historySize = 60
)

var ErrNoArm = errors.New("tui: world has no arm")

type state int

const (
	stateMenu state = iota
	stateSim
)

type Option func(*Model)

func WithLogger(log *zap.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// WithWorld starts directly in the simulation view for cfg.
func WithWorld(name string, cfg *config.World) Option {
	return func(m *Model) { m.initial = cfg; m.name = name }
}

// session is everything owned by one open world.
type session struct {
	w       *world.World
	arm     *robot.Arm
	runner  *sim.Simulator
	planned sim.Controller
	manual  *control.Manual
	scene   *term.Scene
	adapter *render.Adapter
	cam     *term.Camera
}

func (s *session) close() {
	if s != nil && s.w != nil {
		s.w.Close()
	}
}

// Model is the live viewer: a preset menu and an interactive simulation.
type Model struct {
	state     state
	presets   []string
	cursor    int
	assetsDir string
	log       *zap.Logger
	initial   *config.World

	name    string
	cfg     *config.World
	sess    *session
	theme   int
	paused  bool
	speed   int
	joint   int
	param   int
	last    sim.Sample
	history []float64
	err     error

	width, height int
}

func NewApp(assetsDir string, opts ...Option) Model {
	m := Model{
		state:     stateMenu,
		presets:   config.ListWorldPresets(),
		assetsDir: assetsDir,
		log:       zap.NewNop(),
		speed:     1,
		width:     80,
		height:    30,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.initial != nil {
		m.open(m.name, m.initial)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.state == stateSim {
		return tick()
	}
	return nil
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Close releases the open world, if any.
func (m Model) Close() { m.sess.close() }

func (m *Model) open(name string, cfg *config.World) {
	m.sess.close()
	m.sess, m.err = nil, nil
	m.name, m.cfg = name, cfg
	m.history = m.history[:0]
	m.joint, m.param, m.paused = 0, 0, false

	sess, err := m.build(cfg)
	if err != nil {
		m.err = err
		m.state = stateMenu
		return
	}
	m.sess = sess
	m.state = stateSim
	if err := sess.adapter.Sync(); err != nil {
		m.err = err
	}
}

func (m *Model) build(cfg *config.World) (*session, error) {
	c := *cfg
	if m.assetsDir != "" {
		c.AssetsDir = m.assetsDir
	}
	w, err := world.New(c, world.WithDefaultScene(), world.WithLogger(m.log))
	if err != nil {
		return nil, err
	}
	arms := w.Arms()
	if len(arms) == 0 {
		w.Close()
		return nil, ErrNoArm
	}
	arm := arms[0]
	ctrl, err := control.New(c.Controller, arm, c.ControllerParams)
	if err != nil {
		w.Close()
		return nil, err
	}
	info, err := w.Physics().DebugVisualizerInfo()
	if err != nil {
		w.Close()
		return nil, err
	}
	scene := term.NewScene()
	return &session{
		w:       w,
		arm:     arm,
		runner:  sim.New(w, arm, ctrl, sim.WithLogger(m.log)),
		planned: ctrl,
		scene:   scene,
		adapter: render.NewAdapter(w.Physics(), scene, render.WithLogger(m.log)),
		cam:     term.NewCamera(info.DebugCameraConfig),
	}, nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == stateMenu {
			return m.menuKey(msg)
		}
		return m.simKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if !m.paused {
			m.advance(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance(n int) {
	if m.sess == nil {
		return
	}
	for i := 0; i < n; i++ {
		smp, err := m.sess.runner.Step()
		if err != nil {
			m.err = err
			m.paused = true
			return
		}
		m.record(smp)
	}
	if err := m.sess.adapter.Sync(); err != nil {
		m.err = err
		m.paused = true
	}
}

// record keeps the distance to the commanded target, or the selected
// joint's position when the command has no target.
func (m *Model) record(smp sim.Sample) {
	m.last = smp
	v := 0.0
	if smp.Command.Target != nil {
		v = smp.EE.Position.Sub(*smp.Command.Target).Norm()
	} else if m.joint < len(smp.Q) {
		v = smp.Q[m.joint]
	}
	m.history = append(m.history, v)
	if len(m.history) > historySize {
		m.history = m.history[1:]
	}
}

func (m Model) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		name := m.presets[m.cursor]
		m.open(name, config.GetWorldPreset(name))
		if m.state == stateSim {
			return m, tea.Batch(tea.ClearScreen, tick())
		}
	}
	return m, nil
}

func (m Model) simKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.sess
	switch msg.String() {
	case "q", "esc":
		m.sess.close()
		m.sess = nil
		m.state = stateMenu
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "n":
		if m.paused {
			m.advance(1)
		}
	case "r":
		m.open(m.name, m.cfg)
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "left":
		s.cam.Orbit(-orbitStep, 0)
	case "right":
		s.cam.Orbit(orbitStep, 0)
	case "up":
		s.cam.Orbit(0, orbitStep)
	case "down":
		s.cam.Orbit(0, -orbitStep)
	case "z":
		s.cam.ZoomIn()
	case "x":
		s.cam.ZoomOut()
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
	case "tab":
		m.joint = (m.joint + 1) % len(s.arm.JointIDs())
	case "m":
		m.toggleManual()
	case "j", "k":
		if s.manual != nil {
			d := jogStep
			if msg.String() == "j" {
				d = -jogStep
			}
			if err := s.manual.Jog(m.joint, d); err != nil {
				m.err = err
			}
		}
	case "[", "]":
		if names := m.paramNames(); len(names) > 0 {
			step := 1
			if msg.String() == "[" {
				step = len(names) - 1
			}
			m.param = (m.param + step) % len(names)
		}
	case ",", ".":
		m.tune(msg.String() == ".")
	}
	return m, nil
}

// toggleManual switches between jogging from the current configuration
// and the preset's controller.
func (m *Model) toggleManual() {
	s := m.sess
	if s.manual != nil {
		s.manual = nil
		s.runner.SetController(s.planned)
		return
	}
	q, err := s.arm.JointPositions()
	if err != nil {
		m.err = err
		return
	}
	s.manual = control.NewManual(q)
	s.runner.SetController(s.manual)
}

func (m Model) tunable() (control.Tunable, bool) {
	if m.sess == nil {
		return nil, false
	}
	t, ok := m.sess.runner.Controller().(control.Tunable)
	return t, ok
}

func (m Model) paramNames() []string {
	t, ok := m.tunable()
	if !ok {
		return nil
	}
	names := make([]string, 0)
	for k := range t.GetParams() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// tune scales the selected parameter by ±10%, stepping off zero by 0.1.
func (m *Model) tune(up bool) {
	t, ok := m.tunable()
	names := m.paramNames()
	if !ok || len(names) == 0 {
		return
	}
	name := names[m.param%len(names)]
	v := t.GetParams()[name]
	switch {
	case v == 0 && up:
		v = 0.1
	case v == 0:
		v = -0.1
	case up:
		v *= 1.1
	default:
		v /= 1.1
	}
	if err := t.SetParam(name, v); err != nil {
		m.err = err
	}
}

func (m Model) View() string {
	st := Themes[m.theme].styles()
	if m.state == stateMenu {
		return m.viewMenu(st)
	}
	return m.viewSim(st)
}

func (m Model) viewMenu(st styles) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(st.dim.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + st.title.Render("b w o r l d") + "\n")
	b.WriteString(st.dim.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	for i, name := range m.presets {
		desc := describe(config.GetWorldPreset(name))
		if i == m.cursor {
			b.WriteString("      " + st.title.Render("▸ ") + st.text.Render(fmt.Sprintf("%-16s", name)) + st.dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + st.dim.Render(fmt.Sprintf("%-16s", name)+desc) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n      " + st.bad.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + st.dim.Render("      ↑↓ select   enter start   q quit") + "\n")
	return b.String()
}

func describe(cfg *config.World) string {
	if cfg == nil || len(cfg.Arms) == 0 {
		return ""
	}
	return fmt.Sprintf("%s, %s", cfg.Arms[0].URDFName, cfg.Controller)
}

func (m Model) viewSim(st styles) string {
	s := m.sess
	if s == nil {
		return ""
	}
	cw, ch := max(m.width-6, 40), max(m.height-16, 10)

	var b strings.Builder
	status := st.ok.Render("● running")
	if m.paused {
		status = st.warn.Render("○ paused")
	}
	mode := m.cfg.Controller
	if s.manual != nil {
		mode = "manual"
	}
	b.WriteString(fmt.Sprintf("\n   %s  %s  %s  %s\n\n",
		st.title.Render(m.name), status, st.accent.Render(mode),
		st.dim.Render(fmt.Sprintf("t=%.2fs  x%d", m.last.Time, m.speed))))

	canvas := s.scene.Render(cw, ch, s.cam)
	for _, line := range strings.Split(strings.TrimSuffix(canvas.Styled(), "\n"), "\n") {
		b.WriteString("   " + line + "\n")
	}
	b.WriteString("\n")

	for i, q := range m.last.Q {
		label := fmt.Sprintf("q%d=", i)
		if i == m.joint {
			b.WriteString("   " + st.accent.Render(label) + st.text.Render(fmt.Sprintf("%+.3f", q)))
		} else {
			b.WriteString("   " + st.dim.Render(label) + st.text.Render(fmt.Sprintf("%+.3f", q)))
		}
	}
	p := m.last.EE.Position
	b.WriteString("\n   " + st.dim.Render("ee ") + st.text.Render(fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)) + "\n")

	if names := m.paramNames(); len(names) > 0 {
		t, _ := m.tunable()
		params := t.GetParams()
		b.WriteString("  ")
		for i, name := range names {
			text := fmt.Sprintf(" %s=%.3f", name, params[name])
			if i == m.param%len(names) {
				b.WriteString(st.accent.Render(text))
			} else {
				b.WriteString(st.dim.Render(text))
			}
		}
		b.WriteString("\n")
	}

	if len(m.history) > 1 && !allEqual(m.history) {
		caption := fmt.Sprintf("q%d", m.joint)
		if m.last.Command.Target != nil {
			caption = "distance to target"
		}
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(40), asciigraph.Caption(caption))
		b.WriteString("\n" + st.dim.Render(chart) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n   " + st.bad.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + st.dim.Render("   space pause  n step  +/- speed  ←→↑↓ orbit  z/x zoom  m manual  tab joint  j/k jog  [] , . tune  t theme  r reset  q back") + "\n")
	return b.String()
}

func allEqual(v []float64) bool {
	for _, x := range v[1:] {
		if math.Abs(x-v[0]) > 1e-12 {
			return false
		}
	}
	return true
}
