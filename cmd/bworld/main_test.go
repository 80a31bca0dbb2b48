package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

var runIDPattern = regexp.MustCompile(`run id: (\S+)`)

func TestRunListExport(t *testing.T) {
	data := t.TempDir()

	out, err := execute(t, "run", "--data", data, "--time", "0.5")
	require.NoError(t, err, out)
	assert.Contains(t, out, "steps: 120")
	assert.Contains(t, out, "tracking_error:")
	assert.Contains(t, out, "kinetic_energy:")

	m := runIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = execute(t, "list", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "two_link_reach")

	out, err = execute(t, "export-csv", id, "--data", data)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 122)
	assert.True(t, strings.HasPrefix(lines[0], "time,"), lines[0])

	out, err = execute(t, "export-json", id, "--data", data)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	out, err = execute(t, "plot", id, "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, "shoulder (rad)")
	assert.Contains(t, out, "ee z (m)")
}

func TestRunUnknownPreset(t *testing.T) {
	_, err := execute(t, "run", "--data", t.TempDir(), "--preset", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown preset")
}

func TestRunBadTarget(t *testing.T) {
	_, err := execute(t, "run", "--data", t.TempDir(), "--target", "1,2")
	require.Error(t, err)
}

func TestIK(t *testing.T) {
	out, err := execute(t, "ik", "0.5", "0.4", "0.4")
	require.NoError(t, err, out)
	assert.Contains(t, out, "q: [")
	assert.Regexp(t, `error: 0\.0`, out)
}

func TestJacobian(t *testing.T) {
	out, err := execute(t, "jacobian", "--q", "0,0")
	require.NoError(t, err, out)
	assert.Contains(t, out, "translational (3x2)")
	assert.Contains(t, out, "mass (2x2)")

	_, err = execute(t, "jacobian", "--q", "0")
	require.Error(t, err)
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	for _, want := range []string{"two_link_reach", "panda_hold", "ik_reach", "pid"} {
		assert.Contains(t, out, want)
	}

	out, err = execute(t, "presets", "--dump", "two_link_swing")
	require.NoError(t, err)
	assert.Contains(t, out, "controller: trajectory")
}

func TestBenchDeterministic(t *testing.T) {
	out, err := execute(t, "bench", "--runs", "3", "--parallel", "2", "--time", "0.25")
	require.NoError(t, err, out)
	assert.Contains(t, out, "deterministic: true")
}

func TestViewFast(t *testing.T) {
	out, err := execute(t, "view", "two_link_swing", "--fast", "--time", "0.2", "--width", "20", "--height", "8")
	require.NoError(t, err, out)
	assert.Contains(t, out, "48 steps")
}

func TestAnalyzeAndSVG(t *testing.T) {
	data := t.TempDir()
	out, err := execute(t, "run", "--data", data, "--preset", "two_link_swing", "--time", "2")
	require.NoError(t, err, out)
	id := runIDPattern.FindStringSubmatch(out)[1]

	out, err = execute(t, "analyze", id, "--data", data, "--joint", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "joint: elbow")
	assert.Contains(t, out, "dominant frequency:")
	assert.Contains(t, out, "phase portrait")

	svg := filepath.Join(t.TempDir(), "ee.svg")
	out, err = execute(t, "export-svg", id, "--data", data, "--out", svg)
	require.NoError(t, err, out)
	body, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<path")

	_, err = execute(t, "export-svg", id, "--data", data, "--kind", "bogus")
	require.Error(t, err)
}

func TestTune(t *testing.T) {
	out, err := execute(t, "tune", "--controller", "pid", "--time", "0.25",
		"--param", "Kp=5,20", "--param", "Kd=1", "--metric", "control_effort")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 candidates")
	assert.Regexp(t, `best: Kd=1 Kp=\d+ = `, out)

	_, err = execute(t, "tune", "--time", "0.1")
	require.Error(t, err)
}

func TestScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: smoke
steps:
  - name: reach
    preset: two_link_reach
    duration: 0.2
    save: true
  - name: swing
    preset: two_link_swing
    duration: 0.2
`), 0644))

	data := filepath.Join(dir, "runs")
	out, err := execute(t, "scenario", path, "--data", data)
	require.NoError(t, err, out)
	assert.Contains(t, out, "scenario: smoke (2 steps)")
	assert.Contains(t, out, "swing")

	out, err = execute(t, "list", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, "two_link_reach")
}

func TestMonteCarlo(t *testing.T) {
	out, err := execute(t, "montecarlo", "--trials", "2", "--seed", "3", "--time", "0.2", "--parallel", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "TRIAL")
	m := regexp.MustCompile(`reached: (\d+)  missed: (\d+)`).FindStringSubmatch(out)
	require.Len(t, m, 3, out)
	assert.Equal(t, 2, atoi(t, m[1])+atoi(t, m[2]))
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
