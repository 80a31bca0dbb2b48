package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

func testResult() *sim.Result {
	return &sim.Result{
		Samples: []sim.Sample{
			{Time: 0, Q: []float64{0.2, 0.8}, Qd: []float64{0, 0},
				EE:      spatial.Pose{Position: spatial.Vec3{X: 0.5, Y: 0.3, Z: 0.4}},
				Command: sim.PositionCommand([]float64{0.5, 0.4})},
			{Time: 1.0 / 240, Q: []float64{0.21, 0.79}, Qd: []float64{2, -0.5},
				EE: spatial.Pose{Position: spatial.Vec3{X: 0.49, Y: 0.31, Z: 0.4}}},
		},
		Metrics:    map[string]float64{"tracking_error": 0.25},
		StepsTaken: 1,
		Digest:     0xbeef,
	}
}

func testMeta() RunMetadata {
	return RunMetadata{
		Preset:     "two_link_reach",
		Arm:        "two_link.urdf",
		JointNames: []string{"shoulder", "elbow"},
		Dt:         1.0 / 240,
		Duration:   1.0 / 240,
		Controller: "ik_reach",
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		t.Fatalf("run id is not a uuid: %v", err)
	}
	if id.Version() != 7 {
		t.Errorf("expected uuid v7, got v%d", id.Version())
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Controller != "ik_reach" {
		t.Errorf("expected controller 'ik_reach', got '%s'", meta.Controller)
	}
	if meta.Digest != "beef" {
		t.Errorf("expected digest beef, got %s", meta.Digest)
	}
	if meta.Metrics["tracking_error"] != 0.25 {
		t.Errorf("expected tracking_error 0.25, got %f", meta.Metrics["tracking_error"])
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[1].Qd[0] != 2 || samples[1].EE.Position.X != 0.49 {
		t.Errorf("unexpected sample %+v", samples[1])
	}
	if samples[0].Command.Values[1] != 0.4 || samples[1].Command.Values[0] != 0 {
		t.Errorf("unexpected commands %v %v", samples[0].Command.Values, samples[1].Command.Values)
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		st.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		meta := testMeta()
		meta.Preset = []string{"a", "b", "c"}[i]
		if _, err := st.Save(meta, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 || runs[0].Preset != "a" || runs[2].Preset != "c" {
		t.Errorf("expected runs ordered by time, got %+v", runs)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	data, err := os.ReadFile(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		t.Fatalf("samples.csv not readable: %v", err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	if header != "time,q0,q1,qd0,qd1,ee_x,ee_y,ee_z,u0,u1" {
		t.Errorf("unexpected header %q", header)
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrNoRun) {
		t.Errorf("expected ErrNoRun, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, testMeta(), testResult().Samples); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got.Times) != 2 || got.EE[0][0] != 0.5 || got.Meta.Controller != "ik_reach" {
		t.Errorf("unexpected export %+v", got)
	}
}
