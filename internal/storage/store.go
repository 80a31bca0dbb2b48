package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

var ErrNoRun = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

// Store keeps one directory per run under baseDir: metadata.json and
// samples.csv.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes a stored run. The caller fills the descriptive
// fields; Save assigns ID and Timestamp.
type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Arm        string             `json:"arm"`
	JointNames []string           `json:"joint_names"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Controller string             `json:"controller"`
	Steps      int                `json:"steps"`
	Digest     string             `json:"digest"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("storage: run id: %w", err)
	}
	meta.ID = id.String()
	meta.Timestamp = s.now()
	meta.Steps = result.StepsTaken
	meta.Digest = strconv.FormatUint(result.Digest, 16)
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, len(meta.JointNames), result.Samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads a run's samples back. Commands come back as raw values
// without mode or target.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	n := len(meta.JointNames)
	samples := make([]sim.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			if vals[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("storage: row %d column %d: %w", i+1, j, err)
			}
		}
		if len(vals) != csvWidth(n) {
			return nil, fmt.Errorf("storage: row %d has %d columns, want %d", i+1, len(vals), csvWidth(n))
		}
		samples = append(samples, sim.Sample{
			Step: i,
			Time: vals[0],
			Q:    vals[1 : 1+n],
			Qd:   vals[1+n : 1+2*n],
			EE: spatial.Pose{
				Position:    spatial.Vec3{X: vals[1+2*n], Y: vals[2+2*n], Z: vals[3+2*n]},
				Orientation: spatial.IdentityQuaternion(),
			},
			Command: sim.Command{Mode: engine.ControlPosition, Values: vals[4+2*n:]},
		})
	}
	return samples, nil
}

func csvWidth(n int) int { return 1 + 3*n + 3 }

func csvHeader(n int) []string {
	header := []string{"time"}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("q%d", i))
	}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("qd%d", i))
	}
	header = append(header, "ee_x", "ee_y", "ee_z")
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	return header
}
