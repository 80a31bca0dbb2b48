package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

func format(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// WriteCSV writes one row per sample for an arm with n joints: time, q,
// qd, end-effector position and the commanded values (zeros when the
// sample carries no command).
func WriteCSV(out io.Writer, n int, samples []sim.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader(n)); err != nil {
		return err
	}
	for _, s := range samples {
		row := make([]string, 0, csvWidth(n))
		row = append(row, format(s.Time))
		for i := 0; i < n; i++ {
			row = append(row, format(at(s.Q, i)))
		}
		for i := 0; i < n; i++ {
			row = append(row, format(at(s.Qd, i)))
		}
		p := s.EE.Position
		row = append(row, format(p.X), format(p.Y), format(p.Z))
		for i := 0; i < n; i++ {
			row = append(row, format(at(s.Command.Values, i)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

type ExportData struct {
	Meta    RunMetadata  `json:"meta"`
	Times   []float64    `json:"times"`
	Q       [][]float64  `json:"q"`
	Qd      [][]float64  `json:"qd"`
	EE      [][3]float64 `json:"ee"`
	Command [][]float64  `json:"command"`
}

// ExportJSON writes a run as a single JSON document.
func ExportJSON(out io.Writer, meta RunMetadata, samples []sim.Sample) error {
	data := ExportData{
		Meta:    meta,
		Times:   make([]float64, len(samples)),
		Q:       make([][]float64, len(samples)),
		Qd:      make([][]float64, len(samples)),
		EE:      make([][3]float64, len(samples)),
		Command: make([][]float64, len(samples)),
	}
	for i, s := range samples {
		data.Times[i] = s.Time
		data.Q[i] = s.Q
		data.Qd[i] = s.Qd
		data.EE[i] = [3]float64{s.EE.Position.X, s.EE.Position.Y, s.EE.Position.Z}
		data.Command[i] = s.Command.Values
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
