package metrics

import (
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// TrackingError is the RMS distance between the end-effector and the
// commanded target. With Final set it reports only the last distance.
type TrackingError struct {
	name    string
	final   bool
	sumSq   float64
	last    float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{name: "tracking_error"}
}

func NewFinalTrackingError() *TrackingError {
	return &TrackingError{name: "final_tracking_error", final: true}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(s sim.Sample) {
	if s.Command.Target == nil {
		return
	}
	d := s.EE.Position.Sub(*s.Command.Target).Norm()
	e.sumSq += d * d
	e.last = d
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	if e.final {
		return e.last
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.last = 0
	e.samples = 0
}
