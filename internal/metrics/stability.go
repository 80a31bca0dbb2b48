package metrics

import (
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// Stability is the fraction of steps on which every joint speed stayed
// under threshold (rad/s).
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(smp sim.Sample) {
	s.samples++
	for _, val := range smp.Qd {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// SettleTime is the time of the first sample after which every joint speed
// stays under threshold for the rest of the run. It reports the last
// observed time when the arm never settles.
type SettleTime struct {
	threshold float64
	settledAt float64
	last      float64
	settled   bool
}

func NewSettleTime(threshold float64) *SettleTime {
	return &SettleTime{threshold: threshold}
}

func (s *SettleTime) Name() string { return "settle_time" }

func (s *SettleTime) Observe(smp sim.Sample) {
	s.last = smp.Time
	for _, v := range smp.Qd {
		if math.Abs(v) > s.threshold {
			s.settled = false
			return
		}
	}
	if !s.settled {
		s.settled = true
		s.settledAt = smp.Time
	}
}

func (s *SettleTime) Value() float64 {
	if !s.settled {
		return s.last
	}
	return s.settledAt
}

func (s *SettleTime) Reset() { *s = SettleTime{threshold: s.threshold} }
