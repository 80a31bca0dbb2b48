package metrics

import "github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"

// DefaultStabilityThreshold is the joint speed (rad/s) under which a sample
// counts as settled.
const DefaultStabilityThreshold = 0.05

// Default is the metric set attached to stored runs.
func Default(arm MassMatrixer) []sim.Metric {
	return []sim.Metric{
		NewTrackingError(),
		NewFinalTrackingError(),
		NewControlEffort(),
		NewStability(DefaultStabilityThreshold),
		NewSettleTime(DefaultStabilityThreshold),
		NewEnergy(arm),
	}
}
