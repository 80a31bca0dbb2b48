// Package sim runs control loops against a world.
//
// A [Simulator] samples one arm, asks a [Controller] for a command, applies
// it, notifies [Metric]s and [Observer]s and steps the world:
//
//	s := sim.New(w, arm, control.NewHold())
//	s.AddMetric(metrics.NewControlEffort())
//	res, err := s.Run(ctx, 2.0)
//
// [Parallel] runs independent worlds concurrently; worlds are never shared
// between goroutines.
package sim
