// Package metrics provides [sim.Metric] implementations for arm runs.
package metrics
