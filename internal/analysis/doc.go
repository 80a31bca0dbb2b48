// Package analysis inspects recorded runs: joint spectra, phase portraits
// and end-effector paths.
//
// The dominant oscillation of a joint:
//
//	q, _ := analysis.Joint(samples, 0)
//	ps, _ := analysis.PowerSpectrum(q, dt)
//	freq, _ := ps.Dominant()
package analysis
