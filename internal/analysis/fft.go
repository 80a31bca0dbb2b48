package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("analysis: need at least two samples")

// pad removes the mean and zero-pads to the next power of two.
func pad(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	out := make([]float64, n)
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

// Spectrum is the one-sided amplitude spectrum of a uniformly sampled trace.
type Spectrum struct {
	// Resolution is the bin width in Hz.
	Resolution float64
	Power      []float64
}

func PowerSpectrum(data []float64, dt float64) (Spectrum, error) {
	if len(data) < 2 {
		return Spectrum{}, ErrTooShort
	}
	padded := pad(data)
	bins := fft.FFTReal(padded)
	ps := make([]float64, len(bins)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(bins[i])
	}
	return Spectrum{Resolution: 1 / (dt * float64(len(padded))), Power: ps}, nil
}

// Dominant returns the frequency of the strongest non-DC bin.
func (s Spectrum) Dominant() (freq, power float64) {
	idx := 0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			power = s.Power[i]
			idx = i
		}
	}
	return float64(idx) * s.Resolution, power
}

// Band returns the bins up to maxFreq Hz.
func (s Spectrum) Band(maxFreq float64) []float64 {
	n := int(maxFreq/s.Resolution) + 1
	if n > len(s.Power) {
		n = len(s.Power)
	}
	return s.Power[:n]
}
