package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Bin is one frequency bin of a one-sided power spectrum.
type Bin struct {
	Freq  float64
	Power float64
}

// Spectrum returns the one-sided magnitude spectrum of samples taken every
// dt. The mean is removed first so the DC bin reflects drift only.
func Spectrum(samples []float64, dt float64) []Bin {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return nil
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)
	centered := make([]float64, n)
	for i, v := range samples {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	bins := make([]Bin, n/2+1)
	for k := range bins {
		bins[k] = Bin{
			Freq:  float64(k) / (float64(n) * dt),
			Power: cmplx.Abs(coeffs[k]),
		}
	}
	return bins
}

// DominantFrequency returns the strongest non-DC frequency, in cycles per
// unit of dt.
func DominantFrequency(samples []float64, dt float64) (float64, bool) {
	bins := Spectrum(samples, dt)
	if len(bins) < 2 {
		return 0, false
	}
	best := 1
	for k := 2; k < len(bins); k++ {
		if bins[k].Power > bins[best].Power {
			best = k
		}
	}
	if bins[best].Power == 0 {
		return 0, false
	}
	return bins[best].Freq, true
}

// SettleTick returns the index of the first tick after which no tick was
// dirty, or -1 when the last tick was still dirty.
func SettleTick(changed []bool) int {
	for i := len(changed) - 1; i >= 0; i-- {
		if changed[i] {
			if i == len(changed)-1 {
				return -1
			}
			return i + 1
		}
	}
	return 0
}
