package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/deformsim/internal/dynamo"
)

// PowerSpectrum returns the amplitudes of the non-negative frequency bins of
// data with its mean removed.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency is the frequency in Hz of the strongest non-constant
// component of a signal sampled every dt, refined by parabolic interpolation
// around the peak bin.
func DominantFrequency(signal []float64, dt float64) (float64, error) {
	if dt <= 0 {
		return 0, fmt.Errorf("%w: sample interval must be positive, got %g", dynamo.ErrInvalidParameter, dt)
	}
	if len(signal) < 4 {
		return 0, fmt.Errorf("%w: need at least 4 samples, got %d", dynamo.ErrInvalidParameter, len(signal))
	}

	ps := PowerSpectrum(signal)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, nil
	}

	bin := float64(peak)
	if peak+1 < len(ps) {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if den := a - 2*b + c; den != 0 {
			bin += 0.5 * (a - c) / den
		}
	}
	return bin / (float64(len(signal)) * dt), nil
}

// Period is 1/DominantFrequency, or +Inf for a signal that does not
// oscillate.
func Period(signal []float64, dt float64) (float64, error) {
	f, err := DominantFrequency(signal, dt)
	if err != nil {
		return 0, err
	}
	if f == 0 {
		return math.Inf(1), nil
	}
	return 1 / f, nil
}
