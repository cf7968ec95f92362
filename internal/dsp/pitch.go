package dsp

import (
	"math"
	"sort"
)

const (
	// DefaultF0 is assumed when no voiced frames are detected. Estimation
	// falls back rather than failing the pipeline.
	DefaultF0 = 440.0

	// Cat vocalisations sit roughly between C2 and C7.
	pitchMinHz = 65.0
	pitchMaxHz = 2093.0

	pitchFrameLen      = 2048
	pitchHopLen        = 512
	pitchYinThreshold  = 0.15
	pitchEnergyFloor   = 1e-6
)

// EstimateF0 returns the median fundamental frequency across voiced frames
// using a YIN-style difference-function tracker. Returns DefaultF0 when the
// signal is empty, silent, or has no voiced frames.
func EstimateF0(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 || len(samples) < pitchFrameLen {
		return estimateShortF0(samples, sampleRate)
	}

	minLag := int(float64(sampleRate) / pitchMaxHz)
	maxLag := int(float64(sampleRate) / pitchMinHz)
	if minLag < 2 {
		minLag = 2
	}
	if maxLag >= pitchFrameLen/2 {
		maxLag = pitchFrameLen/2 - 1
	}
	if maxLag <= minLag {
		return DefaultF0
	}

	var voiced []float64
	for start := 0; start+pitchFrameLen <= len(samples); start += pitchHopLen {
		frame := samples[start : start+pitchFrameLen]
		if frameEnergy(frame) < pitchEnergyFloor {
			continue
		}
		if lag, ok := yinLag(frame, minLag, maxLag); ok {
			voiced = append(voiced, float64(sampleRate)/lag)
		}
	}

	if len(voiced) == 0 {
		return DefaultF0
	}
	return median(voiced)
}

// estimateShortF0 handles signals shorter than one analysis frame.
func estimateShortF0(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 || len(samples) < 64 || frameEnergy(samples) < pitchEnergyFloor {
		return DefaultF0
	}
	minLag := int(float64(sampleRate) / pitchMaxHz)
	maxLag := len(samples) / 2
	if minLag < 2 {
		minLag = 2
	}
	if maxLag <= minLag {
		return DefaultF0
	}
	if lag, ok := yinLag(samples, minLag, maxLag); ok {
		return float64(sampleRate) / lag
	}
	return DefaultF0
}

// yinLag finds the first cumulative-mean-normalized difference minimum below
// the voicing threshold, refined by parabolic interpolation.
func yinLag(frame []float64, minLag, maxLag int) (float64, bool) {
	n := len(frame)
	diff := make([]float64, maxLag+1)
	for tau := 1; tau <= maxLag; tau++ {
		var sum float64
		for i := 0; i+tau < n; i++ {
			d := frame[i] - frame[i+tau]
			sum += d * d
		}
		diff[tau] = sum
	}

	// Cumulative mean normalization keeps the function near 1 for
	// aperiodic lags and dips toward 0 at the true period.
	cmnd := make([]float64, maxLag+1)
	cmnd[0] = 1
	runningSum := 0.0
	for tau := 1; tau <= maxLag; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmnd[tau] = 1
		} else {
			cmnd[tau] = diff[tau] * float64(tau) / runningSum
		}
	}

	for tau := minLag; tau <= maxLag; tau++ {
		if cmnd[tau] >= pitchYinThreshold {
			continue
		}
		// Walk down to the local minimum of this dip.
		for tau+1 <= maxLag && cmnd[tau+1] < cmnd[tau] {
			tau++
		}
		return refineLag(cmnd, tau), true
	}
	return 0, false
}

func refineLag(cmnd []float64, tau int) float64 {
	if tau <= 0 || tau+1 >= len(cmnd) {
		return float64(tau)
	}
	y0, y1, y2 := cmnd[tau-1], cmnd[tau], cmnd[tau+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return float64(tau)
	}
	shift := 0.5 * (y0 - y2) / denom
	if shift > 1 || shift < -1 {
		return float64(tau)
	}
	return float64(tau) + shift
}

func frameEnergy(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return sum / float64(len(frame))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// SemitonesToRatio converts a semitone shift to a frequency ratio.
func SemitonesToRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}
