package dsp

import "math"

// ApplyArousalEnvelope reshapes a signal's amplitude contour to match the
// urgency of the target affect. High arousal front-loads energy with a sharp
// attack and fast decay; low arousal spreads it out. Gains are clamped so the
// envelope only ever attenuates relative to peak.
func ApplyArousalEnvelope(samples []float64, arousal float64) []float64 {
	if len(samples) == 0 {
		return samples
	}
	if arousal < 0 {
		arousal = 0
	} else if arousal > 1 {
		arousal = 1
	}

	peakPos := 0.15 + (1-arousal)*0.25
	attack := 2 + arousal*8
	decay := 1 + arousal*4

	out := make([]float64, len(samples))
	n := float64(len(samples) - 1)
	if n == 0 {
		n = 1
	}
	for i, s := range samples {
		t := float64(i) / n
		var gain float64
		if t < peakPos {
			gain = 1 - math.Exp(-attack*(t/peakPos))
		} else {
			gain = math.Exp(-decay * (t - peakPos) / (1 - peakPos + 1e-9))
		}
		if gain < 0 {
			gain = 0
		} else if gain > 1 {
			gain = 1
		}
		out[i] = s * gain
	}
	return out
}

// Normalize rescales a signal so its absolute peak sits at target. Silent
// input is returned unchanged.
func Normalize(samples []float64, target float64) []float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak < 1e-9 {
		return samples
	}
	out := make([]float64, len(samples))
	scale := target / peak
	for i, s := range samples {
		out[i] = s * scale
	}
	return out
}
