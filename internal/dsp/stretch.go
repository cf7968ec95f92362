package dsp

import "math"

// StretchMethod names the time-scale algorithm actually used.
type StretchMethod string

const (
	StretchWSOLA    StretchMethod = "wsola"
	StretchResample StretchMethod = "resample" // lower-fidelity fallback
	StretchNone     StretchMethod = "none"
)

const (
	wsolaMinInputLen = 4096
	wsolaWindowMS    = 40
)

// TimeStretch changes a signal's duration by factor (>1 slower) while
// preserving pitch, using waveform-similarity overlap-add. Inputs too short
// for windowed analysis fall back to plain resampling, which also shifts
// pitch and is therefore flagged as lower fidelity.
func TimeStretch(samples []float64, sampleRate int, factor float64) ([]float64, StretchMethod) {
	if math.Abs(factor-1) < 0.01 || len(samples) == 0 || factor <= 0 {
		return samples, StretchNone
	}
	if sampleRate <= 0 || len(samples) < wsolaMinInputLen {
		return Resample(samples, int(math.Round(float64(len(samples))*factor))), StretchResample
	}
	return wsola(samples, sampleRate, factor), StretchWSOLA
}

func wsola(samples []float64, sampleRate int, factor float64) []float64 {
	windowLen := sampleRate * wsolaWindowMS / 1000
	if windowLen%2 == 1 {
		windowLen++
	}
	if windowLen < 256 {
		windowLen = 256
	}
	if windowLen > len(samples)/2 {
		windowLen = len(samples) / 2
		if windowLen%2 == 1 {
			windowLen--
		}
	}
	synthHop := windowLen / 2
	tolerance := synthHop / 2

	outLen := int(math.Round(float64(len(samples)) * factor))
	if outLen <= windowLen {
		return Resample(samples, outLen)
	}

	window := hann(windowLen)
	out := make([]float64, outLen+windowLen)
	norm := make([]float64, outLen+windowLen)

	// Natural progression of the previous analysis frame; the similarity
	// search aligns each candidate frame against this to avoid phase jumps.
	prevTail := make([]float64, windowLen)
	havePrev := false

	for synthPos := 0; synthPos < outLen; synthPos += synthHop {
		nominal := int(math.Round(float64(synthPos) / factor))
		start := nominal
		if havePrev {
			start = bestOffset(samples, prevTail, nominal, tolerance, windowLen)
		}
		if start < 0 {
			start = 0
		}
		if start+windowLen > len(samples) {
			start = len(samples) - windowLen
			if start < 0 {
				break
			}
		}

		frame := samples[start : start+windowLen]
		for i := 0; i < windowLen && synthPos+i < len(out); i++ {
			out[synthPos+i] += frame[i] * window[i]
			norm[synthPos+i] += window[i]
		}

		// The next frame should resemble this frame advanced by one hop.
		next := start + synthHop
		if next+windowLen > len(samples) {
			next = len(samples) - windowLen
		}
		if next >= 0 {
			copy(prevTail, samples[next:next+windowLen])
			havePrev = true
		}
	}

	result := make([]float64, outLen)
	for i := range result {
		if norm[i] > 1e-9 {
			result[i] = out[i] / norm[i]
		}
	}
	return result
}

// bestOffset searches ±tolerance around nominal for the analysis start whose
// frame best cross-correlates with the expected continuation.
func bestOffset(samples, target []float64, nominal, tolerance, windowLen int) int {
	best := nominal
	bestScore := math.Inf(-1)
	for off := -tolerance; off <= tolerance; off++ {
		start := nominal + off
		if start < 0 || start+windowLen > len(samples) {
			continue
		}
		var score float64
		// Correlate on a decimated grid; full resolution buys little here.
		for i := 0; i < windowLen; i += 4 {
			score += samples[start+i] * target[i]
		}
		if score > bestScore {
			bestScore = score
			best = start
		}
	}
	return best
}

// Resample linearly interpolates a signal to targetLen samples.
func Resample(samples []float64, targetLen int) []float64 {
	if targetLen <= 0 {
		return nil
	}
	if len(samples) == 0 {
		return make([]float64, targetLen)
	}
	if targetLen == len(samples) {
		return samples
	}
	if len(samples) == 1 {
		out := make([]float64, targetLen)
		for i := range out {
			out[i] = samples[0]
		}
		return out
	}

	out := make([]float64, targetLen)
	scale := float64(len(samples)-1) / float64(targetLen-1)
	if targetLen == 1 {
		out[0] = samples[0]
		return out
	}
	for i := range out {
		pos := float64(i) * scale
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
