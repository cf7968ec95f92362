package dsp

import "math"

// TransformParams control a single prosody transformation pass.
type TransformParams struct {
	// PitchShiftSemitones is the requested shift before breed blending.
	PitchShiftSemitones float64
	// DurationFactor stretches (>1) or compresses (<1) the output duration.
	DurationFactor float64
	// Breed selects the target f0 baseline; empty means no breed shaping.
	Breed string
	// Arousal, when set, drives the amplitude envelope and modulates the
	// effective duration.
	Arousal *float64

	// NormalizePeak overrides the default 0.95 peak level when nonzero.
	NormalizePeak float64
}

// TransformInfo reports what a Transform call actually did.
type TransformInfo struct {
	SourceF0            float64
	TotalShiftSemitones float64
	PitchRatio          float64
	EffectiveDuration   float64
	StretchMethod       StretchMethod
	Applied             bool
}

// Transform applies the full prosody pipeline to a mono signal: pitch shift
// blended toward the breed's f0 baseline, arousal-modulated time stretch,
// arousal amplitude envelope, and peak normalization. Degenerate input is
// returned unchanged with Applied=false.
func Transform(samples []float64, sampleRate int, p TransformParams) ([]float64, TransformInfo) {
	info := TransformInfo{
		PitchRatio:        1,
		EffectiveDuration: p.DurationFactor,
		StretchMethod:     StretchNone,
	}
	if len(samples) == 0 || sampleRate <= 0 {
		return samples, info
	}
	if p.DurationFactor <= 0 {
		p.DurationFactor = 1
		info.EffectiveDuration = 1
	}

	sourceF0 := EstimateF0(samples, sampleRate)
	info.SourceF0 = sourceF0

	shift := p.PitchShiftSemitones
	if p.Breed != "" {
		targetF0 := BreedF0(p.Breed)
		breedShift := 12 * math.Log2(targetF0/sourceF0)
		// Blend halfway toward the breed baseline so individual character
		// of the source vocalization survives.
		shift += breedShift * 0.5
	}
	info.TotalShiftSemitones = shift

	effDuration := p.DurationFactor
	if p.Arousal != nil {
		a := *p.Arousal
		if a < 0 {
			a = 0
		} else if a > 1 {
			a = 1
		}
		effDuration = p.DurationFactor * (1 - (a-0.5)*0.3)
	}
	info.EffectiveDuration = effDuration

	pitchRatio := SemitonesToRatio(shift)
	info.PitchRatio = pitchRatio

	// Pitch shifting by resampling changes duration; stretch first by the
	// combined factor so the post-resample length lands on effDuration.
	out := samples
	combined := pitchRatio * effDuration
	stretched, method := TimeStretch(out, sampleRate, combined)
	out = stretched
	info.StretchMethod = method

	if math.Abs(pitchRatio-1) > 0.01 {
		out = Resample(out, int(math.Round(float64(len(out))/pitchRatio)))
	}

	if p.Arousal != nil {
		out = ApplyArousalEnvelope(out, *p.Arousal)
	}

	peak := p.NormalizePeak
	if peak <= 0 {
		peak = 0.95
	}
	out = Normalize(out, peak)
	info.Applied = true
	return out, info
}
