package dsp

import (
	"math"
	"testing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestEstimateF0Sine(t *testing.T) {
	const rate = 16000
	for _, freq := range []float64{220, 440, 600} {
		got := EstimateF0(sine(freq, rate, rate), rate)
		if math.Abs(got-freq) > freq*0.03 {
			t.Errorf("EstimateF0(%v Hz sine) = %v, want within 3%%", freq, got)
		}
	}
}

func TestEstimateF0SilenceFallsBack(t *testing.T) {
	got := EstimateF0(make([]float64, 16000), 16000)
	if got != DefaultF0 {
		t.Errorf("EstimateF0(silence) = %v, want default %v", got, DefaultF0)
	}
	if got := EstimateF0(nil, 16000); got != DefaultF0 {
		t.Errorf("EstimateF0(nil) = %v, want default %v", got, DefaultF0)
	}
}

func TestSemitonesToRatio(t *testing.T) {
	tests := []struct {
		semitones float64
		want      float64
	}{
		{0, 1},
		{12, 2},
		{-12, 0.5},
		{7, math.Pow(2, 7.0/12)},
	}
	for _, tt := range tests {
		if got := SemitonesToRatio(tt.semitones); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SemitonesToRatio(%v) = %v, want %v", tt.semitones, got, tt.want)
		}
	}
}

func TestSemitonesRoundTrip(t *testing.T) {
	for _, st := range []float64{0.5, 3, 5.25, 11} {
		product := SemitonesToRatio(st) * SemitonesToRatio(-st)
		if math.Abs(product-1) > 1e-9 {
			t.Errorf("ratio(%v)*ratio(-%v) = %v, want 1", st, st, product)
		}
	}
}

func TestBreedF0(t *testing.T) {
	tests := []struct {
		breed string
		want  float64
	}{
		{"Maine Coon", 420},
		{"maine coon", 420},
		{"Siamese", 620},
		{"siamese mix", 620},
		{"Kitten", 750},
		{"Sphynx", DefaultBreedF0},
		{"", DefaultBreedF0},
	}
	for _, tt := range tests {
		if got := BreedF0(tt.breed); got != tt.want {
			t.Errorf("BreedF0(%q) = %v, want %v", tt.breed, got, tt.want)
		}
	}
}

func TestTimeStretchNoOpWindow(t *testing.T) {
	in := sine(440, 16000, 8000)
	out, method := TimeStretch(in, 16000, 1.005)
	if method != StretchNone {
		t.Fatalf("method = %v, want %v inside no-op window", method, StretchNone)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want unchanged %d", len(out), len(in))
	}
}

func TestTimeStretchLength(t *testing.T) {
	const rate = 16000
	in := sine(300, rate, rate)
	for _, factor := range []float64{0.7, 1.3, 1.8} {
		out, method := TimeStretch(in, rate, factor)
		if method != StretchWSOLA {
			t.Errorf("factor %v: method = %v, want %v", factor, method, StretchWSOLA)
		}
		want := int(math.Round(float64(len(in)) * factor))
		if d := len(out) - want; d < -rate/10 || d > rate/10 {
			t.Errorf("factor %v: len = %d, want ~%d", factor, len(out), want)
		}
	}
}

func TestTimeStretchShortInputFallsBack(t *testing.T) {
	in := sine(440, 16000, 512)
	out, method := TimeStretch(in, 16000, 1.5)
	if method != StretchResample {
		t.Fatalf("method = %v, want %v for short input", method, StretchResample)
	}
	if want := int(math.Round(512 * 1.5)); len(out) != want {
		t.Errorf("len = %d, want %d", len(out), want)
	}
}

func TestResample(t *testing.T) {
	in := []float64{0, 1, 2, 3}
	out := Resample(in, 7)
	if len(out) != 7 {
		t.Fatalf("len = %d, want 7", len(out))
	}
	if out[0] != 0 || out[6] != 3 {
		t.Errorf("endpoints = %v, %v, want 0 and 3", out[0], out[6])
	}
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			t.Fatalf("output not monotone at %d: %v", i, out)
		}
	}
	if got := Resample(nil, 5); len(got) != 5 {
		t.Errorf("Resample(nil, 5) len = %d, want 5", len(got))
	}
}

func TestApplyArousalEnvelope(t *testing.T) {
	in := make([]float64, 1000)
	for i := range in {
		in[i] = 1
	}

	for _, arousal := range []float64{0, 0.5, 1} {
		out := ApplyArousalEnvelope(in, arousal)
		for i, v := range out {
			if v < 0 || v > 1 {
				t.Fatalf("arousal %v: gain out of range at %d: %v", arousal, i, v)
			}
		}
	}

	// High arousal peaks earlier than low arousal.
	high := ApplyArousalEnvelope(in, 1)
	low := ApplyArousalEnvelope(in, 0)
	if argMax(high) >= argMax(low) {
		t.Errorf("high-arousal peak %d not earlier than low-arousal peak %d", argMax(high), argMax(low))
	}
}

func argMax(s []float64) int {
	best := 0
	for i, v := range s {
		if v > s[best] {
			best = i
		}
	}
	return best
}

func TestNormalize(t *testing.T) {
	out := Normalize([]float64{0.1, -0.5, 0.25}, 0.95)
	var peak float64
	for _, v := range out {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-0.95) > 1e-9 {
		t.Errorf("peak = %v, want 0.95", peak)
	}

	silent := []float64{0, 0, 0}
	if got := Normalize(silent, 0.95); got[0] != 0 || got[1] != 0 || got[2] != 0 {
		t.Errorf("Normalize(silence) = %v, want unchanged", got)
	}
}

func TestTransformDegenerateInput(t *testing.T) {
	out, info := Transform(nil, 16000, TransformParams{PitchShiftSemitones: 3, DurationFactor: 1})
	if info.Applied {
		t.Error("Applied = true for empty input")
	}
	if out != nil {
		t.Errorf("out = %v, want nil passthrough", out)
	}

	_, info = Transform(sine(440, 16000, 100), 0, TransformParams{DurationFactor: 1})
	if info.Applied {
		t.Error("Applied = true for zero sample rate")
	}
}

func TestTransformIdentity(t *testing.T) {
	const rate = 16000
	in := sine(440, rate, rate)
	out, info := Transform(in, rate, TransformParams{DurationFactor: 1})
	if !info.Applied {
		t.Fatal("Applied = false")
	}
	if d := len(out) - len(in); d < -rate/10 || d > rate/10 {
		t.Errorf("identity transform length %d, want ~%d", len(out), len(in))
	}
	if math.Abs(info.PitchRatio-1) > 1e-9 {
		t.Errorf("PitchRatio = %v, want 1", info.PitchRatio)
	}
}

func TestTransformArousalShortensDuration(t *testing.T) {
	const rate = 16000
	in := sine(440, rate, rate)

	high := 0.9
	out, info := Transform(in, rate, TransformParams{DurationFactor: 1, Arousal: &high})
	wantDur := 1 * (1 - (0.9-0.5)*0.3)
	if math.Abs(info.EffectiveDuration-wantDur) > 1e-9 {
		t.Errorf("EffectiveDuration = %v, want %v", info.EffectiveDuration, wantDur)
	}
	wantLen := int(float64(len(in)) * wantDur)
	if d := len(out) - wantLen; d < -rate/10 || d > rate/10 {
		t.Errorf("len = %d, want ~%d", len(out), wantLen)
	}
}

func TestTransformBreedShift(t *testing.T) {
	const rate = 16000
	in := sine(440, rate, rate)
	_, info := Transform(in, rate, TransformParams{DurationFactor: 1, Breed: "Siamese"})
	// Source sits near 440; Siamese baseline is 620, blended at half weight.
	fullShift := 12 * math.Log2(620/info.SourceF0)
	if math.Abs(info.TotalShiftSemitones-fullShift*0.5) > 0.5 {
		t.Errorf("TotalShiftSemitones = %v, want ~%v", info.TotalShiftSemitones, fullShift*0.5)
	}
	if info.TotalShiftSemitones <= 0 {
		t.Errorf("shift toward higher baseline should be positive, got %v", info.TotalShiftSemitones)
	}
}
