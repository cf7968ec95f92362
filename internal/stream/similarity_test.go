package stream

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "abc", 1},
		{"abc", "xyz", 0},
		{"I'm hungry", "I'm very hungry", 0.8},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRatioSymmetric(t *testing.T) {
	a, b := "feed the cat please", "please feed my cat"
	if Ratio(a, b) != Ratio(b, a) {
		t.Errorf("Ratio not symmetric: %v vs %v", Ratio(a, b), Ratio(b, a))
	}
}

func TestRatioSpeculativeReuseThreshold(t *testing.T) {
	// The canonical reuse scenario: adding a word mid-sentence must stay
	// above the 0.70 reuse threshold.
	if got := Ratio("I'm hungry", "I'm very hungry"); got < 0.70 {
		t.Errorf("Ratio = %v, want >= 0.70", got)
	}
	if got := Ratio("I'm hungry", "the weather is lovely today"); got >= 0.70 {
		t.Errorf("Ratio of unrelated texts = %v, want < 0.70", got)
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"hello", 1},
		{"I'm very hungry right now", 5},
		{"我饿了", 3},
		{"我 饿 了", 3},
		{"feed me 现在", 3},
		{"多个words混在一起", 7},
	}
	for _, tt := range tests {
		if got := countWords(tt.in); got != tt.want {
			t.Errorf("countWords(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
