package dsp

import "strings"

// DefaultBreedF0 is the fundamental-frequency baseline assumed for unknown
// breeds.
const DefaultBreedF0 = 550.0

// breedF0Baselines are physiological f0 baselines in Hz. Larger cats have
// longer vocal folds and a lower f0; kittens sit far above the adult range.
var breedF0Baselines = map[string]float64{
	"Maine Coon":         420.0,
	"European Shorthair": 550.0,
	"Siamese":            620.0,
	"Persian":            480.0,
	"Bengal":             560.0,
	"British Shorthair":  500.0,
	"Kitten":             750.0,
}

// BreedF0 returns the f0 baseline for a breed. Exact matches win; otherwise
// a case-insensitive substring match in either direction is accepted, and
// unknown breeds fall back to DefaultBreedF0.
func BreedF0(breed string) float64 {
	if f0, ok := breedF0Baselines[breed]; ok {
		return f0
	}

	breedLower := strings.ToLower(strings.TrimSpace(breed))
	if breedLower == "" {
		return DefaultBreedF0
	}
	for name, f0 := range breedF0Baselines {
		nameLower := strings.ToLower(name)
		if strings.Contains(breedLower, nameLower) || strings.Contains(nameLower, breedLower) {
			return f0
		}
	}
	return DefaultBreedF0
}

// Breeds returns the named breeds in the baseline table.
func Breeds() []string {
	out := make([]string, 0, len(breedF0Baselines))
	for name := range breedF0Baselines {
		out = append(out, name)
	}
	return out
}
