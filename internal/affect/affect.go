package affect

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Point is a coordinate in the two-dimensional valence/arousal affect space.
// Valence is emotional polarity in [-1, 1], arousal is activation in [0, 1].
type Point struct {
	Valence float64 `json:"valence"`
	Arousal float64 `json:"arousal"`
}

// NewPoint clamps both components into their domain.
func NewPoint(valence, arousal float64) Point {
	return Point{
		Valence: clamp(valence, -1, 1),
		Arousal: clamp(arousal, 0, 1),
	}
}

// Distance is the Euclidean distance between two affect points.
func Distance(a, b Point) float64 {
	dv := a.Valence - b.Valence
	da := a.Arousal - b.Arousal
	return math.Sqrt(dv*dv + da*da)
}

// DefaultPoint is the fallback affect coordinate used when an intent is
// unknown but the caller must still produce output (baseline vocalisation).
var DefaultPoint = Point{Valence: 0.0, Arousal: 0.4}

// intentTable maps communicative intents to calibrated affect coordinates.
// Keys are stored in canonical title case; lookups normalize first.
var intentTable = map[string]Point{
	// Positive / social
	"Affiliative": {Valence: 0.70, Arousal: 0.35},
	"Contentment": {Valence: 0.80, Arousal: 0.15},
	"Play":        {Valence: 0.60, Arousal: 0.85},

	// Requesting / need-based
	"Requesting":   {Valence: 0.30, Arousal: 0.75},
	"Solicitation": {Valence: 0.40, Arousal: 0.60},

	// Negative / defensive
	"Agonistic":   {Valence: -0.80, Arousal: 0.90},
	"Distress":    {Valence: -0.70, Arousal: 0.85},
	"Frustration": {Valence: -0.50, Arousal: 0.70},

	// Neutral / informational
	"Alert":   {Valence: 0.00, Arousal: 0.65},
	"Neutral": {Valence: 0.00, Arousal: 0.40},
}

// emotionToIntent maps the coarse emotion categories produced by the
// analysis collaborator onto the finer-grained intents of the affect table.
var emotionToIntent = map[string]string{
	"Hungry": "Requesting",
	"Angry":  "Agonistic",
	"Happy":  "Affiliative",
	"Alert":  "Alert",
}

// UnknownIntentError reports a lookup of an intent absent from the table.
type UnknownIntentError struct {
	Intent string
}

func (e *UnknownIntentError) Error() string {
	return fmt.Sprintf("unknown intent %q (valid: %s)", e.Intent, strings.Join(Intents(), ", "))
}

// Of returns the affect coordinates for a communicative intent.
// Lookup is case and surrounding-whitespace insensitive.
func Of(intent string) (Point, error) {
	normalized := normalizeIntent(intent)
	p, ok := intentTable[normalized]
	if !ok {
		return Point{}, &UnknownIntentError{Intent: intent}
	}
	return p, nil
}

// IntentForEmotion maps a coarse emotion category to an intent label,
// falling back to "Neutral" for categories outside the known set.
func IntentForEmotion(emotionCategory string) string {
	if intent, ok := emotionToIntent[normalizeIntent(emotionCategory)]; ok {
		return intent
	}
	return "Neutral"
}

// Intents returns the sorted list of valid intent labels.
func Intents() []string {
	out := make([]string, 0, len(intentTable))
	for name := range intentTable {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizeIntent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
