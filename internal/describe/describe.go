// Package describe turns a sample match plus the transform parameters that
// were applied to it into a deterministic human-readable caption.
package describe

import (
	"fmt"
	"math"
	"strings"

	"github.com/mkrv/meowform/internal/affect"
)

// Match carries the matched sample metadata the caption draws on.
type Match struct {
	SampleID string
	Context  string
	Breed    string
	Distance float64
}

// Description is the structured caption returned by Generate.
type Description struct {
	Summary          string  `json:"summary"`
	IntentLabel      string  `json:"intent_label"`
	VocalisationType string  `json:"vocalisation_type"`
	ConfidenceScore  float64 `json:"confidence_score"`
	ConfidenceLevel  string  `json:"confidence_level"`
	AffectDistance   float64 `json:"affect_distance"`
	PitchDescription string  `json:"pitch_description"`
	TempoDescription string  `json:"tempo_description"`
	Breed            string  `json:"breed"`
	SourceContext    string  `json:"source_context"`
	Detail           string  `json:"detail"`
}

type anchor struct {
	value float64
	label string
}

var arousalAnchors = []anchor{
	{0.0, "very calm"},
	{0.2, "soft and subdued"},
	{0.4, "steady"},
	{0.6, "moderately animated"},
	{0.8, "urgent and intense"},
	{0.9, "extremely insistent"},
}

var valenceAnchors = []anchor{
	{-1.0, "strongly negative"},
	{-0.5, "negative"},
	{-0.2, "slightly negative"},
	{0.0, "neutral"},
	{0.2, "slightly positive"},
	{0.5, "positive"},
	{1.0, "strongly positive"},
}

var pitchAnchors = []anchor{
	{-12.0, "sharply lowered"},
	{-6.0, "noticeably lowered"},
	{-2.0, "slightly lowered"},
	{0.0, "unshifted"},
	{2.0, "slightly raised"},
	{6.0, "noticeably raised"},
	{12.0, "sharply raised"},
}

var intentLabels = map[string]string{
	"Affiliative":  "friendly greeting",
	"Contentment":  "settled contentment",
	"Play":         "play invitation",
	"Requesting":   "food solicitation",
	"Solicitation": "gentle request",
	"Agonistic":    "threat warning",
	"Distress":     "distress call",
	"Frustration":  "irritated complaint",
	"Alert":        "alert signal",
	"Neutral":      "calm baseline",
}

var vocalisationTypes = map[string]string{
	"Affiliative":  "short meow",
	"Contentment":  "purr with low resonance",
	"Play":         "chirped high trill",
	"Requesting":   "rising high-pitched meow",
	"Solicitation": "mid-pitched gradual meow",
	"Agonistic":    "growl with low guttural tone",
	"Distress":     "piercing high-pitched wail",
	"Frustration":  "broken low meow",
	"Alert":        "short mid-pitched warning call",
	"Neutral":      "standard meow",
}

// Confidence maps affect distance to a match confidence in (0,1].
// A perfect match scores 1.0; distance 1.0 about 0.37.
func Confidence(distance float64) float64 {
	return math.Exp(-distance)
}

// ConfidenceLevel buckets a confidence score into a qualitative tier.
func ConfidenceLevel(score float64) string {
	switch {
	case score >= 0.90:
		return "very high"
	case score >= 0.70:
		return "high"
	case score >= 0.50:
		return "moderate"
	case score >= 0.30:
		return "fair"
	default:
		return "low"
	}
}

// TempoDescription names the perceived tempo change for a duration factor.
func TempoDescription(durationFactor float64) string {
	switch {
	case durationFactor < 0.85:
		return "tempo sharply quickened for urgency"
	case durationFactor < 0.95:
		return "tempo slightly tightened"
	case durationFactor <= 1.05:
		return "original tempo preserved"
	case durationFactor <= 1.15:
		return "tempo slightly relaxed"
	default:
		return "tempo noticeably slowed for ease"
	}
}

func nearestAnchor(value float64, anchors []anchor) string {
	best := anchors[0].label
	bestDist := math.Abs(value - anchors[0].value)
	for _, a := range anchors[1:] {
		if d := math.Abs(value - a.value); d < bestDist {
			bestDist = d
			best = a.label
		}
	}
	return best
}

// Generate builds a caption for a matched and transformed vocalization. It
// never fails: unknown intents fall back to a generic caption anchored at
// the neutral affect point.
func Generate(intent string, match Match, target affect.Point, breed string, pitchShiftSemitones, durationFactor float64, arousal *float64) Description {
	normalized := normalizeIntent(intent)

	intentLabel, ok := intentLabels[normalized]
	if !ok {
		intentLabel = intent
		target = affect.DefaultPoint
	}
	vocType, ok := vocalisationTypes[normalized]
	if !ok {
		vocType = "meow"
	}

	confidence := Confidence(match.Distance)
	level := ConfidenceLevel(confidence)

	effectiveArousal := target.Arousal
	if arousal != nil {
		effectiveArousal = *arousal
	}
	arousalDesc := nearestAnchor(effectiveArousal, arousalAnchors)
	valenceDesc := nearestAnchor(target.Valence, valenceAnchors)
	pitchDesc := nearestAnchor(pitchShiftSemitones, pitchAnchors)
	tempoDesc := TempoDescription(durationFactor)

	pitchClause := ""
	if math.Abs(pitchShiftSemitones) > 0.1 {
		pitchClause = fmt.Sprintf(", pitch %s (%+.1f semitones)", pitchDesc, pitchShiftSemitones)
	}

	summary := fmt.Sprintf(
		"Matched a %s %s expressing %q (%s breed, %s confidence, affect distance %.3f)%s, %s.",
		arousalDesc, vocType, intentLabel, orDefault(breed), level, match.Distance, pitchClause, tempoDesc,
	)

	detailLines := []string{
		fmt.Sprintf("Intent: %s (%s)", intent, intentLabel),
		fmt.Sprintf("Affect: valence %+.2f (%s), arousal %.2f (%s)", target.Valence, valenceDesc, effectiveArousal, arousalDesc),
		fmt.Sprintf("Matched sample: %s (%s / %s)", match.SampleID, orContext(match.Context), match.Breed),
		fmt.Sprintf("Affect distance: %.4f (confidence %.1f%%, %s)", match.Distance, confidence*100, level),
		fmt.Sprintf("Pitch: %s%s", pitchDesc, pitchSuffix(pitchShiftSemitones)),
		fmt.Sprintf("Duration factor: x%.2f, %s", durationFactor, tempoDesc),
		fmt.Sprintf("Target breed: %s", orDefault(breed)),
		fmt.Sprintf("Vocalisation type: %s", vocType),
	}

	return Description{
		Summary:          summary,
		IntentLabel:      intentLabel,
		VocalisationType: vocType,
		ConfidenceScore:  round4(confidence),
		ConfidenceLevel:  level,
		AffectDistance:   round4(match.Distance),
		PitchDescription: pitchDesc,
		TempoDescription: tempoDesc,
		Breed:            orDefault(breed),
		SourceContext:    match.Context,
		Detail:           strings.Join(detailLines, "\n"),
	}
}

func normalizeIntent(intent string) string {
	s := strings.TrimSpace(intent)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func pitchSuffix(shift float64) string {
	if math.Abs(shift) > 0.1 {
		return fmt.Sprintf(" (%+.1f semitones)", shift)
	}
	return ""
}

func orDefault(breed string) string {
	if breed == "" {
		return "Default"
	}
	return breed
}

func orContext(context string) string {
	if context == "" {
		return "unknown context"
	}
	return context
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
