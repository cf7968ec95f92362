package taxonomy

import (
	"fmt"
	"strings"
)

// Dimension identifies one axis of the tag vocabulary.
type Dimension string

const (
	DimensionEmotion       Dimension = "emotion"
	DimensionIntent        Dimension = "intent"
	DimensionAcoustic      Dimension = "acoustic"
	DimensionSocialContext Dimension = "social_context"
	DimensionBreedVoice    Dimension = "breed_voice"
)

// Dimensions lists every axis in scoring-weight order.
var Dimensions = []Dimension{
	DimensionEmotion,
	DimensionIntent,
	DimensionAcoustic,
	DimensionSocialContext,
	DimensionBreedVoice,
}

// Weights are the per-dimension scoring weights. They sum to 1.0 across all
// dimensions; dimensions absent from a target are excluded from the weighted
// sum rather than scored as zero, so the achievable maximum varies with how
// many dimensions the target populates.
var Weights = map[Dimension]float64{
	DimensionEmotion:       0.30,
	DimensionIntent:        0.30,
	DimensionAcoustic:      0.15,
	DimensionSocialContext: 0.15,
	DimensionBreedVoice:    0.10,
}

// vocabulary is the closed tag set per dimension. Any tag outside it is a
// data-integrity error at construction time, never a silent no-op.
var vocabulary = map[Dimension][]string{
	DimensionEmotion: {
		"hungry", "eager", "demanding", "anxious", "lonely", "distressed",
		"content", "relaxed", "annoyed", "agitated", "calm",
	},
	DimensionIntent: {
		"requesting_food", "demanding_attention", "seeking_companionship",
		"expressing_comfort", "protesting", "greeting",
	},
	DimensionAcoustic: {
		"high_pitch", "low_pitch", "mid_pitch", "short_burst", "medium_length",
		"prolonged", "loud", "soft", "rising_tone", "falling_tone", "trembling",
	},
	DimensionSocialContext: {
		"feeding_time", "alone_at_home", "separation", "being_petted",
		"physical_contact", "near_owner",
	},
	DimensionBreedVoice: {
		"deep_voice", "bright_voice",
	},
}

var vocabularyIndex = buildIndex()

func buildIndex() map[Dimension]map[string]struct{} {
	idx := make(map[Dimension]map[string]struct{}, len(vocabulary))
	for dim, tags := range vocabulary {
		set := make(map[string]struct{}, len(tags))
		for _, tag := range tags {
			set[tag] = struct{}{}
		}
		idx[dim] = set
	}
	return idx
}

// Vocabulary returns the closed tag list for a dimension.
func Vocabulary(dim Dimension) []string {
	return append([]string(nil), vocabulary[dim]...)
}

// KnownDimension reports whether dim is part of the taxonomy.
func KnownDimension(dim Dimension) bool {
	_, ok := vocabularyIndex[dim]
	return ok
}

// KnownTag reports whether tag belongs to dim's closed vocabulary.
func KnownTag(dim Dimension, tag string) bool {
	set, ok := vocabularyIndex[dim]
	if !ok {
		return false
	}
	_, ok = set[tag]
	return ok
}

// ValidateTags checks a per-dimension tag mapping against the vocabulary.
func ValidateTags(tags map[Dimension][]string) error {
	for dim, list := range tags {
		set, ok := vocabularyIndex[dim]
		if !ok {
			return fmt.Errorf("unknown tag dimension %q", dim)
		}
		for _, tag := range list {
			if _, ok := set[tag]; !ok {
				return fmt.Errorf("unknown %s tag %q (valid: %s)", dim, tag, strings.Join(vocabulary[dim], ", "))
			}
		}
	}
	return nil
}
