package taxonomy

// TargetTagSet describes the ideal cat sound for an utterance: a desired tag
// list per dimension plus the inference collaborator's free-text rationale.
// The inferencer never selects a sample directly; the matcher does.
type TargetTagSet struct {
	Emotion       []string `json:"emotion,omitempty"`
	Intent        []string `json:"intent,omitempty"`
	Acoustic      []string `json:"acoustic,omitempty"`
	SocialContext []string `json:"social_context,omitempty"`
	BreedVoice    []string `json:"breed_voice,omitempty"`
	Reasoning     string   `json:"reasoning,omitempty"`
}

// Tags returns the target list for one dimension.
func (t TargetTagSet) Tags(dim Dimension) []string {
	switch dim {
	case DimensionEmotion:
		return t.Emotion
	case DimensionIntent:
		return t.Intent
	case DimensionAcoustic:
		return t.Acoustic
	case DimensionSocialContext:
		return t.SocialContext
	case DimensionBreedVoice:
		return t.BreedVoice
	default:
		return nil
	}
}

// SetTags replaces the target list for one dimension.
func (t *TargetTagSet) SetTags(dim Dimension, tags []string) {
	switch dim {
	case DimensionEmotion:
		t.Emotion = tags
	case DimensionIntent:
		t.Intent = tags
	case DimensionAcoustic:
		t.Acoustic = tags
	case DimensionSocialContext:
		t.SocialContext = tags
	case DimensionBreedVoice:
		t.BreedVoice = tags
	}
}

// IsEmpty reports whether no dimension has any target tag.
func (t TargetTagSet) IsEmpty() bool {
	for _, dim := range Dimensions {
		if len(t.Tags(dim)) > 0 {
			return false
		}
	}
	return true
}

// Validate checks every populated dimension against the closed vocabulary.
func (t TargetTagSet) Validate() error {
	return ValidateTags(map[Dimension][]string{
		DimensionEmotion:       t.Emotion,
		DimensionIntent:        t.Intent,
		DimensionAcoustic:      t.Acoustic,
		DimensionSocialContext: t.SocialContext,
		DimensionBreedVoice:    t.BreedVoice,
	})
}

// DefaultTargetTags is the safe fallback used when the inference collaborator
// fails, so downstream matching always has an input to operate on.
func DefaultTargetTags() TargetTagSet {
	return TargetTagSet{
		Emotion:       []string{"calm"},
		Intent:        []string{"expressing_comfort"},
		Acoustic:      []string{"mid_pitch", "medium_length"},
		SocialContext: []string{"near_owner"},
		Reasoning:     "inference unavailable; using default target tags",
	}
}
