package taxonomy

import "testing"

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, dim := range Dimensions {
		sum += Weights[dim]
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("weights sum = %v, want 1.0", sum)
	}
}

func TestValidateTagsRejectsUnknown(t *testing.T) {
	err := ValidateTags(map[Dimension][]string{
		DimensionEmotion: {"calm", "sleepy"},
	})
	if err == nil {
		t.Fatalf("ValidateTags accepted unknown tag %q", "sleepy")
	}

	err = ValidateTags(map[Dimension][]string{
		Dimension("mood"): {"calm"},
	})
	if err == nil {
		t.Fatalf("ValidateTags accepted unknown dimension %q", "mood")
	}
}

func TestValidateTagsAcceptsVocabulary(t *testing.T) {
	tags := make(map[Dimension][]string, len(Dimensions))
	for _, dim := range Dimensions {
		tags[dim] = Vocabulary(dim)
	}
	if err := ValidateTags(tags); err != nil {
		t.Fatalf("ValidateTags(full vocabulary) error = %v", err)
	}
}

func TestDefaultTargetTagsValid(t *testing.T) {
	def := DefaultTargetTags()
	if err := def.Validate(); err != nil {
		t.Fatalf("DefaultTargetTags().Validate() error = %v", err)
	}
	if def.IsEmpty() {
		t.Fatalf("DefaultTargetTags() is empty")
	}
}

func TestTargetTagSetTagsByDimension(t *testing.T) {
	ts := TargetTagSet{Emotion: []string{"lonely"}, SocialContext: []string{"separation"}}
	if got := ts.Tags(DimensionEmotion); len(got) != 1 || got[0] != "lonely" {
		t.Fatalf("Tags(emotion) = %v", got)
	}
	if got := ts.Tags(DimensionAcoustic); got != nil {
		t.Fatalf("Tags(acoustic) = %v, want nil", got)
	}
}
