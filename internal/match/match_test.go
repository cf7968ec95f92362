package match

import (
	"math"
	"reflect"
	"testing"

	"github.com/mkrv/meowform/internal/registry"
	"github.com/mkrv/meowform/internal/taxonomy"
)

func sampleWith(id, breed string, tags map[taxonomy.Dimension][]string) registry.SampleRecord {
	return registry.SampleRecord{
		ID:             id,
		AudioReference: id + ".wav",
		Breed:          breed,
		Tags:           tags,
	}
}

func TestScoreSingleDimensionJaccard(t *testing.T) {
	target := taxonomy.TargetTagSet{Emotion: []string{"calm"}}
	sample := sampleWith("s1", "", map[taxonomy.Dimension][]string{
		taxonomy.DimensionEmotion: {"calm", "relaxed"},
	})

	score, matched := Score(target, sample)
	// Jaccard 1/2 weighted by 0.30; all other dimensions absent from target.
	if math.Abs(score-0.15) > 1e-9 {
		t.Fatalf("Score() = %v, want 0.15", score)
	}
	if !reflect.DeepEqual(matched[taxonomy.DimensionEmotion], []string{"calm"}) {
		t.Fatalf("matched emotion = %v, want [calm]", matched[taxonomy.DimensionEmotion])
	}
}

func TestScoreIdenticalSetsIsFullWeight(t *testing.T) {
	tags := map[taxonomy.Dimension][]string{
		taxonomy.DimensionEmotion: {"hungry", "eager"},
		taxonomy.DimensionIntent:  {"requesting_food"},
	}
	target := taxonomy.TargetTagSet{Emotion: tags[taxonomy.DimensionEmotion], Intent: tags[taxonomy.DimensionIntent]}
	score, _ := Score(target, sampleWith("s1", "", tags))
	if math.Abs(score-0.60) > 1e-9 {
		t.Fatalf("Score(identical sets) = %v, want 0.60", score)
	}
}

func TestScoreBoundedWithoutBonus(t *testing.T) {
	full := taxonomy.TargetTagSet{
		Emotion:       taxonomy.Vocabulary(taxonomy.DimensionEmotion),
		Intent:        taxonomy.Vocabulary(taxonomy.DimensionIntent),
		Acoustic:      taxonomy.Vocabulary(taxonomy.DimensionAcoustic),
		SocialContext: taxonomy.Vocabulary(taxonomy.DimensionSocialContext),
		BreedVoice:    taxonomy.Vocabulary(taxonomy.DimensionBreedVoice),
	}
	samples := []registry.SampleRecord{
		sampleWith("a", "", nil),
		sampleWith("b", "", map[taxonomy.Dimension][]string{
			taxonomy.DimensionEmotion:    taxonomy.Vocabulary(taxonomy.DimensionEmotion),
			taxonomy.DimensionIntent:     taxonomy.Vocabulary(taxonomy.DimensionIntent),
			taxonomy.DimensionAcoustic:   taxonomy.Vocabulary(taxonomy.DimensionAcoustic),
			taxonomy.DimensionBreedVoice: taxonomy.Vocabulary(taxonomy.DimensionBreedVoice),
		}),
	}
	for _, s := range samples {
		score, _ := Score(full, s)
		if score < 0 || score > 1+1e-9 {
			t.Fatalf("Score(%s) = %v out of [0,1]", s.ID, score)
		}
	}
}

func TestFindBestBreedBonus(t *testing.T) {
	snap := &registry.Snapshot{Samples: []registry.SampleRecord{
		sampleWith("coon", "Maine Coon", nil),
		sampleWith("euro", "European Shorthair", nil),
	}}

	results := FindBest(snap, taxonomy.TargetTagSet{Emotion: []string{"calm"}}, "Maine Coon", 2)
	if len(results) != 2 {
		t.Fatalf("FindBest() returned %d results, want 2", len(results))
	}
	if results[0].Sample.ID != "coon" {
		t.Fatalf("best = %q, want coon", results[0].Sample.ID)
	}
	if diff := results[0].Score - results[1].Score; math.Abs(diff-0.05) > 1e-9 {
		t.Fatalf("breed bonus delta = %v, want 0.05", diff)
	}
}

func TestFindBestDeterministicTieBreak(t *testing.T) {
	snap := &registry.Snapshot{Samples: []registry.SampleRecord{
		sampleWith("zeta", "", nil),
		sampleWith("alpha", "", nil),
		sampleWith("mid", "", nil),
	}}
	target := taxonomy.TargetTagSet{Emotion: []string{"calm"}}

	first := FindBest(snap, target, "", 3)
	second := FindBest(snap, target, "", 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("FindBest not deterministic:\n%v\n%v", first, second)
	}
	if first[0].Sample.ID != "alpha" || first[1].Sample.ID != "mid" || first[2].Sample.ID != "zeta" {
		t.Fatalf("tie order = [%s %s %s], want [alpha mid zeta]",
			first[0].Sample.ID, first[1].Sample.ID, first[2].Sample.ID)
	}
}

func TestFindBestEmptyRegistry(t *testing.T) {
	if got := FindBest(&registry.Snapshot{}, taxonomy.DefaultTargetTags(), "", 1); len(got) != 0 {
		t.Fatalf("FindBest(empty) = %v, want empty", got)
	}
	if got := FindBest(nil, taxonomy.DefaultTargetTags(), "", 1); len(got) != 0 {
		t.Fatalf("FindBest(nil) = %v, want empty", got)
	}
}
