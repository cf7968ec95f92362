package match

import (
	"log"
	"sort"

	"github.com/mkrv/meowform/internal/registry"
	"github.com/mkrv/meowform/internal/taxonomy"
)

// breedBonus is added flat when a breed preference matches the sample's
// breed. It can push a score above the nominal [0, 1] scale.
const breedBonus = 0.05

// Result is one scored sample, ephemeral per query.
type Result struct {
	Sample      registry.SampleRecord           `json:"sample"`
	Score       float64                         `json:"score"`
	MatchedTags map[taxonomy.Dimension][]string `json:"matched_tags,omitempty"`
}

// Score computes the weighted Jaccard overlap between a target tag set and a
// sample. Dimensions absent from the target are skipped entirely, not scored
// as zero, so the comparable upper bound depends on which dimensions the
// target populates.
func Score(target taxonomy.TargetTagSet, sample registry.SampleRecord) (float64, map[taxonomy.Dimension][]string) {
	total := 0.0
	matched := make(map[taxonomy.Dimension][]string)

	for _, dim := range taxonomy.Dimensions {
		targetTags := target.Tags(dim)
		if len(targetTags) == 0 {
			continue
		}

		sampleTags := sample.Tags[dim]
		overlap, union := setOverlap(targetTags, sampleTags)
		jaccard := 0.0
		if union > 0 {
			jaccard = float64(len(overlap)) / float64(union)
		}
		total += taxonomy.Weights[dim] * jaccard
		if len(overlap) > 0 {
			sort.Strings(overlap)
			matched[dim] = overlap
		}
	}
	return total, matched
}

// FindBest scores every sample in the snapshot against the target, applies
// the breed-preference bonus, and returns the top-K results sorted by
// descending score with ties broken by ascending sample id for determinism.
func FindBest(snap *registry.Snapshot, target taxonomy.TargetTagSet, breedPreference string, topK int) []Result {
	if snap == nil || len(snap.Samples) == 0 {
		log.Printf("match: no samples loaded, cannot match")
		return nil
	}
	if topK <= 0 {
		topK = 1
	}

	results := make([]Result, 0, len(snap.Samples))
	for _, sample := range snap.Samples {
		score, matched := Score(target, sample)
		if breedPreference != "" && sample.Breed == breedPreference {
			score += breedBonus
		}
		results = append(results, Result{Sample: sample, Score: score, MatchedTags: matched})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Sample.ID < results[j].Sample.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func setOverlap(target, sample []string) (overlap []string, unionSize int) {
	targetSet := make(map[string]struct{}, len(target))
	for _, tag := range target {
		targetSet[tag] = struct{}{}
	}
	union := make(map[string]struct{}, len(target)+len(sample))
	for tag := range targetSet {
		union[tag] = struct{}{}
	}
	for _, tag := range sample {
		if _, ok := targetSet[tag]; ok {
			found := false
			for _, o := range overlap {
				if o == tag {
					found = true
					break
				}
			}
			if !found {
				overlap = append(overlap, tag)
			}
		}
		union[tag] = struct{}{}
	}
	return overlap, len(union)
}
