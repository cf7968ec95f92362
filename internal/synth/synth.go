// Package synth runs the end-to-end synthesis pipeline: pick the best
// registry sample for a target, load its audio, reshape its prosody, and
// package the result for delivery.
package synth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mkrv/meowform/internal/affect"
	"github.com/mkrv/meowform/internal/audio"
	"github.com/mkrv/meowform/internal/describe"
	"github.com/mkrv/meowform/internal/dsp"
	"github.com/mkrv/meowform/internal/match"
	"github.com/mkrv/meowform/internal/registry"
	"github.com/mkrv/meowform/internal/taxonomy"
)

var (
	ErrNoMatch       = errors.New("no matching samples in registry")
	ErrAudioNotFound = errors.New("sample audio not found")
)

// Result is a completed synthesis: the selected sample, what was done to
// it, and the transformed audio as a WAV payload.
type Result struct {
	SampleID    string                          `json:"sample_id"`
	Breed       string                          `json:"breed"`
	Context     string                          `json:"context"`
	Score       float64                         `json:"score,omitempty"`
	Distance    float64                         `json:"distance"`
	MatchedTags map[taxonomy.Dimension][]string `json:"matched_tags,omitempty"`
	Reasoning   string                          `json:"reasoning,omitempty"`
	Description describe.Description            `json:"description"`
	SampleRate  int                             `json:"sample_rate"`
	AudioWAV    []byte                          `json:"-"`
	Transform   dsp.TransformInfo               `json:"-"`
}

// AudioBase64 returns the WAV payload ready for a JSON message.
func (r *Result) AudioBase64() string {
	return base64.StdEncoding.EncodeToString(r.AudioWAV)
}

// Service wires the registry, matcher, and DSP pipeline together.
type Service struct {
	reg       *registry.Registry
	assetsDir string
}

func NewService(reg *registry.Registry, assetsDir string) *Service {
	return &Service{reg: reg, assetsDir: assetsDir}
}

// intentTagToAffect maps intent-dimension tags onto the communicative
// intents that carry affect coordinates.
var intentTagToAffect = map[string]string{
	"requesting_food":       "Requesting",
	"demanding_attention":   "Solicitation",
	"seeking_companionship": "Affiliative",
	"expressing_comfort":    "Contentment",
	"protesting":            "Frustration",
	"greeting":              "Affiliative",
}

// SynthesizeFromTags is the streaming path: score the registry against the
// inferred tag set, transform the winner toward the tag set's implied
// affect, and package the audio.
func (s *Service) SynthesizeFromTags(ctx context.Context, tags taxonomy.TargetTagSet, breedPreference string) (*Result, error) {
	snap := s.reg.Snapshot()
	ranked := match.FindBest(snap, tags, breedPreference, 1)
	if len(ranked) == 0 {
		return nil, ErrNoMatch
	}
	best := ranked[0]

	intentName, target := affectForTags(tags)
	res, err := s.transform(ctx, best.Sample, intentName, target, breedPreference)
	if err != nil {
		return nil, err
	}
	res.Score = best.Score
	res.MatchedTags = best.MatchedTags
	res.Reasoning = tags.Reasoning
	return res, nil
}

// SynthesizeIntent is the one-shot path: map an intent to affect space,
// retrieve the nearest sample, and transform it.
func (s *Service) SynthesizeIntent(ctx context.Context, intent, breed string) (*Result, error) {
	target, err := affect.Of(intent)
	if err != nil {
		return nil, err
	}

	snap := s.reg.Snapshot()
	matches := snap.Nearest(registry.NearestQuery{Target: target, TopK: 1})
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}
	return s.transform(ctx, matches[0].Sample, intent, target, breed)
}

func (s *Service) transform(ctx context.Context, sample registry.SampleRecord, intent string, target affect.Point, breed string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.assetsDir, sample.AudioReference)
	samples, rate, err := audio.DecodeWAVFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, path)
		}
		return nil, err
	}

	// Prosody deltas come from how far the matched sample's affect sits
	// from the target.
	pitchHint := (target.Valence - sample.Valence) * 2.0
	durationFactor := 1.0 + (sample.Arousal-target.Arousal)*0.5
	arousal := target.Arousal

	out, info := dsp.Transform(samples, rate, dsp.TransformParams{
		PitchShiftSemitones: pitchHint,
		DurationFactor:      durationFactor,
		Breed:               breed,
		Arousal:             &arousal,
	})

	wavBytes, err := audio.EncodeWAV(out, rate)
	if err != nil {
		return nil, err
	}

	distance := affect.Distance(target, sample.Affect())
	desc := describe.Generate(intent, describe.Match{
		SampleID: sample.ID,
		Context:  sample.Context,
		Breed:    sample.Breed,
		Distance: distance,
	}, target, breed, info.TotalShiftSemitones, info.EffectiveDuration, &arousal)

	log.Printf("synth: intent=%q sample=%s distance=%.4f shift=%+.2fst dur=x%.2f stretch=%s",
		intent, sample.ID, distance, info.TotalShiftSemitones, info.EffectiveDuration, info.StretchMethod)

	return &Result{
		SampleID:    sample.ID,
		Breed:       sample.Breed,
		Context:     sample.Context,
		Distance:    distance,
		Description: desc,
		SampleRate:  rate,
		AudioWAV:    wavBytes,
		Transform:   info,
	}, nil
}

// affectForTags derives a target affect point from a tag set's intent
// dimension; tag sets without a recognizable intent anchor on the neutral
// default point.
func affectForTags(tags taxonomy.TargetTagSet) (string, affect.Point) {
	for _, tag := range tags.Intent {
		if name, ok := intentTagToAffect[tag]; ok {
			if p, err := affect.Of(name); err == nil {
				return name, p
			}
		}
	}
	return "Neutral", affect.DefaultPoint
}
