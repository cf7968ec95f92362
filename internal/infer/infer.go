// Package infer maps transcribed speech to a target vocalization tag set.
// The production implementation calls an OpenAI-compatible chat endpoint;
// a mock backs tests and offline development.
package infer

import (
	"context"

	"github.com/mkrv/meowform/internal/taxonomy"
)

// TagInferencer derives the target tag set for an utterance. Implementations
// may fail; callers fall back to taxonomy.DefaultTargetTags so matching
// always has an input.
type TagInferencer interface {
	InferTags(ctx context.Context, text string) (taxonomy.TargetTagSet, error)
}
