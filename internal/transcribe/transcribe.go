// Package transcribe turns buffered PCM audio into text. The production
// implementation shells out to a whisper-style CLI; a mock implementation
// backs tests and local development without a model install.
package transcribe

import "context"

// Transcriber converts a mono 16-bit 16 kHz PCM buffer into UTF-8 text.
// Implementations are synchronous; callers own throttling and cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}
