// Package stream runs the per-connection translation session: it buffers
// incoming audio, throttles intermediate transcription, speculatively infers
// target tags on promising partials, and assembles the final translation on
// stop.
package stream

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mkrv/meowform/internal/infer"
	"github.com/mkrv/meowform/internal/protocol"
	"github.com/mkrv/meowform/internal/synth"
	"github.com/mkrv/meowform/internal/taxonomy"
	"github.com/mkrv/meowform/internal/transcribe"
)

const (
	// One second of 16 kHz mono 16-bit audio. Below this a transcription
	// attempt is wasted effort.
	defaultWarmupBytes = 32000
	// Every attempt re-transcribes the whole buffer, so re-attempting more
	// often burns cost without improving latency.
	defaultMinAttemptInterval = 2500 * time.Millisecond
	defaultMinSpeculateWords  = 5
	defaultSpeculativeWait    = 5 * time.Second
	defaultSimilarityReuse    = 0.70
	defaultSampleRate         = 16000
)

// Synthesizer is the slice of the synthesis service the controller needs.
type Synthesizer interface {
	SynthesizeFromTags(ctx context.Context, tags taxonomy.TargetTagSet, breedPreference string) (*synth.Result, error)
}

// Observer receives pipeline timing and speculative lifecycle events.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveStage(stage string, d time.Duration)
	SpeculativeEvent(outcome string)
	ObserveTranscriptionLatency(d time.Duration)
	ObserveTranslationLatency(d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration)        {}
func (nopObserver) SpeculativeEvent(string)                   {}
func (nopObserver) ObserveTranscriptionLatency(time.Duration) {}
func (nopObserver) ObserveTranslationLatency(time.Duration)   {}

// Config tunes a session controller. Zero values take the defaults above.
type Config struct {
	WarmupBytes        int
	MinAttemptInterval time.Duration
	MinSpeculateWords  int
	SpeculativeWait    time.Duration
	SimilarityReuse    float64
	SampleRate         int

	// Observer, when set, receives stage latencies and speculative events.
	Observer Observer
	// OnResult, when set, is called with every successful translation
	// before it is emitted to the client.
	OnResult func(transcription string, res *synth.Result)
}

func (c Config) withDefaults() Config {
	if c.WarmupBytes <= 0 {
		c.WarmupBytes = defaultWarmupBytes
	}
	if c.MinAttemptInterval <= 0 {
		c.MinAttemptInterval = defaultMinAttemptInterval
	}
	if c.MinSpeculateWords <= 0 {
		c.MinSpeculateWords = defaultMinSpeculateWords
	}
	if c.SpeculativeWait <= 0 {
		c.SpeculativeWait = defaultSpeculativeWait
	}
	if c.SimilarityReuse <= 0 {
		c.SimilarityReuse = defaultSimilarityReuse
	}
	if c.SampleRate <= 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	return c
}

type speculativeResult struct {
	text string
	tags taxonomy.TargetTagSet
}

// Controller is the single-goroutine session state machine. HandleAudio,
// HandleControl, and Close must be called from one goroutine; the emit
// callback may additionally be invoked from the speculative goroutine and
// must be safe for that.
type Controller struct {
	cfg          Config
	transcriber  transcribe.Transcriber
	inferencer   infer.TagInferencer
	synthesizer  Synthesizer
	emit         func(msg any)
	sessionLabel string

	breedPreference string
	buffer          bytes.Buffer
	lastAttempt     time.Time
	lastPartial     string
	firstAudioAt    time.Time
	partialSeen     bool

	specMu       sync.Mutex
	specGen      int64
	specInFlight bool
	specCancel   context.CancelFunc
	specDone     chan struct{}
	specResult   *speculativeResult
}

func NewController(cfg Config, tr transcribe.Transcriber, inf infer.TagInferencer, syn Synthesizer, sessionLabel string, emit func(msg any)) *Controller {
	return &Controller{
		cfg:          cfg.withDefaults(),
		transcriber:  tr,
		inferencer:   inf,
		synthesizer:  syn,
		emit:         emit,
		sessionLabel: sessionLabel,
	}
}

// HandleControl processes one client JSON frame.
func (c *Controller) HandleControl(ctx context.Context, raw []byte) {
	msg, err := protocol.ParseControlMessage(raw)
	if err != nil {
		c.emit(protocol.NewError("invalid control message: " + err.Error()))
		return
	}
	switch m := msg.(type) {
	case protocol.Config:
		if m.BreedPreference != "" {
			c.breedPreference = m.BreedPreference
			log.Printf("stream %s: breed preference set to %q", c.sessionLabel, m.BreedPreference)
		}
	case protocol.Stop:
		c.finalize(ctx)
	}
}

// HandleAudio appends one binary frame and may fire an intermediate
// transcription attempt.
func (c *Controller) HandleAudio(ctx context.Context, frame []byte) {
	if len(frame) == 0 {
		return
	}
	if c.buffer.Len() == 0 {
		c.firstAudioAt = time.Now()
	}
	c.buffer.Write(frame)

	if c.buffer.Len() < c.cfg.WarmupBytes {
		return
	}
	if !c.lastAttempt.IsZero() && time.Since(c.lastAttempt) < c.cfg.MinAttemptInterval {
		return
	}
	c.lastAttempt = time.Now()

	started := time.Now()
	text, err := c.transcriber.Transcribe(ctx, c.buffer.Bytes(), c.cfg.SampleRate)
	c.cfg.Observer.ObserveTranscriptionLatency(time.Since(started))
	if err != nil {
		// Keep the last good partial; intermediate failures are advisory.
		log.Printf("stream %s: intermediate transcription failed: %v", c.sessionLabel, err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.lastPartial = text
	if !c.partialSeen {
		c.partialSeen = true
		c.cfg.Observer.ObserveStage("audio_to_first_partial", time.Since(c.firstAudioAt))
	}
	c.emit(protocol.Transcription{Type: protocol.TypeTranscription, Text: text, IsFinal: false})

	if countWords(text) >= c.cfg.MinSpeculateWords {
		c.startSpeculative(ctx, text)
	}
}

// startSpeculative fires at most one background inference over partial text.
func (c *Controller) startSpeculative(ctx context.Context, text string) {
	c.specMu.Lock()
	if c.specInFlight || c.specResult != nil {
		c.specMu.Unlock()
		return
	}
	c.specGen++
	gen := c.specGen
	specCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.specInFlight = true
	c.specCancel = cancel
	c.specDone = done
	c.specMu.Unlock()
	c.cfg.Observer.SpeculativeEvent("started")

	go func() {
		defer close(done)
		tags, err := c.inferencer.InferTags(specCtx, text)

		c.specMu.Lock()
		if c.specGen != gen {
			// Cancelled or superseded; discard, never surface.
			c.specMu.Unlock()
			c.cfg.Observer.SpeculativeEvent("discarded")
			return
		}
		c.specInFlight = false
		c.specCancel = nil
		if err != nil {
			c.specMu.Unlock()
			c.cfg.Observer.SpeculativeEvent("failed")
			log.Printf("stream %s: speculative inference failed: %v", c.sessionLabel, err)
			return
		}
		c.specResult = &speculativeResult{text: text, tags: tags}
		c.specMu.Unlock()

		c.emit(protocol.AnalysisPreview{
			Type:    protocol.TypeAnalysisPreview,
			Emotion: tags.Emotion,
			Intent:  tags.Intent,
		})
	}()
}

// awaitSpeculative waits out an in-flight speculative task within the
// configured budget and returns the cached result, if any survived.
func (c *Controller) awaitSpeculative() *speculativeResult {
	c.specMu.Lock()
	done := c.specDone
	inFlight := c.specInFlight
	c.specMu.Unlock()

	if inFlight && done != nil {
		timer := time.NewTimer(c.cfg.SpeculativeWait)
		select {
		case <-done:
		case <-timer.C:
			log.Printf("stream %s: speculative inference timed out", c.sessionLabel)
			c.cfg.Observer.SpeculativeEvent("timeout")
			c.cancelSpeculative()
		}
		timer.Stop()
	}

	c.specMu.Lock()
	defer c.specMu.Unlock()
	return c.specResult
}

func (c *Controller) cancelSpeculative() {
	c.specMu.Lock()
	cancel := c.specCancel
	c.specGen++
	c.specInFlight = false
	c.specCancel = nil
	c.specDone = nil
	c.specResult = nil
	c.specMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// finalize runs the stop flow: final transcription, tag resolution, and
// synthesis, then resets for the next utterance on the same connection.
func (c *Controller) finalize(ctx context.Context) {
	defer c.reset()
	stopAt := time.Now()

	cached := c.awaitSpeculative()

	transcribeStart := time.Now()
	finalText, err := c.transcriber.Transcribe(ctx, c.buffer.Bytes(), c.cfg.SampleRate)
	c.cfg.Observer.ObserveStage("stop_to_final_transcript", time.Since(stopAt))
	c.cfg.Observer.ObserveTranscriptionLatency(time.Since(transcribeStart))
	if err != nil {
		log.Printf("stream %s: final transcription failed: %v", c.sessionLabel, err)
		finalText = ""
	}
	finalText = strings.TrimSpace(finalText)
	if finalText == "" {
		c.emit(protocol.NewError("No speech detected"))
		return
	}
	c.emit(protocol.Transcription{Type: protocol.TypeTranscription, Text: finalText, IsFinal: true})

	var tags taxonomy.TargetTagSet
	switch {
	case cached != nil && Ratio(cached.text, finalText) >= c.cfg.SimilarityReuse:
		tags = cached.tags
		c.cfg.Observer.SpeculativeEvent("reused")
	default:
		if cached != nil {
			c.cfg.Observer.SpeculativeEvent("stale")
		}
		inferStart := time.Now()
		tags, err = c.inferencer.InferTags(ctx, finalText)
		c.cfg.Observer.ObserveStage("inference", time.Since(inferStart))
		if err != nil {
			log.Printf("stream %s: inference failed, using default target tags: %v", c.sessionLabel, err)
			tags = taxonomy.DefaultTargetTags()
		}
	}

	res, err := c.synthesizer.SynthesizeFromTags(ctx, tags, c.breedPreference)
	if err != nil {
		c.emit(protocol.NewError("translation failed: " + err.Error()))
		return
	}
	c.cfg.Observer.ObserveStage("stop_to_result", time.Since(stopAt))
	c.cfg.Observer.ObserveTranslationLatency(time.Since(stopAt))
	if c.cfg.OnResult != nil {
		c.cfg.OnResult(finalText, res)
	}

	c.emit(protocol.Result{
		Type:          protocol.TypeResult,
		Transcription: finalText,
		SelectedSample: protocol.SelectedSample{
			ID:          res.SampleID,
			Breed:       res.Breed,
			Context:     res.Context,
			Score:       res.Score,
			MatchedTags: res.MatchedTags,
		},
		AudioPayload: res.AudioBase64(),
		Summary:      res.Description.Summary,
		Reasoning:    res.Reasoning,
	})
}

// reset clears all per-utterance state so nothing leaks into the next
// utterance on the same connection. Breed preference survives.
func (c *Controller) reset() {
	c.buffer.Reset()
	c.lastAttempt = time.Time{}
	c.lastPartial = ""
	c.firstAudioAt = time.Time{}
	c.partialSeen = false
	c.cancelSpeculative()
}

// Close releases the controller when the connection ends.
func (c *Controller) Close() {
	c.cancelSpeculative()
}

// BufferedBytes reports how much audio is pending for the current utterance.
func (c *Controller) BufferedBytes() int {
	return c.buffer.Len()
}
