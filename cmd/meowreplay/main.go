// Command meowreplay drives a running translation server end to end: it
// opens a session, streams a WAV file over the websocket as paced binary
// frames, and reports the translation result. Useful for latency probing
// and smoke tests against a real deployment.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mkrv/meowform/internal/audio"
	"github.com/mkrv/meowform/internal/protocol"
)

type options struct {
	baseURL     string
	wavPath     string
	breed       string
	utterances  int
	chunkMS     int
	realtime    float64
	turnTimeout time.Duration
	outPath     string
	verbose     bool
}

type createSessionRequest struct {
	BreedPreference string `json:"breed_preference,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type wsEnvelope struct {
	Type          string `json:"type"`
	Text          string `json:"text,omitempty"`
	IsFinal       bool   `json:"is_final,omitempty"`
	Detail        string `json:"detail,omitempty"`
	Transcription string `json:"transcription,omitempty"`
	AudioPayload  string `json:"audio_payload,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Reasoning     string `json:"reasoning,omitempty"`
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "meowreplay: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "meowreplay: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "translation server base URL")
	flag.StringVar(&cfg.wavPath, "wav", "", "input WAV file to stream (16-bit PCM); a synthetic tone is used when empty")
	flag.StringVar(&cfg.breed, "breed", "", "breed preference for the session")
	flag.IntVar(&cfg.utterances, "utterances", 1, "number of utterances to replay")
	flag.IntVar(&cfg.chunkMS, "chunk-ms", 45, "audio chunk size in milliseconds")
	flag.Float64Var(&cfg.realtime, "realtime", 3.0, "chunk pacing multiplier (1.0=realtime, 2.0=2x)")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 20000, "timeout waiting for a result per utterance in milliseconds")
	flag.StringVar(&cfg.outPath, "out", "", "optional path prefix for saving result WAVs")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.utterances <= 0 {
		return options{}, fmt.Errorf("utterances must be > 0")
	}
	if cfg.chunkMS < 10 || cfg.chunkMS > 2000 {
		return options{}, fmt.Errorf("chunk-ms must be in [10,2000]")
	}
	if cfg.realtime <= 0 {
		return options{}, fmt.Errorf("realtime must be > 0")
	}
	if turnTimeoutMS < 1000 {
		turnTimeoutMS = 1000
	}
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond
	return cfg, nil
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Minute)
	defer cancel()

	pcm, sampleRate, err := loadUtterance(cfg.wavPath)
	if err != nil {
		return fmt.Errorf("load utterance audio: %w", err)
	}

	httpClient := &http.Client{Timeout: 45 * time.Second}
	sessionID, err := createSession(ctx, httpClient, cfg)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer func() {
		_ = endSession(context.Background(), httpClient, cfg.baseURL, sessionID)
	}()

	if cfg.verbose {
		fmt.Printf("meowreplay: session=%s utterances=%d sample_rate=%dHz bytes=%d\n",
			sessionID, cfg.utterances, sampleRate, len(pcm))
	}

	wsURL, err := wsURLForSession(cfg.baseURL, sessionID)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	resultCh := make(chan wsEnvelope, 8)
	readErrCh := make(chan error, 1)
	go readLoop(conn, resultCh, readErrCh, cfg.verbose)

	if strings.TrimSpace(cfg.breed) != "" {
		frame, _ := json.Marshal(protocol.Config{
			Type:            protocol.TypeConfig,
			BreedPreference: strings.TrimSpace(cfg.breed),
		})
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("send config: %w", err)
		}
	}

	for i := 0; i < cfg.utterances; i++ {
		select {
		case err := <-readErrCh:
			return fmt.Errorf("ws read: %w", err)
		default:
		}

		started := time.Now()
		if err := sendUtteranceAudio(conn, pcm, sampleRate, cfg.chunkMS, cfg.realtime); err != nil {
			return fmt.Errorf("utterance %d send audio: %w", i+1, err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)); err != nil {
			return fmt.Errorf("utterance %d send stop: %w", i+1, err)
		}

		res, err := awaitResult(resultCh, readErrCh, cfg.turnTimeout)
		if err != nil {
			return fmt.Errorf("utterance %d await result: %w", i+1, err)
		}
		if cfg.verbose {
			fmt.Printf("meowreplay: utterance %d/%d done in %s transcription=%q summary=%q\n",
				i+1, cfg.utterances, time.Since(started).Round(time.Millisecond), res.Transcription, res.Summary)
		}
		if cfg.outPath != "" && res.AudioPayload != "" {
			path := fmt.Sprintf("%s_%02d.wav", cfg.outPath, i+1)
			if err := saveResultWAV(path, res.AudioPayload); err != nil {
				return fmt.Errorf("utterance %d save result: %w", i+1, err)
			}
			if cfg.verbose {
				fmt.Printf("meowreplay: wrote %s\n", path)
			}
		}
	}

	if cfg.verbose {
		fmt.Println("meowreplay: replay completed")
	}
	return nil
}

// loadUtterance reads the input WAV as mono PCM16 bytes, or builds a short
// synthetic tone when no file was given.
func loadUtterance(path string) ([]byte, int, error) {
	if strings.TrimSpace(path) == "" {
		const rate = 16000
		tone := make([]float64, rate*3/2)
		for i := range tone {
			tone[i] = 0.4 * math.Sin(2*math.Pi*220*float64(i)/rate)
		}
		return audio.FloatToPCM16(tone), rate, nil
	}
	samples, rate, err := audio.DecodeWAVFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("%s contains no audio", path)
	}
	return audio.FloatToPCM16(samples), rate, nil
}

func createSession(ctx context.Context, client *http.Client, cfg options) (string, error) {
	payload, err := json.Marshal(createSessionRequest{BreedPreference: strings.TrimSpace(cfg.breed)})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v1/translate/session", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out createSessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return "", fmt.Errorf("missing session_id in response")
	}
	return out.SessionID, nil
}

func endSession(ctx context.Context, client *http.Client, baseURL, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/translate/session/"+url.PathEscape(sessionID)+"/end", nil)
	if err != nil {
		return err
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	return nil
}

func wsURLForSession(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/translate/ws"
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func readLoop(conn *websocket.Conn, resultCh chan<- wsEnvelope, readErrCh chan<- error, verbose bool) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErrCh <- err:
			default:
			}
			return
		}

		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case string(protocol.TypeResult):
			select {
			case resultCh <- env:
			default:
			}
		case string(protocol.TypeTranscription):
			if verbose && !env.IsFinal {
				fmt.Printf("meowreplay: partial %q\n", env.Text)
			}
		case string(protocol.TypeError):
			fmt.Fprintf(os.Stderr, "meowreplay: error detail=%s\n", env.Detail)
		}
	}
}

func sendUtteranceAudio(conn *websocket.Conn, pcm []byte, sampleRate, chunkMS int, realtime float64) error {
	chunks := splitChunks(pcm, sampleRate, chunkMS)
	if len(chunks) == 0 {
		return fmt.Errorf("no audio chunks to send")
	}
	for _, chunk := range chunks {
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return err
		}
		chunkDuration := time.Duration(float64(time.Duration(len(chunk))*time.Second/time.Duration(sampleRate*2)) / realtime)
		if chunkDuration <= 0 {
			chunkDuration = 10 * time.Millisecond
		}
		time.Sleep(chunkDuration)
	}
	return nil
}

// splitChunks cuts PCM16 bytes into sample-aligned chunks of roughly
// chunkMS each.
func splitChunks(pcm []byte, sampleRate, chunkMS int) [][]byte {
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}
	if len(pcm) == 0 {
		return nil
	}
	bytesPerChunk := sampleRate * 2 * chunkMS / 1000
	if bytesPerChunk < 2 {
		bytesPerChunk = 2
	}
	if bytesPerChunk%2 != 0 {
		bytesPerChunk++
	}

	var out [][]byte
	for off := 0; off < len(pcm); {
		end := off + bytesPerChunk
		if end > len(pcm) {
			end = len(pcm)
		}
		if (end-off)%2 != 0 {
			end--
		}
		if end <= off {
			break
		}
		out = append(out, pcm[off:end])
		off = end
	}
	return out
}

func awaitResult(resultCh <-chan wsEnvelope, readErrCh <-chan error, timeout time.Duration) (wsEnvelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-resultCh:
		return res, nil
	case err := <-readErrCh:
		return wsEnvelope{}, err
	case <-timer.C:
		return wsEnvelope{}, fmt.Errorf("timeout after %s", timeout)
	}
}

func saveResultWAV(path, payload string) error {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("decode audio payload: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
