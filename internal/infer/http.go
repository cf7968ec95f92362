package infer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mkrv/meowform/internal/reliability"
	"github.com/mkrv/meowform/internal/taxonomy"
)

const (
	defaultTimeout = 30 * time.Second

	maxAttempts  = 3
	retryBase    = 250 * time.Millisecond
	retryCeiling = 2 * time.Second
)

// HTTPInferencer asks an OpenAI-compatible chat completions endpoint to
// classify an utterance into the vocalization tag vocabulary. The model is
// instructed to answer with a single JSON object; anything else is treated
// as an upstream failure.
type HTTPInferencer struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPInferencer(url, apiKey, model string) *HTTPInferencer {
	return &HTTPInferencer{
		url:    strings.TrimSpace(url),
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (h *HTTPInferencer) InferTags(ctx context.Context, text string) (taxonomy.TargetTagSet, error) {
	payload, err := json.Marshal(chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: text},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return taxonomy.TargetTagSet{}, fmt.Errorf("marshal request: %w", err)
	}

	body, err := h.postWithRetry(ctx, payload)
	if err != nil {
		return taxonomy.TargetTagSet{}, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return taxonomy.TargetTagSet{}, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return taxonomy.TargetTagSet{}, fmt.Errorf("inference returned no choices")
	}

	return ParseTagResponse(resp.Choices[0].Message.Content)
}

// postWithRetry sends the chat payload, retrying transient upstream
// failures with capped exponential backoff.
func (h *HTTPInferencer) postWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := reliability.ExponentialBackoff(attempt-1, retryBase, retryCeiling)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			log.Printf("infer: retrying inference request (attempt %d): %v", attempt+1, lastErr)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if h.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.apiKey)
		}

		res, err := h.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send request: %w", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if res.StatusCode < 200 || res.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
			res.Body.Close()
			lastErr = fmt.Errorf("inference http status %d: %s", res.StatusCode, string(snippet))
			if reliability.IsRetryableHTTPStatus(res.StatusCode) {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

// ParseTagResponse extracts and validates a TargetTagSet from model output.
// Models often wrap JSON in code fences or prose; the first balanced JSON
// object in the text is used. Unknown tags are dropped with a log line
// rather than failing the whole set.
func ParseTagResponse(content string) (taxonomy.TargetTagSet, error) {
	raw := extractJSON(content)
	if raw == "" {
		return taxonomy.TargetTagSet{}, fmt.Errorf("no JSON object in inference output")
	}

	var tags taxonomy.TargetTagSet
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return taxonomy.TargetTagSet{}, fmt.Errorf("decode tag set: %w", err)
	}

	tags = sanitize(tags)
	if tags.IsEmpty() {
		return taxonomy.TargetTagSet{}, fmt.Errorf("inference produced no known tags")
	}
	return tags, nil
}

func sanitize(tags taxonomy.TargetTagSet) taxonomy.TargetTagSet {
	out := taxonomy.TargetTagSet{Reasoning: tags.Reasoning}
	for _, dim := range taxonomy.Dimensions {
		var kept []string
		for _, tag := range tags.Tags(dim) {
			norm := strings.ToLower(strings.TrimSpace(tag))
			if norm == "" {
				continue
			}
			if !taxonomy.KnownTag(dim, norm) {
				log.Printf("infer: dropping unknown %s tag %q", dim, tag)
				continue
			}
			kept = append(kept, norm)
		}
		out.SetTags(dim, kept)
	}
	return out
}

// extractJSON returns the first balanced top-level JSON object in s.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You translate a human utterance into target tags for a cat vocalization. ")
	b.WriteString("Reply with exactly one JSON object with keys emotion, intent, acoustic, social_context, breed_voice (arrays of tag strings) and reasoning (short string). ")
	b.WriteString("Use only these tags:\n")
	for _, dim := range taxonomy.Dimensions {
		fmt.Fprintf(&b, "%s: %s\n", dim, strings.Join(taxonomy.Vocabulary(dim), ", "))
	}
	b.WriteString("Omit a key when no tag applies.")
	return b.String()
}
