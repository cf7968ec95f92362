package infer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
)

func TestParseTagResponsePlainJSON(t *testing.T) {
	got, err := ParseTagResponse(`{"emotion":["hungry"],"intent":["requesting_food"],"reasoning":"asks for food"}`)
	if err != nil {
		t.Fatalf("ParseTagResponse: %v", err)
	}
	if !reflect.DeepEqual(got.Emotion, []string{"hungry"}) {
		t.Errorf("Emotion = %v", got.Emotion)
	}
	if !reflect.DeepEqual(got.Intent, []string{"requesting_food"}) {
		t.Errorf("Intent = %v", got.Intent)
	}
	if got.Reasoning != "asks for food" {
		t.Errorf("Reasoning = %q", got.Reasoning)
	}
}

func TestParseTagResponseCodeFence(t *testing.T) {
	content := "Here are the tags:\n```json\n{\"emotion\": [\"content\"], \"acoustic\": [\"soft\"]}\n```\nDone."
	got, err := ParseTagResponse(content)
	if err != nil {
		t.Fatalf("ParseTagResponse: %v", err)
	}
	if !reflect.DeepEqual(got.Emotion, []string{"content"}) {
		t.Errorf("Emotion = %v", got.Emotion)
	}
}

func TestParseTagResponseDropsUnknownTags(t *testing.T) {
	got, err := ParseTagResponse(`{"emotion":["hungry","ecstatic"],"intent":["requesting_food"]}`)
	if err != nil {
		t.Fatalf("ParseTagResponse: %v", err)
	}
	if !reflect.DeepEqual(got.Emotion, []string{"hungry"}) {
		t.Errorf("unknown tag not dropped: %v", got.Emotion)
	}
}

func TestParseTagResponseNormalizesCase(t *testing.T) {
	got, err := ParseTagResponse(`{"emotion":[" Hungry "]}`)
	if err != nil {
		t.Fatalf("ParseTagResponse: %v", err)
	}
	if !reflect.DeepEqual(got.Emotion, []string{"hungry"}) {
		t.Errorf("Emotion = %v", got.Emotion)
	}
}

func TestParseTagResponseRejectsGarbage(t *testing.T) {
	for _, content := range []string{
		"no json here",
		`{"emotion":["totally_made_up"]}`,
		"",
	} {
		if _, err := ParseTagResponse(content); err == nil {
			t.Errorf("ParseTagResponse(%q): expected error", content)
		}
	}
}

func TestHTTPInferencer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "I'm so hungry" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": `{"emotion":["hungry","eager"],"intent":["requesting_food"],"social_context":["feeding_time"],"reasoning":"direct food request"}`,
				},
			}},
		})
	}))
	defer srv.Close()

	inf := NewHTTPInferencer(srv.URL, "test-key", "gpt-4o-mini")
	got, err := inf.InferTags(context.Background(), "I'm so hungry")
	if err != nil {
		t.Fatalf("InferTags: %v", err)
	}
	if !reflect.DeepEqual(got.Emotion, []string{"hungry", "eager"}) {
		t.Errorf("Emotion = %v", got.Emotion)
	}
	if !reflect.DeepEqual(got.SocialContext, []string{"feeding_time"}) {
		t.Errorf("SocialContext = %v", got.SocialContext)
	}
}

func TestHTTPInferencerRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": `{"emotion":["hungry"],"intent":["requesting_food"]}`,
				},
			}},
		})
	}))
	defer srv.Close()

	inf := NewHTTPInferencer(srv.URL, "", "")
	got, err := inf.InferTags(context.Background(), "feed me")
	if err != nil {
		t.Fatalf("InferTags: %v", err)
	}
	if !reflect.DeepEqual(got.Intent, []string{"requesting_food"}) {
		t.Errorf("Intent = %v", got.Intent)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestHTTPInferencerDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	inf := NewHTTPInferencer(srv.URL, "", "")
	if _, err := inf.InferTags(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestHTTPInferencerUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	inf := NewHTTPInferencer(srv.URL, "", "")
	if _, err := inf.InferTags(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
