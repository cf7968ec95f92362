package main

import "testing"

func TestSplitChunksAlignment(t *testing.T) {
	pcm := make([]byte, 16000*2) // one second at 16 kHz mono
	chunks := splitChunks(pcm, 16000, 45)

	total := 0
	for i, chunk := range chunks {
		if len(chunk)%2 != 0 {
			t.Fatalf("chunk %d has odd length %d", i, len(chunk))
		}
		if len(chunk) == 0 {
			t.Fatalf("chunk %d is empty", i)
		}
		total += len(chunk)
	}
	if total != len(pcm) {
		t.Fatalf("chunks cover %d bytes, want %d", total, len(pcm))
	}
}

func TestSplitChunksOddTrailingByte(t *testing.T) {
	pcm := make([]byte, 2001)
	chunks := splitChunks(pcm, 16000, 45)

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total != 2000 {
		t.Fatalf("chunks cover %d bytes, want 2000", total)
	}
}

func TestSplitChunksTinyInput(t *testing.T) {
	if got := splitChunks(nil, 16000, 45); got != nil {
		t.Fatalf("splitChunks(nil) = %v, want nil", got)
	}
	chunks := splitChunks([]byte{0x01, 0x02}, 16000, 45)
	if len(chunks) != 1 || len(chunks[0]) != 2 {
		t.Fatalf("chunks = %v, want one 2-byte chunk", chunks)
	}
}

func TestWSURLForSession(t *testing.T) {
	got, err := wsURLForSession("http://127.0.0.1:8080", "abc")
	if err != nil {
		t.Fatalf("wsURLForSession() error = %v", err)
	}
	want := "ws://127.0.0.1:8080/v1/translate/ws?session_id=abc"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}

	if _, err := wsURLForSession("ftp://example.com", "abc"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
