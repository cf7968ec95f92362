package session

import (
	"context"
	"testing"
	"time"
)

func TestManagerCreateGetEnd(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("Maine Coon")
	if s.ID == "" {
		t.Fatalf("session ID should not be empty")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.BreedPreference != "Maine Coon" || got.Status != StatusActive {
		t.Fatalf("unexpected session state: %+v", got)
	}

	ended, err := m.End(s.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
}

func TestManagerGetUnknown(t *testing.T) {
	m := NewManager(time.Minute)
	if _, err := m.Get("nope"); err != ErrNotFound {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestManagerBreedPreferenceAndUtterances(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("")

	if err := m.SetBreedPreference(s.ID, "Siamese"); err != nil {
		t.Fatalf("SetBreedPreference() error = %v", err)
	}
	if err := m.RecordUtterance(s.ID); err != nil {
		t.Fatalf("RecordUtterance() error = %v", err)
	}
	if err := m.RecordUtterance(s.ID); err != nil {
		t.Fatalf("RecordUtterance() error = %v", err)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.BreedPreference != "Siamese" {
		t.Fatalf("BreedPreference = %q, want Siamese", got.BreedPreference)
	}
	if got.UtteranceCount != 2 {
		t.Fatalf("UtteranceCount = %d, want 2", got.UtteranceCount)
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	s := m.Create("")

	expired := make(chan *Session, 1)
	m.SetExpireHook(func(s *Session) { expired <- s })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case got := <-expired:
		if got.ID != s.ID {
			t.Fatalf("expired session = %q, want %q", got.ID, s.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor never expired the session")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q", got.Status, StatusEnded)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount = %d, want 0", m.ActiveCount())
	}
}
