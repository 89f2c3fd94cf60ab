package mixer

import (
	"context"
	"errors"
	"testing"
)

func TestMockMixer_Sessions(t *testing.T) {
	chrome := &MockSession{Process: "chrome.exe", Key: "1", Level: 0.4}
	spotify := &MockSession{Process: "spotify.exe", Key: "2", Muted: true}
	m := NewMockMixer(chrome, spotify)

	sessions, err := m.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ProcessName != "chrome.exe" || sessions[1].Key != "2" {
		t.Errorf("unexpected sessions: %+v", sessions)
	}

	if err := sessions[0].Control.SetVolume(0.9); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if chrome.Level != 0.9 {
		t.Errorf("Level = %f, want 0.9", chrome.Level)
	}
	if calls := chrome.SetCalls(); len(calls) != 1 || calls[0] != 0.9 {
		t.Errorf("SetCalls() = %v", calls)
	}
	if m.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", m.Calls())
	}
}

func TestMockMixer_Error(t *testing.T) {
	m := NewMockMixer()
	want := errors.New("enumeration failed")
	m.SetError(want)

	if _, err := m.Sessions(context.Background()); err != want {
		t.Errorf("expected %v, got %v", want, err)
	}

	m.SetError(nil)
	if _, err := m.Sessions(context.Background()); err != nil {
		t.Errorf("unexpected error after clearing: %v", err)
	}
}

func TestMockSession_Stale(t *testing.T) {
	s := &MockSession{Process: "vlc", Key: "7", Level: 0.5, Stale: true}

	if err := s.SetVolume(0.1); !errors.Is(err, ErrStaleControl) {
		t.Errorf("SetVolume() error = %v, want ErrStaleControl", err)
	}
	if _, err := s.Mute(); !errors.Is(err, ErrStaleControl) {
		t.Errorf("Mute() error = %v, want ErrStaleControl", err)
	}
	if _, err := s.Volume(); !errors.Is(err, ErrStaleControl) {
		t.Errorf("Volume() error = %v, want ErrStaleControl", err)
	}
	if s.Level != 0.5 {
		t.Errorf("Level changed on stale set: %f", s.Level)
	}
}

func TestNewDemoMixer(t *testing.T) {
	sessions, err := NewDemoMixer().Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 demo sessions, got %d", len(sessions))
	}
}
