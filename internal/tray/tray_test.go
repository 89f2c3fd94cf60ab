package tray

import "testing"

func TestNew(t *testing.T) {
	tr := New()

	if !tr.IsEnabled() {
		t.Error("tray should start enabled")
	}
	if tr.Status() != "starting" {
		t.Errorf("Status() = %q, want starting", tr.Status())
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should leave the tray enabled")
	}
}

func TestTray_SetStatus(t *testing.T) {
	tr := New()

	// Before the menu exists only the stored status changes.
	tr.SetStatus("Actuating: 2 sessions")
	if tr.Status() != "Actuating: 2 sessions" {
		t.Errorf("Status() = %q", tr.Status())
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"enabled", toggleTitle(true), "● Control enabled"},
		{"paused", toggleTitle(false), "○ Control paused"},
		{"status", statusTitle("Gating"), "Status: Gating"},
		{"empty status", statusTitle(""), "Status: idle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
