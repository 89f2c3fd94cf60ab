package mixer

import (
	"context"
	"sync"
)

// MockSession is a scripted session used by MockMixer.
type MockSession struct {
	Process string
	Key     string
	Level   float64
	Muted   bool

	// Stale makes every control call fail with ErrStaleControl.
	Stale bool

	mu       sync.Mutex
	setCalls []float64
}

func (s *MockSession) Mute() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stale {
		return false, &ControlError{Op: "get mute", Key: s.Key, Err: ErrStaleControl}
	}
	return s.Muted, nil
}

func (s *MockSession) Volume() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stale {
		return 0, &ControlError{Op: "get volume", Key: s.Key, Err: ErrStaleControl}
	}
	return s.Level, nil
}

func (s *MockSession) SetVolume(level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stale {
		return &ControlError{Op: "set volume", Key: s.Key, Err: ErrStaleControl}
	}
	s.setCalls = append(s.setCalls, level)
	s.Level = level
	return nil
}

// SetCalls returns the levels passed to SetVolume so far.
func (s *MockSession) SetCalls() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.setCalls...)
}

// MockMixer is a test implementation of the Mixer interface.
type MockMixer struct {
	mu       sync.Mutex
	sessions []*MockSession
	err      error
	calls    int
}

// NewMockMixer creates a MockMixer with the given sessions.
func NewMockMixer(sessions ...*MockSession) *MockMixer {
	return &MockMixer{sessions: sessions}
}

// NewDemoMixer returns a MockMixer seeded with a browser and a music player,
// for running the pipeline without a sound server.
func NewDemoMixer() *MockMixer {
	return NewMockMixer(
		&MockSession{Process: "chrome", Key: "demo-1", Level: 0.8},
		&MockSession{Process: "spotify", Key: "demo-2", Level: 0.5},
	)
}

// SetSessions replaces the enumerated sessions.
func (m *MockMixer) SetSessions(sessions ...*MockSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = sessions
}

// SetError makes Sessions fail with err until cleared with nil.
func (m *MockMixer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Sessions was invoked.
func (m *MockMixer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Sessions returns the scripted sessions in order.
func (m *MockMixer) Sessions(ctx context.Context) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	sessions := make([]Session, len(m.sessions))
	for i, s := range m.sessions {
		sessions[i] = Session{ProcessName: s.Process, Key: s.Key, Control: s}
	}
	return sessions, nil
}

// Close is a no-op for the mock mixer.
func (m *MockMixer) Close() error {
	return nil
}
