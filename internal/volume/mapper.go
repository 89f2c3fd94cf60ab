// Package volume applies a pinch closedness to the controllable sessions.
package volume

import (
	"github.com/ayusman/pinchmix/internal/gesture"
	"github.com/ayusman/pinchmix/internal/session"
)

// Result reports what happened to one session.
type Result struct {
	Session *session.AudioSession
	Level   float64 // requested level in [0,1]
	Err     error
}

// Applied reports whether the level was written.
func (r Result) Applied() bool {
	return r.Err == nil
}

// Mapper maps percent-closed to a volume level and writes it to sessions.
type Mapper struct{}

// NewMapper creates a Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Apply sets every session to the level for percentClosed, in order.
// A failure on one session is recorded in its Result and the rest are
// still attempted. On success the session's cached volume is updated.
func (m *Mapper) Apply(percentClosed float64, sessions []*session.AudioSession) []Result {
	level := gesture.VolumeLevel(percentClosed)

	results := make([]Result, 0, len(sessions))
	for _, s := range sessions {
		r := Result{Session: s, Level: level}
		if s == nil || s.Control == nil {
			continue
		}
		if err := s.Control.SetVolume(level); err != nil {
			r.Err = err
		} else {
			s.Volume = level * 100
		}
		results = append(results, r)
	}

	return results
}
