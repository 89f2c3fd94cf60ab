// Package mixer is the boundary to the OS per-application audio mixer:
// session enumeration plus per-session mute/volume get and volume set.
package mixer

import (
	"context"
	"errors"
	"fmt"
)

// ErrStaleControl is returned when a session's control handle no longer
// refers to a live mixer session.
var ErrStaleControl = errors.New("stale session control")

// Control is the per-session capability handed out by a Mixer.
type Control interface {
	// Mute reports whether the session is muted.
	Mute() (bool, error)

	// Volume returns the session volume in [0,1].
	Volume() (float64, error)

	// SetVolume sets the session volume; level is in [0,1].
	SetVolume(level float64) error
}

// Session is one audio-producing process endpoint as enumerated by the mixer.
type Session struct {
	ProcessName string
	Key         string // the mixer's own identity for this session object
	Control     Control
}

// Mixer enumerates the audio sessions currently known to the OS.
type Mixer interface {
	Sessions(ctx context.Context) ([]Session, error)
	Close() error
}

// ControlError describes a failed operation on one session.
type ControlError struct {
	Op  string
	Key string
	Err error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("%s on session %s: %v", e.Op, e.Key, e.Err)
}

func (e *ControlError) Unwrap() error {
	return e.Err
}
