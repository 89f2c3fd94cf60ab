// Package session tracks which OS audio sessions are currently controllable,
// smoothing over sessions that briefly go silent or drop out of enumeration.
package session

import (
	"fmt"

	"github.com/ayusman/pinchmix/internal/mixer"
)

// ID identifies a session by process name and the mixer's session identity.
// Several processes may share a name, so the name alone is not enough.
type ID struct {
	Process string `json:"process"`
	Key     string `json:"key"`
}

func (id ID) String() string {
	return fmt.Sprintf("%s#%s", id.Process, id.Key)
}

// AudioSession is the cached view of one controllable session.
type AudioSession struct {
	ID          ID
	ProcessName string
	Volume      float64 // percent, 0-100
	Muted       bool
	Control     mixer.Control
}

// Active reports whether the session is audible.
func (s *AudioSession) Active() bool {
	return !s.Muted && s.Volume > 0
}

// Registry holds the last known good set of sessions across frames.
// It is owned by the frame loop and is not safe for concurrent use.
type Registry struct {
	order   []ID
	entries map[ID]*AudioSession
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ID]*AudioSession),
	}
}

// Len returns the number of sessions held.
func (r *Registry) Len() int {
	return len(r.order)
}

// Lookup returns the session with the given ID, if held.
func (r *Registry) Lookup(id ID) (*AudioSession, bool) {
	s, ok := r.entries[id]
	return s, ok
}

// Entries returns the held sessions in enumeration order.
func (r *Registry) Entries() []*AudioSession {
	out := make([]*AudioSession, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// IDs returns the held identities in enumeration order.
func (r *Registry) IDs() []ID {
	return append([]ID(nil), r.order...)
}

// replace swaps the registry contents for sessions, keeping their order.
func (r *Registry) replace(sessions []*AudioSession) {
	r.order = r.order[:0]
	r.entries = make(map[ID]*AudioSession, len(sessions))
	for _, s := range sessions {
		if _, dup := r.entries[s.ID]; dup {
			continue
		}
		r.order = append(r.order, s.ID)
		r.entries[s.ID] = s
	}
}
