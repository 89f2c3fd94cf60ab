package session

import (
	"log/slog"

	"github.com/ayusman/pinchmix/internal/mixer"
)

// Outcome is the result of one reconciliation pass.
type Outcome struct {
	// Controllable lists the sessions eligible for actuation, in enumeration order.
	Controllable []*AudioSession

	// Held is true when nothing was audible and the previous sessions were
	// carried forward (pruned to those still enumerated) instead.
	Held bool

	// Added and Evicted are the identity changes applied to the registry.
	Added   []ID
	Evicted []ID
}

// Reconciler refreshes a Registry from a fresh mixer enumeration.
type Reconciler struct {
	filter *Filter
	logger *slog.Logger
}

// NewReconciler creates a Reconciler. A nil filter selects DefaultFilter.
func NewReconciler(filter *Filter, logger *slog.Logger) *Reconciler {
	if filter == nil {
		filter = DefaultFilter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		filter: filter,
		logger: logger,
	}
}

// Refresh reconciles reg against enumerated and returns the controllable set.
//
// Sessions that pass the filter are queried for mute and volume. If any of
// them is audible, the registry becomes the full filtered enumeration and the
// audible ones are returned. If none is audible but the registry was not
// empty, this is treated as a transient gap: the registry is pruned to the
// identities still enumerated and that pruned set is returned, so the control
// target does not flicker to nothing when playback dips for a frame.
func (rc *Reconciler) Refresh(reg *Registry, enumerated []mixer.Session) Outcome {
	current := rc.collect(enumerated)

	active := make([]*AudioSession, 0, len(current))
	for _, s := range current {
		if s.Active() {
			active = append(active, s)
		}
	}

	before := reg.IDs()
	var out Outcome

	if len(active) == 0 && reg.Len() > 0 {
		kept := make([]*AudioSession, 0, len(current))
		for _, s := range current {
			if _, ok := reg.Lookup(s.ID); ok {
				kept = append(kept, s)
			}
		}
		reg.replace(kept)
		out.Controllable = kept
		out.Held = true
	} else {
		reg.replace(current)
		out.Controllable = active
	}

	out.Added, out.Evicted = diffIDs(before, reg.IDs())
	return out
}

// collect filters the enumeration and reads each session's state. A session
// whose state cannot be read is left out of this pass.
func (rc *Reconciler) collect(enumerated []mixer.Session) []*AudioSession {
	current := make([]*AudioSession, 0, len(enumerated))
	seen := make(map[ID]struct{}, len(enumerated))

	for _, s := range enumerated {
		if s.Control == nil || !rc.filter.Allowed(s.ProcessName) {
			continue
		}

		id := ID{Process: s.ProcessName, Key: s.Key}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		muted, err := s.Control.Mute()
		if err != nil {
			rc.logger.Debug("skipping session: mute query failed", "session", id, "error", err)
			continue
		}
		level, err := s.Control.Volume()
		if err != nil {
			rc.logger.Debug("skipping session: volume query failed", "session", id, "error", err)
			continue
		}

		current = append(current, &AudioSession{
			ID:          id,
			ProcessName: s.ProcessName,
			Volume:      level * 100,
			Muted:       muted,
			Control:     s.Control,
		})
	}

	return current
}

// diffIDs returns the identities in after but not before, and vice versa.
func diffIDs(before, after []ID) (added, evicted []ID) {
	inBefore := make(map[ID]struct{}, len(before))
	for _, id := range before {
		inBefore[id] = struct{}{}
	}
	inAfter := make(map[ID]struct{}, len(after))
	for _, id := range after {
		inAfter[id] = struct{}{}
		if _, ok := inBefore[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if _, ok := inAfter[id]; !ok {
			evicted = append(evicted, id)
		}
	}
	return added, evicted
}
