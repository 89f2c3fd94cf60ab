package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/pinchmix/internal/capture"
	"github.com/ayusman/pinchmix/internal/detector"
	"github.com/ayusman/pinchmix/internal/gesture"
	"github.com/ayusman/pinchmix/internal/overlay"
	"github.com/ayusman/pinchmix/internal/session"
	"github.com/ayusman/pinchmix/internal/volume"
)

// State is the loop phase a frame ended in.
type State string

const (
	StateCapturing   State = "capturing"
	StateDetecting   State = "detecting"
	StateGating      State = "gating"    // hand seen, control not engaged
	StateActuating   State = "actuating" // volume written this frame
	StateIdleDisplay State = "idle"      // no hand, listing sessions
)

// SessionState is one session as reported in a Snapshot.
type SessionState struct {
	Process string  `json:"process"`
	Key     string  `json:"key"`
	Volume  float64 `json:"volume"`
	Muted   bool    `json:"muted"`
	Applied bool    `json:"applied"`
	Error   string  `json:"error,omitempty"`
}

// Snapshot describes the outcome of one frame.
type Snapshot struct {
	Frame       int64                  `json:"frame"`
	State       State                  `json:"state"`
	Enabled     bool                   `json:"enabled"`
	HandVisible bool                   `json:"handVisible"`
	Pose        gesture.PoseAssessment `json:"pose"`
	Closedness  *gesture.Closedness    `json:"closedness,omitempty"`
	Held        bool                   `json:"held"`
	Sessions    []SessionState         `json:"sessions"`
	Time        time.Time              `json:"time"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Sessions = append([]SessionState(nil), s.Sessions...)
	if s.Closedness != nil {
		c := *s.Closedness
		out.Closedness = &c
	}
	return out
}

// Summary is a one-line status for the tray.
func (s Snapshot) Summary() string {
	switch s.State {
	case StateActuating:
		return fmt.Sprintf("Controlling %d app(s) at %.0f%% closed", len(s.Sessions), s.Closedness.PercentClosed)
	case StateGating:
		if !s.Enabled {
			return "Paused"
		}
		return "Hand visible, pose inactive"
	case StateIdleDisplay:
		return fmt.Sprintf("%d app(s) playing audio", len(s.Sessions))
	default:
		return string(s.State)
	}
}

// Run opens the camera and processes frames until the display reports ESC,
// ctx is cancelled, or capture fails. Capture failures are returned; a clean
// stop returns nil.
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer a.camera.Close()

	a.logger.Info("frame loop started",
		"width", a.config.Width,
		"height", a.config.Height,
		"enabled", a.IsEnabled(),
	)

	for {
		stop, err := a.step(ctx)
		if err != nil {
			return err
		}
		if stop {
			a.logger.Info("frame loop stopped", "frames", a.Frames())
			return nil
		}
	}
}

// step processes one frame. Cancellation is checked once, after rendering,
// so a frame in flight is always shown.
func (a *App) step(ctx context.Context) (bool, error) {
	raw, err := a.camera.ReadFrame()
	if err != nil {
		return false, fmt.Errorf("read frame: %w", err)
	}
	frame := capture.Resize(raw, a.config.Width, a.config.Height)
	raw.Close()
	defer frame.Close()

	n := a.frames.Add(1)
	snap := Snapshot{
		Frame:   n,
		State:   StateDetecting,
		Enabled: a.IsEnabled(),
		Time:    time.Now(),
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn("hand detection failed", "frame", n, "error", err)
		hands = nil
	}
	hand := detector.First(hands)

	a.refreshSessions(ctx)
	snap.Held = a.held

	view := overlay.FrameView{
		Width:  a.config.Width,
		Height: a.config.Height,
		Hand:   hand,
		Paused: !snap.Enabled,
	}

	if hand == nil {
		snap.State = StateIdleDisplay
		view.Sessions, snap.Sessions = a.describe(nil)
	} else {
		snap.State = StateGating
		snap.HandVisible = true

		view.Pose = gesture.AssessPose(hand)
		snap.Pose = view.Pose

		c, ok := gesture.ComputeClosedness(hand, a.config.Width, a.config.Height, a.config.MaxRelativeDistance)
		if ok {
			view.Closedness = &c
			snap.Closedness = &c
		}

		var results []volume.Result
		if view.Pose.Valid && ok && snap.Enabled {
			snap.State = StateActuating
			results = a.actuate(c.PercentClosed)
		}
		view.Sessions, snap.Sessions = a.describe(results)
	}

	overlay.Draw(frame, overlay.Build(view))

	a.setSnapshot(snap)
	if a.publisher != nil {
		a.publisher.PublishFrame(frame)
		a.publisher.PublishState(snap)
	}

	stop, err := a.display.Show(frame)
	if err != nil {
		return false, fmt.Errorf("show frame: %w", err)
	}
	if stop {
		return true, nil
	}

	select {
	case <-ctx.Done():
		return true, nil
	default:
		return false, nil
	}
}

// describe renders the controllable set as overlay rows and snapshot entries.
// With results, rows reflect this frame's writes; without, they are read-only.
func (a *App) describe(results []volume.Result) ([]overlay.SessionLine, []SessionState) {
	if results != nil {
		lines := make([]overlay.SessionLine, 0, len(results))
		states := make([]SessionState, 0, len(results))
		for _, r := range results {
			lines = append(lines, overlay.SessionLine{
				Name:    r.Session.ProcessName,
				Volume:  r.Session.Volume,
				Applied: r.Applied(),
				Failed:  !r.Applied(),
			})
			states = append(states, sessionState(r.Session, r.Applied(), r.Err))
		}
		return lines, states
	}

	lines := make([]overlay.SessionLine, 0, len(a.controllable))
	states := make([]SessionState, 0, len(a.controllable))
	for _, s := range a.controllable {
		lines = append(lines, overlay.SessionLine{
			Name:   s.ProcessName,
			Volume: s.Volume,
		})
		states = append(states, sessionState(s, false, nil))
	}
	return lines, states
}

func sessionState(s *session.AudioSession, applied bool, err error) SessionState {
	st := SessionState{
		Process: s.ID.Process,
		Key:     s.ID.Key,
		Volume:  s.Volume,
		Muted:   s.Muted,
		Applied: applied,
	}
	if err != nil {
		st.Error = err.Error()
	}
	return st
}
