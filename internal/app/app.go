// Package app runs the frame loop that turns a pinch into per-application
// volume: capture, detect, reconcile sessions, gate on pose, actuate, render.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ayusman/pinchmix/internal/capture"
	"github.com/ayusman/pinchmix/internal/detector"
	"github.com/ayusman/pinchmix/internal/display"
	"github.com/ayusman/pinchmix/internal/gesture"
	"github.com/ayusman/pinchmix/internal/mixer"
	"github.com/ayusman/pinchmix/internal/session"
	"github.com/ayusman/pinchmix/internal/volume"
	"gocv.io/x/gocv"
)

// Publisher receives every rendered frame and its snapshot. Implementations
// must not block the loop and must not keep the frame after returning.
type Publisher interface {
	PublishFrame(frame *gocv.Mat)
	PublishState(state any)
}

// Journal records diagnostics. It is write-only from the loop's point of view.
type Journal interface {
	SessionObserved(process, key string, volume float64) error
	SessionEvicted(process, key string) error
	ControlFailed(process, key, op string, cause error) error
}

// Config holds the loop parameters.
type Config struct {
	Width  int
	Height int

	// MaxRelativeDistance is the tip gap, in hand sizes, treated as fully open.
	MaxRelativeDistance float64

	// Filter selects the controllable processes; nil means session.DefaultFilter.
	Filter *session.Filter
}

// DefaultConfig returns the 640x480 working resolution and the default filter.
func DefaultConfig() Config {
	return Config{
		Width:               capture.DefaultWidth,
		Height:              capture.DefaultHeight,
		MaxRelativeDistance: gesture.MaxRelativeDistance,
	}
}

// Deps are the collaborators of the loop. Publisher and Journal are optional.
type Deps struct {
	Camera    capture.Camera
	Detector  detector.Detector
	Mixer     mixer.Mixer
	Display   display.Display
	Publisher Publisher
	Journal   Journal
	Logger    *slog.Logger
}

// App is the frame loop orchestrator.
type App struct {
	config Config

	camera    capture.Camera
	detector  detector.Detector
	mixer     mixer.Mixer
	display   display.Display
	publisher Publisher
	journal   Journal
	logger    *slog.Logger

	reconciler *session.Reconciler
	mapper     *volume.Mapper

	// Owned by the loop goroutine.
	registry     *session.Registry
	controllable []*session.AudioSession
	held         bool

	enabled atomic.Bool
	frames  atomic.Int64

	mu   sync.RWMutex
	last Snapshot
}

// New creates an App. Camera, Detector, Mixer and Display are required.
func New(config Config, deps Deps) (*App, error) {
	switch {
	case deps.Camera == nil:
		return nil, errors.New("app: camera is required")
	case deps.Detector == nil:
		return nil, errors.New("app: detector is required")
	case deps.Mixer == nil:
		return nil, errors.New("app: mixer is required")
	case deps.Display == nil:
		return nil, errors.New("app: display is required")
	}

	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = capture.DefaultWidth, capture.DefaultHeight
	}
	if config.MaxRelativeDistance <= 0 {
		config.MaxRelativeDistance = gesture.MaxRelativeDistance
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		config:     config,
		camera:     deps.Camera,
		detector:   deps.Detector,
		mixer:      deps.Mixer,
		display:    deps.Display,
		publisher:  deps.Publisher,
		journal:    deps.Journal,
		logger:     logger,
		reconciler: session.NewReconciler(config.Filter, logger),
		mapper:     volume.NewMapper(),
		registry:   session.NewRegistry(),
	}
	a.enabled.Store(true)

	return a, nil
}

// SetEnabled pauses or resumes actuation. While paused sessions are still
// tracked and shown, but no volume is written.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.logger.Info("volume control toggled", "enabled", enabled)
	}
}

// IsEnabled returns whether actuation is enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Frames returns the number of frames processed so far.
func (a *App) Frames() int64 {
	return a.frames.Load()
}

// Snapshot returns the most recent frame snapshot.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last.clone()
}

func (a *App) setSnapshot(s Snapshot) {
	a.mu.Lock()
	a.last = s
	a.mu.Unlock()
}

// refreshSessions enumerates the mixer and reconciles the registry. On an
// enumeration failure the previous controllable set is kept for this frame.
func (a *App) refreshSessions(ctx context.Context) {
	enumerated, err := a.mixer.Sessions(ctx)
	if err != nil {
		a.logger.Warn("session enumeration failed, keeping previous sessions", "error", err)
		return
	}

	out := a.reconciler.Refresh(a.registry, enumerated)
	a.controllable = out.Controllable

	if out.Held != a.held {
		a.logger.Debug("silent gap", "held", out.Held, "sessions", len(out.Controllable))
		a.held = out.Held
	}

	for _, id := range out.Added {
		level := 0.0
		if s, ok := a.registry.Lookup(id); ok {
			level = s.Volume
		}
		a.logger.Info("session observed", "session", id, "volume", level)
		a.journalErr(a.journalObserved(id, level))
	}
	for _, id := range out.Evicted {
		a.logger.Info("session evicted", "session", id)
		a.journalErr(a.journalEvicted(id))
	}
}

// actuate writes the level for percent to every controllable session and
// returns the per-session outcome. Failures are logged and journaled.
func (a *App) actuate(percent float64) []volume.Result {
	results := a.mapper.Apply(percent, a.controllable)

	for _, r := range results {
		if r.Err == nil {
			continue
		}

		op := "set volume"
		var ctlErr *mixer.ControlError
		if errors.As(r.Err, &ctlErr) {
			op = ctlErr.Op
		}

		a.logger.Warn("volume control failed",
			"session", r.Session.ID,
			"op", op,
			"stale", errors.Is(r.Err, mixer.ErrStaleControl),
			"error", r.Err,
		)
		if a.journal != nil {
			a.journalErr(a.journal.ControlFailed(r.Session.ID.Process, r.Session.ID.Key, op, r.Err))
		}
	}

	return results
}

func (a *App) journalObserved(id session.ID, level float64) error {
	if a.journal == nil {
		return nil
	}
	return a.journal.SessionObserved(id.Process, id.Key, level)
}

func (a *App) journalEvicted(id session.ID) error {
	if a.journal == nil {
		return nil
	}
	return a.journal.SessionEvicted(id.Process, id.Key)
}

func (a *App) journalErr(err error) {
	if err != nil {
		a.logger.Debug("journal write failed", "error", err)
	}
}
