package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ayusman/pinchmix/internal/app"
	"github.com/ayusman/pinchmix/internal/capture"
	"github.com/ayusman/pinchmix/internal/config"
	"github.com/ayusman/pinchmix/internal/detector"
	"github.com/ayusman/pinchmix/internal/display"
	"github.com/ayusman/pinchmix/internal/mixer"
	"github.com/ayusman/pinchmix/internal/server"
	"github.com/ayusman/pinchmix/internal/session"
	"github.com/ayusman/pinchmix/internal/store"
	"github.com/ayusman/pinchmix/internal/tray"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pinchmix: %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides are applied over file and environment config, but only for
// flags given on the command line.
type flagOverrides struct {
	camera   *int
	mixer    *string
	headless *bool
	server   *bool
	addr     *string
	journal  *bool
	tray     *bool
	logLevel *string
}

func run() error {
	var (
		configPath  = flag.String("config", "", "Path to a YAML config file")
		showVersion = flag.Bool("version", false, "Print version and exit")

		overrides = flagOverrides{
			camera:   flag.Int("camera", 0, "Camera device index"),
			mixer:    flag.String("mixer", config.MixerPulse, "Mixer backend: pulse|mock"),
			headless: flag.Bool("headless", false, "Run without a preview window"),
			server:   flag.Bool("server", false, "Serve health, MJPEG preview and state feed"),
			addr:     flag.String("addr", "127.0.0.1:8080", "Listen address for -server"),
			journal:  flag.Bool("journal", false, "Record sessions and control errors to SQLite"),
			tray:     flag.Bool("tray", false, "Show a system tray menu"),
			logLevel: flag.String("log-level", "info", "Log level: error, warn, info, debug"),
		}
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("pinchmix v%s\n", version)
		return nil
	}

	cfg, err := loadConfig(*configPath, overrides)
	if err != nil {
		return err
	}

	level, _ := config.ParseLogLevel(cfg.Logging.Level)
	logger := setupLogger(level)
	slog.SetDefault(logger)

	sigCtx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	// Cancelled when the loop ends for any reason so the server and tray follow.
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	mix := newMixer(cfg, logger)
	defer mix.Close()

	det := newDetector(cfg, logger)
	defer det.Close()

	disp := newDisplay(cfg)
	defer disp.Close()

	var (
		st      *store.Store
		journal *store.Journal
	)
	if cfg.Journal.Enabled {
		st, err = store.New(config.ExpandPath(cfg.Journal.Path))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer st.Close()

		journal, err = st.StartRun(cfg)
		if err != nil {
			return fmt.Errorf("start run: %w", err)
		}
		logger.Info("journal run started", "path", st.Path(), "run", journal.RunID())
	}

	var pubs publishers

	var srv *server.Server
	if cfg.Server.Enabled {
		webDir := findWebDir()
		if webDir != "" {
			logger.Info("serving static files", "dir", webDir)
		}
		srv = server.New(server.Config{
			StaticDir: webDir,
			Store:     st,
			Logger:    logger,
		})
		pubs = append(pubs, srv)
	}

	var tr *tray.Tray
	if cfg.Tray.Enabled {
		tr = tray.New()
		pubs = append(pubs, trayStatus{tray: tr})
	}

	camera := capture.NewCamera(cfg.Camera.Device)
	camera.SetFPS(cfg.Camera.FPS)

	deps := app.Deps{
		Camera:   camera,
		Detector: det,
		Mixer:    mix,
		Display:  disp,
		Logger:   logger,
	}
	if len(pubs) > 0 {
		deps.Publisher = pubs
	}
	if journal != nil {
		deps.Journal = journal
	}

	a, err := app.New(app.Config{
		Width:               cfg.Camera.Width,
		Height:              cfg.Camera.Height,
		MaxRelativeDistance: cfg.Gesture.MaxRelativeDistance,
		Filter:              session.NewFilter(cfg.Sessions.Allow, cfg.Sessions.Deny),
	}, deps)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		// The preview window's event pump is bound to the thread that created it.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		return a.Run(gctx)
	})

	if srv != nil {
		g.Go(func() error {
			return srv.Serve(gctx, cfg.Server.Addr)
		})
	}

	if tr != nil {
		tr.OnToggle(a.SetEnabled)
		tr.OnQuit(cancel)
		go func() {
			<-gctx.Done()
			tr.Quit()
		}()
		tr.Run()
	}

	err = g.Wait()

	if journal != nil {
		if ferr := journal.Finish(int(a.Frames())); ferr != nil {
			logger.Warn("failed to finish journal run", "error", ferr)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete", "frames", a.Frames())
	return nil
}

// loadConfig layers defaults, the optional file, the environment and the
// command line flags, then validates the result.
func loadConfig(path string, overrides flagOverrides) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return config.Config{}, err
		}
	}

	if err := config.ParseEnv(&cfg); err != nil {
		return config.Config{}, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "camera":
			cfg.Camera.Device = *overrides.camera
		case "mixer":
			cfg.Mixer.Backend = *overrides.mixer
		case "headless":
			if *overrides.headless {
				cfg.Display.Mode = config.DisplayHeadless
			} else {
				cfg.Display.Mode = config.DisplayWindow
			}
		case "server":
			cfg.Server.Enabled = *overrides.server
		case "addr":
			cfg.Server.Addr = *overrides.addr
		case "journal":
			cfg.Journal.Enabled = *overrides.journal
		case "tray":
			cfg.Tray.Enabled = *overrides.tray
		case "log-level":
			cfg.Logging.Level = *overrides.logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newMixer(cfg config.Config, logger *slog.Logger) mixer.Mixer {
	if cfg.Mixer.Backend == config.MixerMock {
		logger.Info("using demo mixer")
		return mixer.NewDemoMixer()
	}
	timeout := time.Duration(cfg.Mixer.TimeoutMS) * time.Millisecond
	logger.Info("using pulse mixer", "binary", cfg.Mixer.Binary, "timeout", timeout)
	return mixer.NewPulseMixer(cfg.Mixer.Binary, timeout)
}

// newDetector prefers MediaPipe and falls back to a detector that never sees
// a hand, so the session list still renders.
func newDetector(cfg config.Config, logger *slog.Logger) detector.Detector {
	dc := detector.DefaultConfig()
	dc.MinConfidence = cfg.Detector.MinDetectionConfidence
	dc.MinTrackingConf = cfg.Detector.MinTrackingConfidence
	dc.StaticImageMode = cfg.Detector.StaticImageMode
	dc.Python = cfg.Detector.Python
	dc.Script = cfg.Detector.Script

	mp, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		logger.Warn("MediaPipe not available, using mock detector", "error", err)
		return detector.NewMockDetector()
	}
	logger.Info("using MediaPipe hand detection")
	return mp
}

func newDisplay(cfg config.Config) display.Display {
	if cfg.Display.Mode == config.DisplayHeadless {
		return display.NewHeadless()
	}
	return display.NewWindow(cfg.Display.Title)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.pinchmix/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeWebDir := config.ExpandPath("~/.pinchmix/web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
