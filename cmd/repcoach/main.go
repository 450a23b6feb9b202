package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/firestore"
	"github.com/ayusman/repcoach/internal/history"
	"github.com/ayusman/repcoach/internal/logging"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/rep"
	"github.com/ayusman/repcoach/internal/server"
	"github.com/ayusman/repcoach/internal/server/api"
	"github.com/ayusman/repcoach/internal/speech"
	"github.com/ayusman/repcoach/internal/store"
	"github.com/ayusman/repcoach/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.repcoach/config.yaml)")
	withTray := flag.Bool("tray", false, "show a system tray menu")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repcoach: %s\n", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(logging.SetupParams{
		LogFileName:   cfg.Logging.File,
		LogToStdout:   cfg.Logging.ToStdout,
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
	})
	defer logCloser.Close()

	if err := run(cfg, *withTray); err != nil {
		log.Errorf("repcoach: %s", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, withTray bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	plan, err := cfg.Plan()
	if err != nil {
		return fmt.Errorf("default workout: %w", err)
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Infof("store: %s", st.Path())

	m := metrics.NewManager("repcoach", "", prometheus.DefaultRegisterer)

	remote, userID := newRemote(ctx, cfg.Firestore)
	recorder := history.NewRecorder(st.WorkoutLogs(), remote, userID, m)

	hub := server.NewHub(m)
	speakers := speech.Multi{hub}
	if len(cfg.Voice.Command) > 0 {
		speakers = append(speakers, speech.NewCommandSpeaker(cfg.Voice.Command, cfg.Voice.TimeoutMs))
	}
	announcer := speech.NewAnnouncer(speakers, voiceSettings(cfg, st))

	a := app.New(app.Config{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
		}),
		Detector:      newDetector(cfg.Detector),
		Announcer:     announcer,
		Recorder:      recorder,
		Metrics:       m,
		MinVisibility: cfg.Detector.MinVisibility,
	})

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Infof("serving static files from %s", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:   staticDir,
		App:         a,
		DefaultPlan: plan,
		History:     recorder,
		Settings:    st.Settings(),
		Hub:         hub,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.Server.Addr) }()

	if withTray {
		go func() {
			if err := <-errCh; err != nil {
				log.Errorf("server: %s", err)
				cancel()
			}
		}()
		runTray(ctx, cancel, a, plan, dashboardURL(cfg.Server.Addr))
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server: %w", err)
			}
		}
	}

	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	// stop the workout first so it is saved and announced
	if err := a.Close(shutdownCtx); err != nil {
		log.Warnf("app: %s", err)
	}
	return srv.Shutdown(shutdownCtx)
}

// newRemote connects to Firestore when configured. Failures only disable
// cloud sync; logs are still written locally.
func newRemote(ctx context.Context, fc config.FirestoreConfig) (history.Remote, string) {
	if !fc.Enabled() {
		return nil, ""
	}

	userID := fc.UserID
	var ts oauth2.TokenSource
	if fc.UsesPassword() {
		auth := firestore.NewAuthenticator(firestore.AuthConfig{APIKey: fc.APIKey})
		acct, err := auth.SignIn(ctx, fc.Email, fc.Password)
		if err != nil {
			log.Warnf("firestore: sign in as %s failed, cloud sync disabled: %s", fc.Email, err)
			return nil, ""
		}
		if userID == "" {
			userID = acct.UserID
		}
		ts = auth.TokenSource(acct)
	} else {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: fc.IDToken, TokenType: "Bearer"})
	}

	log.WithField("project", fc.ProjectID).Infof("firestore: syncing logs for user %s", userID)
	return firestore.NewClient(firestore.Config{
		ProjectID: fc.ProjectID,
		UserID:    userID,
		BaseURL:   fc.BaseURL,
	}, ts), userID
}

// voiceSettings prefers preferences saved from the dashboard over the config file.
func voiceSettings(cfg *config.Config, st *store.Store) speech.Settings {
	var saved speech.Settings
	err := st.Settings().GetJSON(api.VoiceSettingsKey, &saved)
	switch {
	case err == nil:
		return saved
	case !errors.Is(err, store.ErrNotFound):
		log.Warnf("store: read voice settings: %s", err)
	}
	return cfg.VoiceSettings()
}

func newDetector(dc config.DetectorConfig) pose.Detector {
	if dc.Mock {
		log.Warn("using mock pose detector")
		return pose.NewMockDetector()
	}

	d, err := pose.NewMediaPipeDetector(pose.Config{
		Python:           dc.Python,
		Script:           dc.Script,
		ModelComplexity:  dc.ModelComplexity,
		MinDetectionConf: dc.MinDetectionConfidence,
		MinTrackingConf:  dc.MinTrackingConfidence,
	})
	if err != nil {
		log.Warnf("MediaPipe not available (%s), using mock detector", err)
		return pose.NewMockDetector()
	}
	log.Info("using MediaPipe pose detection")
	return d
}

func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, plan rep.Plan, url string) {
	var tr *tray.Tray
	tr = tray.New(tray.Controls{
		Toggle: func(start bool) error {
			if start {
				if a.Running() {
					return nil
				}
				_, err := a.StartWorkout(plan)
				return err
			}
			res, err := a.StopWorkout(ctx)
			if errors.Is(err, app.ErrNoWorkout) {
				return nil
			}
			if err == nil {
				tr.SetFeedback(res.Message)
			}
			return err
		},
		Open: func() {
			if err := tray.OpenBrowser(url); err != nil {
				log.Warnf("tray: %s", err)
			}
		},
		Quit: cancel,
	})
	a.OnResult(tr.Update)

	// workouts stopped from the dashboard never produce a final result
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				tr.Quit()
				return
			case <-ticker.C:
				if !a.Running() {
					tr.SetRunning(false)
				}
			}
		}
	}()
	tr.Run()
}

func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.repcoach/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(config.Dir(), "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
