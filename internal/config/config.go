// Package config loads repcoach settings from YAML, a .env file and REPCOACH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/repcoach/internal/rep"
	"github.com/ayusman/repcoach/internal/speech"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Camera    CameraConfig    `yaml:"camera"`
	Detector  DetectorConfig  `yaml:"detector"`
	Workout   WorkoutConfig   `yaml:"workout"`
	Voice     VoiceConfig     `yaml:"voice"`
	Store     StoreConfig     `yaml:"store"`
	Firestore FirestoreConfig `yaml:"firestore"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type CameraConfig struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	FPS      int `yaml:"fps"`
}

type DetectorConfig struct {
	Python                 string  `yaml:"python"`
	Script                 string  `yaml:"script"`
	ModelComplexity        int     `yaml:"model_complexity"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
	MinVisibility          float64 `yaml:"min_visibility"`
	// Mock replaces MediaPipe with a detector that never sees a body.
	Mock bool `yaml:"mock"`
}

type WorkoutConfig struct {
	Exercise   string `yaml:"exercise"`
	Side       string `yaml:"side"`
	TargetReps int    `yaml:"target_reps"`
	TargetSets int    `yaml:"target_sets"`
}

type VoiceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Lang    string `yaml:"lang"`
	Name    string `yaml:"name"`
	// Command is the local TTS program and arguments; empty disables local speech.
	Command   []string `yaml:"command"`
	TimeoutMs int      `yaml:"timeout_ms"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type FirestoreConfig struct {
	ProjectID string `yaml:"project_id"`
	APIKey    string `yaml:"api_key"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	UserID    string `yaml:"user_id"`
	IDToken   string `yaml:"id_token"`
	BaseURL   string `yaml:"base_url"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	ToStdout bool   `yaml:"to_stdout"`
	JSON     bool   `yaml:"json"`
}

// Enabled reports whether cloud sync is configured.
func (f FirestoreConfig) Enabled() bool {
	return f.ProjectID != ""
}

// UsesPassword reports whether the user signs in with email and password
// rather than a pre-issued ID token.
func (f FirestoreConfig) UsesPassword() bool {
	return f.IDToken == "" && f.Email != ""
}

// Dir is where repcoach keeps its database, config and pose service.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repcoach"
	}
	return filepath.Join(home, ".repcoach")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the configuration used for anything the file leaves out.
func Default() *Config {
	voice := speech.DefaultSettings()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Camera: CameraConfig{Width: 640, Height: 480, FPS: 15},
		Detector: DetectorConfig{
			ModelComplexity:        0,
			MinDetectionConfidence: 0.5,
			MinTrackingConfidence:  0.5,
			MinVisibility:          0.5,
		},
		Workout: WorkoutConfig{
			Exercise:   string(rep.BicepCurls),
			Side:       string(rep.Left),
			TargetReps: 10,
			TargetSets: 3,
		},
		Voice: VoiceConfig{
			Enabled:   voice.Enabled,
			Lang:      voice.Lang,
			Name:      voice.Voice,
			Command:   append([]string(nil), speech.DefaultCommand...),
			TimeoutMs: 10000,
		},
		Store:   StoreConfig{Path: filepath.Join(Dir(), "repcoach.db")},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// An empty path reads DefaultPath if it exists. Variables in a .env file in the
// working directory are loaded first and never override the real environment.
//
//	REPCOACH_SERVER_ADDR, REPCOACH_STATIC_DIR,
//	REPCOACH_CAMERA_DEVICE, REPCOACH_CAMERA_FPS,
//	REPCOACH_DETECTOR_PYTHON, REPCOACH_DETECTOR_SCRIPT, REPCOACH_DETECTOR_MOCK,
//	REPCOACH_VOICE_ENABLED, REPCOACH_VOICE_LANG, REPCOACH_VOICE_NAME,
//	REPCOACH_DB_PATH,
//	REPCOACH_FIRESTORE_PROJECT_ID, REPCOACH_FIRESTORE_USER_ID, REPCOACH_FIRESTORE_ID_TOKEN,
//	REPCOACH_FIREBASE_API_KEY, REPCOACH_FIREBASE_EMAIL, REPCOACH_FIREBASE_PASSWORD,
//	REPCOACH_LOG_LEVEL, REPCOACH_LOG_FILE
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}

	cfg := Default()

	optional := path == ""
	if optional {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("REPCOACH_SERVER_ADDR", &cfg.Server.Addr)
	setString("REPCOACH_STATIC_DIR", &cfg.Server.StaticDir)
	setInt("REPCOACH_CAMERA_DEVICE", &cfg.Camera.DeviceID)
	setInt("REPCOACH_CAMERA_FPS", &cfg.Camera.FPS)
	setString("REPCOACH_DETECTOR_PYTHON", &cfg.Detector.Python)
	setString("REPCOACH_DETECTOR_SCRIPT", &cfg.Detector.Script)
	setBool("REPCOACH_DETECTOR_MOCK", &cfg.Detector.Mock)
	setBool("REPCOACH_VOICE_ENABLED", &cfg.Voice.Enabled)
	setString("REPCOACH_VOICE_LANG", &cfg.Voice.Lang)
	setString("REPCOACH_VOICE_NAME", &cfg.Voice.Name)
	setString("REPCOACH_DB_PATH", &cfg.Store.Path)
	setString("REPCOACH_FIRESTORE_PROJECT_ID", &cfg.Firestore.ProjectID)
	setString("REPCOACH_FIRESTORE_USER_ID", &cfg.Firestore.UserID)
	setString("REPCOACH_FIRESTORE_ID_TOKEN", &cfg.Firestore.IDToken)
	setString("REPCOACH_FIREBASE_API_KEY", &cfg.Firestore.APIKey)
	setString("REPCOACH_FIREBASE_EMAIL", &cfg.Firestore.Email)
	setString("REPCOACH_FIREBASE_PASSWORD", &cfg.Firestore.Password)
	setString("REPCOACH_LOG_LEVEL", &cfg.Logging.Level)
	setString("REPCOACH_LOG_FILE", &cfg.Logging.File)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate rejects values the application cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Camera.FPS < 1 || c.Camera.FPS > 60 {
		return fmt.Errorf("camera.fps must be between 1 and 60, got %d", c.Camera.FPS)
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		return fmt.Errorf("camera.width and camera.height must not be negative")
	}
	if c.Detector.ModelComplexity < 0 || c.Detector.ModelComplexity > 2 {
		return fmt.Errorf("detector.model_complexity must be 0, 1 or 2, got %d", c.Detector.ModelComplexity)
	}
	for name, v := range map[string]float64{
		"detector.min_detection_confidence": c.Detector.MinDetectionConfidence,
		"detector.min_tracking_confidence":  c.Detector.MinTrackingConfidence,
		"detector.min_visibility":           c.Detector.MinVisibility,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", name, v)
		}
	}
	if _, err := c.Plan(); err != nil {
		return fmt.Errorf("workout: %w", err)
	}
	if _, ok := speech.LookupLanguage(c.Voice.Lang); !ok {
		return fmt.Errorf("voice.lang %q is not supported", c.Voice.Lang)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if f := c.Firestore; f.Enabled() {
		switch {
		case f.IDToken != "":
			if f.UserID == "" {
				return fmt.Errorf("firestore.user_id is required with firestore.id_token")
			}
		case f.Email != "":
			if f.APIKey == "" || f.Password == "" {
				return fmt.Errorf("firestore.api_key and firestore.password are required with firestore.email")
			}
		default:
			return fmt.Errorf("firestore.project_id needs either id_token or email sign-in")
		}
	}
	return nil
}

// Plan returns the default workout plan.
func (c *Config) Plan() (rep.Plan, error) {
	exercise, err := rep.ParseExercise(c.Workout.Exercise)
	if err != nil {
		return rep.Plan{}, err
	}
	side, err := rep.ParseSide(c.Workout.Side)
	if err != nil {
		return rep.Plan{}, err
	}
	plan := rep.Plan{
		Exercise:   exercise,
		Side:       side,
		TargetReps: c.Workout.TargetReps,
		TargetSets: c.Workout.TargetSets,
	}
	if err := plan.Validate(); err != nil {
		return rep.Plan{}, err
	}
	return plan, nil
}

// VoiceSettings returns the configured voice preferences.
func (c *Config) VoiceSettings() speech.Settings {
	return speech.Settings{Enabled: c.Voice.Enabled, Lang: c.Voice.Lang, Voice: c.Voice.Name}
}
