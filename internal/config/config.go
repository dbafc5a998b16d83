package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var policyYAML []byte

type Config struct {
	Vision     VisionConfig
	Gallery    GalleryConfig
	Training   TrainingConfig
	Attendance AttendanceConfig
	Session    SessionConfig
	Database   DatabaseConfig
	Policy     PolicyConfig
}

type VisionConfig struct {
	DetectorURL string // face detector service (defaults to http://localhost:8500)
	EmbedderURL string // embedding service (defaults to http://localhost:8501)
}

type GalleryConfig struct {
	Backend string // "file" (default) or "postgres"
	Path    string // gallery blob path for the file backend
	Dim     int    // embedding dimension
}

type TrainingConfig struct {
	RawDir     string  // raw training photos, one directory per student code
	CroppedDir string  // cropped faces mirror
	MinPhotos  int     // advisory "ready to recognize" photo count
	CropMargin float64 // margin added around the detected box, fraction of box width
	InputSize  int     // embedder input size in pixels (square)
}

type AttendanceConfig struct {
	Threshold float64 // minimum cosine similarity to accept an identity
	Grace     time.Duration
	Source    string // source tag written to attendance rows
}

type SessionConfig struct {
	PollInterval time.Duration // active-session refresh cadence
	Window       time.Duration // how long after start a session stays active
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// PolicyConfig mirrors the embedded policy.yaml defaults.
type PolicyConfig struct {
	Recognition struct {
		Threshold    float64 `yaml:"threshold"`
		EmbeddingDim int     `yaml:"embedding_dim"`
		TopMatches   int     `yaml:"top_matches"`
	} `yaml:"recognition"`
	Training struct {
		MinPhotos  int     `yaml:"min_photos"`
		CropMargin float64 `yaml:"crop_margin"`
		InputSize  int     `yaml:"input_size"`
	} `yaml:"training"`
	Attendance struct {
		GraceMinutes int    `yaml:"grace_minutes"`
		Source       string `yaml:"source"`
	} `yaml:"attendance"`
	Session struct {
		PollSeconds   int `yaml:"poll_seconds"`
		WindowMinutes int `yaml:"window_minutes"`
	} `yaml:"session"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var policy PolicyConfig
	if err := yaml.Unmarshal(policyYAML, &policy); err != nil {
		// Embedded file, only reachable through a build mistake.
		panic("failed to unmarshal embedded policy.yaml: " + err.Error())
	}

	return &Config{
		Vision: VisionConfig{
			DetectorURL: envString("DETECTOR_URL", "http://localhost:8500"),
			EmbedderURL: envString("EMBEDDER_URL", "http://localhost:8501"),
		},
		Gallery: GalleryConfig{
			Backend: envString("GALLERY_BACKEND", "file"),
			Path:    envString("GALLERY_PATH", "models/face_gallery.json"),
			Dim:     envInt("EMBEDDING_DIM", policy.Recognition.EmbeddingDim),
		},
		Training: TrainingConfig{
			RawDir:     envString("TRAINING_RAW_DIR", "dataset_raw"),
			CroppedDir: envString("TRAINING_CROPPED_DIR", "dataset_cropped"),
			MinPhotos:  envInt("TRAINING_MIN_PHOTOS", policy.Training.MinPhotos),
			CropMargin: envFloat("TRAINING_CROP_MARGIN", policy.Training.CropMargin),
			InputSize:  envInt("TRAINING_INPUT_SIZE", policy.Training.InputSize),
		},
		Attendance: AttendanceConfig{
			Threshold: envFloat("RECOGNITION_THRESHOLD", policy.Recognition.Threshold),
			Grace:     time.Duration(envInt("ATTENDANCE_GRACE_MINUTES", policy.Attendance.GraceMinutes)) * time.Minute,
			Source:    envString("ATTENDANCE_SOURCE", policy.Attendance.Source),
		},
		Session: SessionConfig{
			PollInterval: time.Duration(envInt("SESSION_POLL_SECONDS", policy.Session.PollSeconds)) * time.Second,
			Window:       time.Duration(envInt("SESSION_WINDOW_MINUTES", policy.Session.WindowMinutes)) * time.Minute,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Policy: policy,
	}
}
