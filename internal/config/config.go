// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
)

// Default values used by New.
const (
	DefaultAddr                = ":9080"
	DefaultModelPath           = "models/marathon_time_predictor.json"
	DefaultPredictionCacheSize = 4096
	DefaultMaxUploadBytes      = 32 << 20
	DefaultTrainingWindowDays  = 28
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, mirrors log output into a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath points at the serialized regressor artifact.
	ModelPath string `koanf:"model_path"`

	// PredictionCacheSize bounds the prediction LRU. Zero disables it.
	PredictionCacheSize int `koanf:"prediction_cache_size"`

	// MaxUploadBytes caps the body of a training summary upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// TrainingWindowDays is the trailing window used for FIT summaries.
	TrainingWindowDays int `koanf:"training_window_days"`
}

// New creates a Config populated with defaults. The context is reserved for
// sources that may need it and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                DefaultAddr,
		ModelPath:           DefaultModelPath,
		PredictionCacheSize: DefaultPredictionCacheSize,
		MaxUploadBytes:      DefaultMaxUploadBytes,
		TrainingWindowDays:  DefaultTrainingWindowDays,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.ModelPath == "":
		return invalid("model_path must not be empty")
	case c.PredictionCacheSize < 0:
		return invalid("prediction_cache_size must not be negative")
	case c.MaxUploadBytes <= 0:
		return invalid("max_upload_bytes must be positive")
	case c.TrainingWindowDays <= 0:
		return invalid("training_window_days must be positive")
	}
	return nil
}
