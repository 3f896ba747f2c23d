// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// AudioWeights holds the blend weights for the overall audio score.
// These are empirical tuning values; they are configuration, not invariants.
type AudioWeights struct {
	Confidence float64 `koanf:"confidence"`
	Tone       float64 `koanf:"tone"`
	Pace       float64 `koanf:"pace"`
	Volume     float64 `koanf:"volume"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FeedbackIntervalSeconds sets the minimum spacing between realtime
	// feedback pushes for one session.
	FeedbackIntervalSeconds int `koanf:"feedback_interval_seconds"`

	// HistorySize bounds the per-session rolling analysis history.
	HistorySize int `koanf:"history_size"`

	// WorkerCount sets the number of scoring workers (one queue shard each).
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds each scoring queue shard.
	QueueSize int `koanf:"queue_size"`

	// EvaluatorURL is the base URL of the external answer-evaluation service.
	// Empty means offline: every answer gets the neutral fallback payload.
	EvaluatorURL string `koanf:"evaluator_url"`

	// EvaluatorTimeoutSeconds bounds one evaluation round-trip.
	EvaluatorTimeoutSeconds int `koanf:"evaluator_timeout_seconds"`

	// QuestionCount is the number of questions selected per session.
	QuestionCount int `koanf:"question_count"`

	// DefaultDurationMinutes is used when a start request omits duration.
	DefaultDurationMinutes int `koanf:"default_duration_minutes"`

	// MaxSuggestions caps the improvement list in the final summary.
	MaxSuggestions int `koanf:"max_suggestions"`

	// AudioWeights blends the four audio sub-scores into the overall score.
	AudioWeights AudioWeights `koanf:"audio_weights"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9090",
		FeedbackIntervalSeconds: 5,
		HistorySize:             100,
		WorkerCount:             runtime.NumCPU() * 2,
		QueueSize:               1024,
		EvaluatorURL:            "",
		EvaluatorTimeoutSeconds: 10,
		QuestionCount:           5,
		DefaultDurationMinutes:  30,
		MaxSuggestions:          5,
		AudioWeights: AudioWeights{
			Confidence: 0.4,
			Tone:       0.3,
			Pace:       0.2,
			Volume:     0.1,
		},
	}
}
