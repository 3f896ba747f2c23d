package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if COACH_CONFIG is set
//  3. env (prefix COACH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("COACH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: COACH_ADDR, COACH_WORKER_COUNT, ...
	// Map env keys like COACH_WORKER_COUNT -> worker_count (flat keys).
	// Underscores are preserved to match koanf tags on the struct.
	envProvider := env.Provider("COACH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "coach_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.FeedbackIntervalSeconds <= 0:
		return fmt.Errorf("%w: feedback_interval_seconds must be positive", ErrInvalidConfig)
	case cfg.HistorySize <= 0:
		return fmt.Errorf("%w: history_size must be positive", ErrInvalidConfig)
	case cfg.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case cfg.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case cfg.QuestionCount <= 0:
		return fmt.Errorf("%w: question_count must be positive", ErrInvalidConfig)
	}
	w := cfg.AudioWeights
	if w.Confidence < 0 || w.Tone < 0 || w.Pace < 0 || w.Volume < 0 {
		return fmt.Errorf("%w: audio weights must be non-negative", ErrInvalidConfig)
	}
	if w.Confidence+w.Tone+w.Pace+w.Volume == 0 {
		return fmt.Errorf("%w: audio weights must not all be zero", ErrInvalidConfig)
	}
	return nil
}
