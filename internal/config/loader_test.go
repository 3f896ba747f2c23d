package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no overrides", t, func() {
		os.Unsetenv("COACH_CONFIG")
		os.Unsetenv("COACH_ADDR")

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults should apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9090")
				So(cfg.FeedbackIntervalSeconds, ShouldEqual, 5)
				So(cfg.HistorySize, ShouldEqual, 100)
				So(cfg.QuestionCount, ShouldEqual, 5)
				So(cfg.EvaluatorTimeoutSeconds, ShouldEqual, 10)
				So(cfg.AudioWeights.Confidence, ShouldEqual, 0.4)
				So(cfg.AudioWeights.Volume, ShouldEqual, 0.1)
			})
		})
	})

	Convey("Given environment overrides", t, func() {
		os.Setenv("COACH_ADDR", ":7070")
		os.Setenv("COACH_WORKER_COUNT", "3")
		defer os.Unsetenv("COACH_ADDR")
		defer os.Unsetenv("COACH_WORKER_COUNT")

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then env values should win over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.WorkerCount, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "coach.yaml")
		body := []byte("addr: \":6060\"\nhistory_size: 20\naudio_weights:\n  confidence: 0.5\n  tone: 0.2\n  pace: 0.2\n  volume: 0.1\n")
		So(os.WriteFile(path, body, 0o600), ShouldBeNil)
		os.Setenv("COACH_CONFIG", path)
		defer os.Unsetenv("COACH_CONFIG")

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then file values should apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.HistorySize, ShouldEqual, 20)
				So(cfg.AudioWeights.Confidence, ShouldEqual, 0.5)
			})
		})
	})

	Convey("Given an invalid override", t, func() {
		os.Setenv("COACH_HISTORY_SIZE", "0")
		defer os.Unsetenv("COACH_HISTORY_SIZE")

		Convey("When loading", func() {
			_, err := config.Load(context.Background())

			Convey("Then validation should reject it", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "history_size")
			})
		})
	})
}
