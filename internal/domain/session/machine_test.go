package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/question"
)

// fakeClock advances only when told to, making time accounting exact.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixedEvaluator struct {
	score       float64
	suggestions []string
	err         error
	calls       int
}

func (e *fixedEvaluator) Evaluate(_ context.Context, _, _ string, _ EvaluationContext) (model.Evaluation, error) {
	e.calls++
	if e.err != nil {
		return model.Evaluation{}, e.err
	}
	return model.Evaluation{
		OverallScore: e.score,
		Suggestions:  e.suggestions,
	}, nil
}

func testQuestions(n int) []question.Question {
	qs := make([]question.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, question.Question{
			ID:      fmt.Sprintf("q-%d", i),
			Content: fmt.Sprintf("question %d", i),
			Type:    "technical",
		})
	}
	return qs
}

func TestMachineLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh session", t, func() {
		clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		eval := &fixedEvaluator{score: 80, suggestions: []string{"add detail"}}
		m := NewMachine("sess-1", testQuestions(3),
			WithUser("user-1"),
			WithSessionType("technical"),
			WithDuration(30*time.Minute),
			WithEvaluator(eval),
			WithClock(clock.Now),
		)

		Convey("Then it starts active at the first question", func() {
			So(m.State(), ShouldEqual, StateActive)

			q, ok := m.CurrentQuestion()
			So(ok, ShouldBeTrue)
			So(q.ID, ShouldEqual, "q-1")
		})

		Convey("When an answer is submitted", func() {
			res, err := m.SubmitAnswer(ctx, "q-1", "my answer", 45)

			So(err, ShouldBeNil)
			So(res.Submitted, ShouldBeTrue)
			So(res.NextQuestionID, ShouldEqual, "q-2")
			So(res.SessionCompleted, ShouldBeFalse)

			Convey("Then quick feedback echoes the evaluation", func() {
				So(res.QuickFeedback, ShouldNotBeNil)
				So(res.QuickFeedback.Score, ShouldEqual, 80)
				So(res.QuickFeedback.QuickTip, ShouldEqual, "add detail")
			})

			Convey("Then the answer record is stored", func() {
				answers := m.Answers()
				So(answers, ShouldHaveLength, 1)
				So(answers[0].QuestionID, ShouldEqual, "q-1")
				So(answers[0].ResponseTime, ShouldEqual, 45)
			})
		})

		Convey("When every question is answered", func() {
			var last SubmitResult
			for _, q := range m.Questions() {
				var err error
				last, err = m.SubmitAnswer(ctx, q.ID, "answer", 60)
				So(err, ShouldBeNil)
			}

			Convey("Then the session auto-completes", func() {
				So(last.SessionCompleted, ShouldBeTrue)
				So(m.State(), ShouldEqual, StateCompleted)

				score, done := m.FinalScore()
				So(done, ShouldBeTrue)
				So(score, ShouldAlmostEqual, 80, 1e-9)
			})

			Convey("Then further submissions are rejected", func() {
				_, err := m.SubmitAnswer(ctx, "q-1", "late", 10)
				So(errors.Is(err, ErrTerminal), ShouldBeTrue)
			})
		})

		Convey("When the same question is submitted repeatedly", func() {
			_, err := m.SubmitAnswer(ctx, "q-1", "first take", 30)
			So(err, ShouldBeNil)

			for i := 0; i < 2; i++ {
				_, err = m.SubmitAnswer(ctx, "q-1", "second take", 30)
				So(errors.Is(err, ErrAlreadyAnswered), ShouldBeTrue)
			}

			Convey("Then only one record is kept and the session stays open", func() {
				So(m.Answers(), ShouldHaveLength, 1)
				So(m.State(), ShouldEqual, StateActive)

				q, ok := m.CurrentQuestion()
				So(ok, ShouldBeTrue)
				So(q.ID, ShouldEqual, "q-2")
			})

			Convey("Then answering the remaining questions completes normally", func() {
				_, err := m.SubmitAnswer(ctx, "q-2", "answer", 30)
				So(err, ShouldBeNil)
				res, err := m.SubmitAnswer(ctx, "q-3", "answer", 30)
				So(err, ShouldBeNil)

				So(res.SessionCompleted, ShouldBeTrue)
				So(m.Answers(), ShouldHaveLength, 3)

				score, done := m.FinalScore()
				So(done, ShouldBeTrue)
				So(score, ShouldAlmostEqual, 80, 1e-9)
			})
		})

		Convey("When answering a question outside the session", func() {
			_, err := m.SubmitAnswer(ctx, "q-99", "answer", 10)

			So(errors.Is(err, ErrUnknownQuestion), ShouldBeTrue)
			So(m.Answers(), ShouldBeEmpty)
		})

		Convey("When the evaluator fails", func() {
			m := NewMachine("sess-f", testQuestions(2),
				WithEvaluator(&fixedEvaluator{err: errors.New("upstream down")}),
				WithClock(clock.Now),
			)
			res, err := m.SubmitAnswer(ctx, "q-1", "answer", 30)

			Convey("Then a neutral evaluation stands in", func() {
				So(err, ShouldBeNil)
				So(res.QuickFeedback.Score, ShouldEqual, 70)
			})
		})
	})
}

func TestMachinePauseResume(t *testing.T) {
	ctx := context.Background()

	Convey("Given an active session with a controllable clock", t, func() {
		clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		m := NewMachine("sess-2", testQuestions(4),
			WithDuration(10*time.Minute),
			WithClock(clock.Now),
		)

		Convey("When paused for two minutes and resumed", func() {
			clock.Advance(1 * time.Minute)
			So(m.Pause(), ShouldBeNil)
			clock.Advance(2 * time.Minute)
			So(m.Resume(), ShouldBeNil)
			clock.Advance(1 * time.Minute)

			Convey("Then the pause is excluded from elapsed time", func() {
				p := m.Progress()
				So(p.ElapsedTime, ShouldEqual, 120)
				So(p.RemainingTime, ShouldEqual, 480)
			})
		})

		Convey("When paused, elapsed time stops advancing", func() {
			clock.Advance(1 * time.Minute)
			So(m.Pause(), ShouldBeNil)
			clock.Advance(5 * time.Minute)

			p := m.Progress()
			So(p.ElapsedTime, ShouldEqual, 60)
		})

		Convey("When pausing then immediately resuming", func() {
			So(m.Pause(), ShouldBeNil)
			So(m.Resume(), ShouldBeNil)
			clock.Advance(30 * time.Second)

			So(m.Progress().ElapsedTime, ShouldEqual, 30)
		})

		Convey("Then invalid transitions are rejected without state change", func() {
			So(errors.Is(m.Resume(), ErrNotPaused), ShouldBeTrue)

			So(m.Pause(), ShouldBeNil)
			So(errors.Is(m.Pause(), ErrNotActive), ShouldBeTrue)
			So(m.State(), ShouldEqual, StatePaused)

			_, err := m.SubmitAnswer(ctx, "q-1", "answer", 10)
			So(errors.Is(err, ErrNotActive), ShouldBeTrue)
		})

		Convey("When the clock outruns the configured duration", func() {
			clock.Advance(15 * time.Minute)

			Convey("Then elapsed plus remaining equals the duration", func() {
				p := m.Progress()
				So(p.RemainingTime, ShouldEqual, 0)
				So(p.ElapsedTime, ShouldEqual, 900)
				So(p.ElapsedTime, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})

		Convey("When completing from paused", func() {
			So(m.Pause(), ShouldBeNil)
			So(m.Complete(nil), ShouldBeNil)

			So(m.State(), ShouldEqual, StateCompleted)
			score, _ := m.FinalScore()
			So(score, ShouldEqual, 0)
		})

		Convey("When completing with an explicit final score", func() {
			final := 92.5
			So(m.Complete(&final), ShouldBeNil)

			score, done := m.FinalScore()
			So(done, ShouldBeTrue)
			So(score, ShouldEqual, 92.5)
		})

		Convey("When cancelling", func() {
			So(m.Cancel(), ShouldBeNil)

			So(m.State(), ShouldEqual, StateCancelled)
			So(errors.Is(m.Complete(nil), ErrTerminal), ShouldBeTrue)
			So(errors.Is(m.Cancel(), ErrTerminal), ShouldBeTrue)
		})
	})
}

func TestMachineProgressAndRecommendations(t *testing.T) {
	ctx := context.Background()

	Convey("Given a four-question session", t, func() {
		clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		eval := &fixedEvaluator{score: 60}
		m := NewMachine("sess-3", testQuestions(4),
			WithSessionType("technical"),
			WithEvaluator(eval),
			WithClock(clock.Now),
		)

		Convey("Then progress starts at question one, zero percent", func() {
			p := m.Progress()
			So(p.CurrentQuestion, ShouldEqual, 1)
			So(p.TotalQuestions, ShouldEqual, 4)
			So(p.CompletionPercentage, ShouldEqual, 0)
		})

		Convey("When half the questions are answered", func() {
			_, err := m.SubmitAnswer(ctx, "q-1", "a", 200)
			So(err, ShouldBeNil)
			_, err = m.SubmitAnswer(ctx, "q-2", "a", 200)
			So(err, ShouldBeNil)

			p := m.Progress()
			So(p.CurrentQuestion, ShouldEqual, 3)
			So(p.CompletionPercentage, ShouldEqual, 50)

			Convey("Then recommendations reflect score, time and type", func() {
				recs := m.Recommendations()
				So(recs, ShouldHaveLength, 3)
				So(recs[0], ShouldContainSubstring, "STAR")
				So(recs[1], ShouldContainSubstring, "concise")
				So(recs[2], ShouldContainSubstring, "technical")
			})
		})

		Convey("When no answers were recorded", func() {
			recs := m.Recommendations()
			So(recs, ShouldHaveLength, 1)
			So(recs[0], ShouldContainSubstring, "more practice sessions")
		})
	})
}
