// Package session implements the interview session lifecycle: the
// per-session state machine and the process-wide registry that owns
// every live session's machine and analysis history.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/question"
)

// State is the lifecycle phase of a session.
type State string

// Lifecycle states. Completed and cancelled are terminal.
const (
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// EvaluationContext is the candidate context forwarded to the
// text-evaluation service with every answer.
type EvaluationContext struct {
	Role            string `json:"role"`
	ExperienceLevel string `json:"experience_level"`
	TargetRole      string `json:"target_role"`
}

// Evaluator scores one answered question. Implementations are expected
// to be unreliable: a call may take seconds and may fail, in which
// case the machine substitutes a neutral evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, questionText, answerText string, evalCtx EvaluationContext) (model.Evaluation, error)
}

// SubmitResult is the outcome of one answer submission.
type SubmitResult struct {
	QuestionID       string               `json:"question_id"`
	Submitted        bool                 `json:"submitted"`
	NextQuestionID   string               `json:"next_question_id,omitempty"`
	SessionCompleted bool                 `json:"session_completed"`
	QuickFeedback    *model.QuickFeedback `json:"real_time_feedback,omitempty"`
}

// Progress reports how far along a session is. Times are in seconds.
type Progress struct {
	SessionID            string  `json:"session_id"`
	CurrentQuestion      int     `json:"current_question"` // 1-based
	TotalQuestions       int     `json:"total_questions"`
	ElapsedTime          int     `json:"elapsed_time"`
	RemainingTime        int     `json:"remaining_time"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// Machine is the authoritative lifecycle for one interview session.
// All methods are safe for concurrent use. Once the state reaches
// completed or cancelled no further mutation is permitted.
type Machine struct {
	mu sync.Mutex

	id          string
	userID      string
	targetRole  string
	sessionType string
	duration    time.Duration
	questions   []question.Question

	evaluator Evaluator
	now       func() time.Time

	state       State
	index       int
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	completedAt time.Time
	answers     []model.AnswerRecord
	answered    map[string]struct{}
	finalScore  float64
}

// MachineOption applies a configuration option to a Machine.
type MachineOption func(*Machine)

// WithUser sets the owning user id.
func WithUser(userID string) MachineOption {
	return func(m *Machine) { m.userID = userID }
}

// WithTargetRole sets the role the candidate is practicing for.
func WithTargetRole(role string) MachineOption {
	return func(m *Machine) { m.targetRole = role }
}

// WithSessionType sets the session type (technical, hr, mixed).
func WithSessionType(t string) MachineOption {
	return func(m *Machine) { m.sessionType = t }
}

// WithDuration sets the configured session length.
func WithDuration(d time.Duration) MachineOption {
	return func(m *Machine) {
		if d > 0 {
			m.duration = d
		}
	}
}

// WithEvaluator sets the answer evaluation service.
func WithEvaluator(e Evaluator) MachineOption {
	return func(m *Machine) { m.evaluator = e }
}

// WithClock overrides the time source. Tests use this to make elapsed
// and paused time deterministic.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine starts a session in the active state at question index 0.
func NewMachine(id string, questions []question.Question, opts ...MachineOption) *Machine {
	m := &Machine{
		id:        id,
		questions: questions,
		duration:  30 * time.Minute,
		now:       time.Now,
		state:     StateActive,
		answered:  make(map[string]struct{}, len(questions)),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.startedAt = m.now()
	return m
}

// ID returns the session identifier.
func (m *Machine) ID() string { return m.id }

// UserID returns the owning user identifier.
func (m *Machine) UserID() string { return m.userID }

// SessionType returns the configured session type.
func (m *Machine) SessionType() string { return m.sessionType }

// TargetRole returns the role the candidate is practicing for.
func (m *Machine) TargetRole() string { return m.targetRole }

// Duration returns the configured session length.
func (m *Machine) Duration() time.Duration { return m.duration }

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Questions returns the ordered question set.
func (m *Machine) Questions() []question.Question {
	out := make([]question.Question, len(m.questions))
	copy(out, m.questions)
	return out
}

// CurrentQuestion returns the question at the cursor, or false when
// every question has been answered.
func (m *Machine) CurrentQuestion() (question.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index >= len(m.questions) {
		return question.Question{}, false
	}
	return m.questions[m.index], true
}

// Answers returns a copy of the stored answer records in submission order.
func (m *Machine) Answers() []model.AnswerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.AnswerRecord, len(m.answers))
	copy(out, m.answers)
	return out
}

// FinalScore returns the overall score and whether completion set it.
func (m *Machine) FinalScore() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalScore, m.state == StateCompleted
}

// SubmitAnswer evaluates and records an answer to the current question,
// advances the cursor, and completes the session when the last question
// is answered. Valid only while active. The evaluation round-trip runs
// outside the machine's lock so pause and progress calls never block
// behind it.
func (m *Machine) SubmitAnswer(ctx context.Context, questionID, answerText string, responseTime float64) (SubmitResult, error) {
	m.mu.Lock()
	if err := m.requireActive(); err != nil {
		m.mu.Unlock()
		return SubmitResult{}, err
	}
	q, ok := m.findQuestion(questionID)
	if !ok {
		m.mu.Unlock()
		return SubmitResult{}, ErrUnknownQuestion
	}
	if _, dup := m.answered[questionID]; dup {
		m.mu.Unlock()
		return SubmitResult{}, ErrAlreadyAnswered
	}
	evalCtx := EvaluationContext{TargetRole: m.targetRole}
	m.mu.Unlock()

	eval := m.evaluate(ctx, q.Content, answerText, evalCtx)

	m.mu.Lock()
	defer m.mu.Unlock()

	// State may have changed during the evaluation round-trip, and a
	// concurrent submission may have answered the same question.
	if err := m.requireActive(); err != nil {
		return SubmitResult{}, err
	}
	if _, dup := m.answered[questionID]; dup {
		return SubmitResult{}, ErrAlreadyAnswered
	}

	m.answers = append(m.answers, model.AnswerRecord{
		QuestionID:   questionID,
		AnswerText:   answerText,
		ResponseTime: responseTime,
		SubmittedAt:  m.now(),
		Evaluation:   eval,
	})
	m.answered[questionID] = struct{}{}
	m.index++

	result := SubmitResult{
		QuestionID: questionID,
		Submitted:  true,
		QuickFeedback: &model.QuickFeedback{
			Score:    eval.OverallScore,
			QuickTip: firstOf(eval.Suggestions),
		},
	}

	if m.index >= len(m.questions) {
		m.completeLocked(nil)
		result.SessionCompleted = true
	} else {
		result.NextQuestionID = m.questions[m.index].ID
	}

	return result, nil
}

// Pause suspends elapsed-time accounting. Valid only while active.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireActive(); err != nil {
		return err
	}
	m.state = StatePaused
	m.pausedAt = m.now()
	return nil
}

// Resume reactivates a paused session, adding the pause span to the
// accumulated paused duration.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StatePaused:
	case StateCompleted, StateCancelled:
		return ErrTerminal
	default:
		return ErrNotPaused
	}

	m.pausedTotal += m.now().Sub(m.pausedAt)
	m.pausedAt = time.Time{}
	m.state = StateActive
	return nil
}

// Complete finishes the session from active or paused. When finalScore
// is nil the overall score is the mean of the stored content-quality
// scores, zero if none were recorded.
func (m *Machine) Complete(finalScore *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateActive, StatePaused:
	default:
		return ErrTerminal
	}

	m.completeLocked(finalScore)
	return nil
}

// Cancel abandons the session from active or paused.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateActive, StatePaused:
	default:
		return ErrTerminal
	}

	if m.state == StatePaused {
		m.pausedTotal += m.now().Sub(m.pausedAt)
		m.pausedAt = time.Time{}
	}
	m.state = StateCancelled
	return nil
}

// Progress reports the cursor position and time accounting.
func (m *Machine) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := m.elapsedLocked()
	remaining := m.duration - elapsed
	if remaining < 0 {
		remaining = 0
	}

	p := Progress{
		SessionID:       m.id,
		CurrentQuestion: m.index + 1,
		TotalQuestions:  len(m.questions),
		ElapsedTime:     int(elapsed.Seconds()),
		RemainingTime:   int(remaining.Seconds()),
	}
	if p.CurrentQuestion > p.TotalQuestions {
		p.CurrentQuestion = p.TotalQuestions
	}
	if p.TotalQuestions > 0 {
		p.CompletionPercentage = float64(m.index) / float64(p.TotalQuestions) * 100
	}
	return p
}

// Recommendations derives up to three personalized practice hints from
// the recorded answers.
func (m *Machine) Recommendations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.answers) == 0 {
		return []string{"Complete more practice sessions to get personalized recommendations"}
	}

	var scoreSum, timeSum float64
	for _, a := range m.answers {
		scoreSum += a.Evaluation.OverallScore
		timeSum += a.ResponseTime
	}
	avgScore := scoreSum / float64(len(m.answers))
	avgTime := timeSum / float64(len(m.answers))

	var recs []string
	if avgScore < 50 {
		recs = append(recs, "Focus on improving answer quality with specific examples and structured responses")
	} else if avgScore < 70 {
		recs = append(recs, "Practice using the STAR method (Situation, Task, Action, Result) for better answers")
	}

	if avgTime > 180 {
		recs = append(recs, "Work on being more concise - aim for 2-3 minute responses")
	} else if avgTime < 60 {
		recs = append(recs, "Provide more detailed answers with specific examples")
	}

	switch m.sessionType {
	case "technical":
		recs = append(recs, "Practice more technical problems in your domain")
	case "hr":
		recs = append(recs, "Prepare more behavioral examples using the STAR method")
	}

	if len(recs) > 3 {
		recs = recs[:3]
	}
	return recs
}

func (m *Machine) requireActive() error {
	switch m.state {
	case StateActive:
		return nil
	case StateCompleted, StateCancelled:
		return ErrTerminal
	default:
		return ErrNotActive
	}
}

func (m *Machine) findQuestion(id string) (question.Question, bool) {
	for _, q := range m.questions {
		if q.ID == id {
			return q, true
		}
	}
	return question.Question{}, false
}

func (m *Machine) evaluate(ctx context.Context, questionText, answerText string, evalCtx EvaluationContext) model.Evaluation {
	if m.evaluator == nil {
		return neutralEvaluation()
	}
	eval, err := m.evaluator.Evaluate(ctx, questionText, answerText, evalCtx)
	if err != nil {
		return neutralEvaluation()
	}
	return eval
}

func (m *Machine) completeLocked(finalScore *float64) {
	if m.state == StatePaused {
		m.pausedTotal += m.now().Sub(m.pausedAt)
		m.pausedAt = time.Time{}
	}

	if finalScore != nil {
		m.finalScore = *finalScore
	} else if len(m.answers) > 0 {
		var sum float64
		for _, a := range m.answers {
			sum += a.Evaluation.OverallScore
		}
		m.finalScore = sum / float64(len(m.answers))
	} else {
		m.finalScore = 0
	}

	m.state = StateCompleted
	m.completedAt = m.now()
}

func (m *Machine) elapsedLocked() time.Duration {
	end := m.now()
	if m.state == StateCompleted || m.state == StateCancelled {
		if !m.completedAt.IsZero() {
			end = m.completedAt
		}
	}

	elapsed := end.Sub(m.startedAt) - m.pausedTotal
	if m.state == StatePaused {
		elapsed -= end.Sub(m.pausedAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

func neutralEvaluation() model.Evaluation {
	return model.Evaluation{
		OverallScore: 70,
		Scores:       map[string]float64{"content_quality": 70},
		Suggestions:  []string{"Consider providing more specific examples"},
	}
}

func firstOf(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
