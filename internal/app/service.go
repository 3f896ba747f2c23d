// Package service provides the core interview coaching service that
// implements the dependencies required by the HTTP API and the stream
// gateway.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/adapters/http/api"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/adapters/http/stream"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/adapters/pipeline"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/analysis"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/question"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/scoring"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/session"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/signal"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/logger"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/metrics"
)

// Service implements the API and gateway dependencies for the
// interview coaching system.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry   *session.Registry
	bank       *question.Bank
	toneScorer *scoring.ToneScorer
	posture    *scoring.PostureScorer
	aggregator *scoring.Aggregator
	throttle   *stream.Throttle
	hub        *stream.Hub
	pool       *pipeline.Pool
	evaluator  session.Evaluator
	classifier signal.FrameClassifier

	// Configuration
	workerCount      int
	queueSize        int
	historySize      int
	questionCount    int
	maxSuggestions   int
	defaultDuration  time.Duration
	feedbackInterval time.Duration
	audioWeights     [4]float64
	now              func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of pipeline shards.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets each pipeline shard's capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithHistorySize bounds each session's rolling analysis history.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithQuestionCount sets how many questions a new session gets.
func WithQuestionCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.questionCount = count
		}
	}
}

// WithMaxSuggestions caps the improvement list in summaries.
func WithMaxSuggestions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithDefaultDuration sets the session length used when a start request
// does not specify one.
func WithDefaultDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultDuration = d
		}
	}
}

// WithFeedbackInterval sets the minimum spacing of realtime feedback.
func WithFeedbackInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.feedbackInterval = d
		}
	}
}

// WithAudioWeights sets the audio sub-score blend
// (confidence, tone, pace, volume).
func WithAudioWeights(confidence, tone, pace, volume float64) Option {
	return func(s *Service) {
		s.audioWeights = [4]float64{confidence, tone, pace, volume}
	}
}

// WithEvaluator sets the answer evaluation service.
func WithEvaluator(e session.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithFrameClassifier sets the video frame classifier.
func WithFrameClassifier(c signal.FrameClassifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithQuestionBank replaces the default question bank.
func WithQuestionBank(b *question.Bank) Option {
	return func(s *Service) {
		if b != nil {
			s.bank = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		historySize:      analysis.DefaultHistorySize,
		questionCount:    5,
		maxSuggestions:   5,
		defaultDuration:  30 * time.Minute,
		feedbackInterval: stream.DefaultFeedbackInterval,
		audioWeights:     [4]float64{0.4, 0.3, 0.2, 0.1},
		classifier:       &signal.LumaClassifier{},
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components and the scoring pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.registry = session.NewRegistry()
	if s.bank == nil {
		s.bank = question.NewBank()
	}
	s.toneScorer = scoring.NewToneScorer(
		scoring.WithOverallWeights(s.audioWeights[0], s.audioWeights[1], s.audioWeights[2], s.audioWeights[3]),
	)
	s.posture = scoring.NewPostureScorer(s.classifier)
	s.aggregator = scoring.NewAggregator(
		scoring.WithMaxSuggestions(s.maxSuggestions),
	)
	s.throttle = stream.NewThrottle(s.feedbackInterval, stream.WithThrottleClock(s.now))
	s.hub = stream.NewHub()

	poolOpts := []pipeline.Option{pipeline.WithShardCapacity(s.queueSize)}
	if s.workerCount > 0 {
		poolOpts = append(poolOpts, pipeline.WithShardCount(s.workerCount))
	}
	s.pool = pipeline.NewPool(s, poolOpts...)
	s.pool.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "interview coaching service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("historySize", s.historySize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping interview coaching service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "pipeline shutdown incomplete", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "interview coaching service stopped")
}

// Hub returns the active-connection table for the stream gateway.
func (s *Service) Hub() *stream.Hub {
	return s.hub
}

// StartSession creates a session in the active state with its question
// set and registers it for stream ingest.
func (s *Service) StartSession(ctx context.Context, userID, targetRole, sessionType string, durationMinutes int) (api.SessionInfo, error) {
	duration := s.defaultDuration
	if durationMinutes > 0 {
		duration = time.Duration(durationMinutes) * time.Minute
	}

	questions := s.bank.PickForSession(targetRole, sessionType, s.questionCount)
	id := uuid.NewString()

	machine := session.NewMachine(id, questions,
		session.WithUser(userID),
		session.WithTargetRole(targetRole),
		session.WithSessionType(sessionType),
		session.WithDuration(duration),
		session.WithEvaluator(s.evaluator),
		session.WithClock(s.now),
	)

	if err := s.registry.Add(machine, analysis.NewState(id, s.historySize)); err != nil {
		return api.SessionInfo{}, err
	}

	metrics.RecordSessionStarted()
	metrics.UpdateActiveSessions(s.registry.Len())
	s.logger.Info(ctx, "session started",
		logger.String("session_id", id),
		logger.String("user_id", userID),
		logger.String("session_type", sessionType),
		logger.Int("questions", len(questions)),
	)

	return s.sessionInfo(machine), nil
}

// SubmitAnswer evaluates and records an answer, notifies the stream,
// and returns the cursor movement.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, questionID, answerText string, responseTime float64) (session.SubmitResult, error) {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return session.SubmitResult{}, err
	}

	result, err := entry.Machine.SubmitAnswer(ctx, questionID, answerText, responseTime)
	if err != nil {
		return session.SubmitResult{}, err
	}

	metrics.RecordAnswerSubmitted()

	if result.SessionCompleted {
		s.onCompleted(ctx, entry)
	} else if q, ok := entry.Machine.CurrentQuestion(); ok {
		_ = s.hub.Send(sessionID, stream.NewQuestionChange(q, s.now()))
	}

	return result, nil
}

// PauseSession suspends the session's elapsed-time accounting.
func (s *Service) PauseSession(ctx context.Context, sessionID string) error {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if err := entry.Machine.Pause(); err != nil {
		return err
	}

	_ = s.hub.Send(sessionID, stream.NewSessionUpdate("paused", nil, s.now()))
	return nil
}

// ResumeSession reactivates a paused session.
func (s *Service) ResumeSession(ctx context.Context, sessionID string) error {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if err := entry.Machine.Resume(); err != nil {
		return err
	}

	_ = s.hub.Send(sessionID, stream.NewSessionUpdate("resumed", nil, s.now()))
	return nil
}

// CancelSession abandons the session.
func (s *Service) CancelSession(ctx context.Context, sessionID string) error {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if err := entry.Machine.Cancel(); err != nil {
		return err
	}

	metrics.RecordSessionCancelled()
	_ = s.hub.Send(sessionID, stream.NewSessionUpdate("cancelled", nil, s.now()))
	return nil
}

// CompleteSession finishes the session and returns its final state with
// the computed summary.
func (s *Service) CompleteSession(ctx context.Context, sessionID string, finalScore *float64) (api.CompleteResult, error) {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return api.CompleteResult{}, err
	}

	if err := entry.Machine.Complete(finalScore); err != nil {
		return api.CompleteResult{}, err
	}

	summary := s.buildSummary(entry)
	s.onCompletedWithSummary(ctx, entry, summary)
	return api.CompleteResult{
		Session: s.sessionInfo(entry.Machine),
		Summary: summary,
	}, nil
}

// RemoveSession evicts a finished session from the registry so its
// state can be reclaimed. Sessions still in play are refused; complete
// or cancel them first.
func (s *Service) RemoveSession(ctx context.Context, sessionID string) error {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if !entry.Machine.State().Terminal() {
		return session.ErrNotTerminal
	}

	s.registry.Delete(sessionID)
	s.throttle.Forget(sessionID)
	metrics.UpdateActiveSessions(s.registry.Len())
	s.logger.Info(ctx, "session removed", logger.String("session_id", sessionID))
	return nil
}

// SessionProgress reports cursor position and time accounting.
func (s *Service) SessionProgress(ctx context.Context, sessionID string) (session.Progress, error) {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return session.Progress{}, err
	}
	return entry.Machine.Progress(), nil
}

// OwnsSession reports whether the user owns a live session.
func (s *Service) OwnsSession(ctx context.Context, sessionID, userID string) bool {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return false
	}
	return entry.Machine.UserID() == userID
}

// IngestChunk routes a streamed chunk into the scoring pipeline.
func (s *Service) IngestChunk(ctx context.Context, chunk model.Chunk) bool {
	return s.pool.Dispatch(ctx, chunk)
}

// SessionReports returns the session's current analysis summaries.
func (s *Service) SessionReports(ctx context.Context, sessionID string) (analysis.AudioReport, analysis.VisualReport, error) {
	entry, err := s.registry.Get(sessionID)
	if err != nil {
		return analysis.AudioReport{}, analysis.VisualReport{}, err
	}
	return entry.Analysis.AudioReport(), entry.Analysis.VisualReport(), nil
}

// Process scores one chunk off the pipeline and pushes throttled
// realtime feedback. A chunk for an unknown or finished session is
// dropped silently; scoring failures degrade to neutral scores inside
// the scorers and never surface here.
func (s *Service) Process(ctx context.Context, chunk model.Chunk) error {
	entry, err := s.registry.Get(chunk.SessionID)
	if err != nil {
		metrics.RecordChunkDropped("unknown_session")
		return nil
	}

	switch entry.Machine.State() {
	case session.StateCompleted, session.StateCancelled:
		metrics.RecordChunkDropped("terminal_session")
		return nil
	}

	start := time.Now()
	var (
		kind string
		data any
	)
	switch chunk.Kind {
	case model.KindAudio:
		result := s.toneScorer.ScoreChunk(chunk.Data)
		entry.Analysis.AddAudio(result, chunk.ReceivedAt)
		kind, data = "audio", result
	case model.KindVisual:
		result := s.posture.ScoreFrame(ctx, chunk.Data)
		entry.Analysis.AddVisual(result, chunk.ReceivedAt)
		kind, data = "visual", result
	default:
		metrics.RecordChunkDropped("unknown_kind")
		return nil
	}
	metrics.RecordAnalysisLatency(float64(time.Since(start).Milliseconds()))

	// Without a listener the throttle slot must survive, so the first
	// feedback after a reconnect goes out immediately.
	if !s.hub.Connected(chunk.SessionID) {
		return nil
	}
	if !s.throttle.Allow(chunk.SessionID) {
		metrics.RecordFeedbackThrottled()
		return nil
	}

	if err := s.hub.Send(chunk.SessionID, stream.NewRealtimeFeedback(kind, data, s.now())); err == nil {
		metrics.RecordFeedbackEmitted()
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"historySize":   s.historySize,
		"questionCount": s.questionCount,
	}

	if s.started {
		stats["activeSessions"] = s.registry.Len()
		stats["openConnections"] = s.hub.Len()
	}

	return stats
}

func (s *Service) sessionInfo(m *session.Machine) api.SessionInfo {
	info := api.SessionInfo{
		SessionID:   m.ID(),
		UserID:      m.UserID(),
		TargetRole:  m.TargetRole(),
		SessionType: m.SessionType(),
		Duration:    int(m.Duration().Minutes()),
		State:       string(m.State()),
		Questions:   m.Questions(),
	}
	if score, ok := m.FinalScore(); ok {
		info.FinalScore = &score
	}
	return info
}

func (s *Service) onCompleted(ctx context.Context, entry *session.Entry) {
	s.onCompletedWithSummary(ctx, entry, s.buildSummary(entry))
}

func (s *Service) onCompletedWithSummary(ctx context.Context, entry *session.Entry, summary model.Summary) {
	metrics.RecordSessionCompleted()
	s.throttle.Forget(entry.Machine.ID())
	s.logger.Info(ctx, "session completed",
		logger.String("session_id", entry.Machine.ID()),
		logger.Float64("overall", summary.Scores.Overall),
		logger.Int("answered", summary.QuestionsAnswered),
	)

	_ = s.hub.Send(entry.Machine.ID(), stream.NewSessionComplete(summary, s.now()))
}

// buildSummary assembles the completion payload from the machine's
// answer records and the rolling analysis history.
func (s *Service) buildSummary(entry *session.Entry) model.Summary {
	answers := entry.Machine.Answers()
	samples := entry.Analysis.Samples()

	perQuestion := make(map[string]float64, len(answers))
	for _, a := range answers {
		perQuestion[a.QuestionID] = a.Evaluation.OverallScore
	}

	return model.Summary{
		SessionID:         entry.Machine.ID(),
		TotalQuestions:    len(entry.Machine.Questions()),
		QuestionsAnswered: len(answers),
		Scores:            s.aggregator.Aggregate(answers, samples),
		TimeBreakdown:     s.aggregator.TimeBreakdown(answers, entry.Machine.Duration().Seconds()),
		Improvements:      s.aggregator.Improvements(answers),
		Recommendations:   entry.Machine.Recommendations(),
		PerQuestionScores: perQuestion,
	}
}
