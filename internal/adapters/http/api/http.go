// Package api declares HTTP contracts and route registration helpers
// for the session lifecycle operations.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/question"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/session"
)

// SessionInfo is the read shape returned when a session is started or
// completed.
type SessionInfo struct {
	SessionID   string              `json:"session_id"`
	UserID      string              `json:"user_id"`
	TargetRole  string              `json:"target_role"`
	SessionType string              `json:"session_type"`
	Duration    int                 `json:"duration"` // minutes
	State       string              `json:"state"`
	Questions   []question.Question `json:"questions"`
	FinalScore  *float64            `json:"final_score,omitempty"`
}

// CompleteResult pairs the finished session with its computed summary.
type CompleteResult struct {
	Session SessionInfo   `json:"session"`
	Summary model.Summary `json:"summary"`
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// StartSession creates a new session and returns it with its question set.
	StartSession(ctx context.Context, userID, targetRole, sessionType string, durationMinutes int) (SessionInfo, error)

	// SubmitAnswer evaluates and records an answer for the session.
	SubmitAnswer(ctx context.Context, sessionID, questionID, answerText string, responseTime float64) (session.SubmitResult, error)

	// Lifecycle transitions.
	PauseSession(ctx context.Context, sessionID string) error
	ResumeSession(ctx context.Context, sessionID string) error
	CancelSession(ctx context.Context, sessionID string) error
	CompleteSession(ctx context.Context, sessionID string, finalScore *float64) (CompleteResult, error)

	// RemoveSession evicts a finished session from the registry.
	RemoveSession(ctx context.Context, sessionID string) error

	// SessionProgress reports cursor position and time accounting.
	SessionProgress(ctx context.Context, sessionID string) (session.Progress, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSession, "session"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain sentinel errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, session.ErrExists):
		writeError(w, http.StatusConflict, "already_exists", err)
	case errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrNotPaused),
		errors.Is(err, session.ErrTerminal),
		errors.Is(err, session.ErrNotTerminal):
		writeError(w, http.StatusConflict, "invalid_state", err)
	case errors.Is(err, session.ErrAlreadyAnswered):
		writeError(w, http.StatusConflict, "already_answered", err)
	case errors.Is(err, session.ErrUnknownQuestion):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
