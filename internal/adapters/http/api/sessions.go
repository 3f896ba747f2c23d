package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// startRequest mirrors the POST /sessions body.
type startRequest struct {
	UserID      string `json:"user_id"`
	TargetRole  string `json:"target_role"`
	SessionType string `json:"session_type"`
	Duration    int    `json:"duration"` // minutes
}

func (r startRequest) validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(r.SessionType) == "":
		return errors.New("missing session_type")
	case r.Duration < 0:
		return errors.New("duration must not be negative")
	}
	return nil
}

// answerRequest mirrors the POST /sessions/{id}/answers body.
type answerRequest struct {
	QuestionID   string  `json:"question_id"`
	AnswerText   string  `json:"answer_text"`
	ResponseTime float64 `json:"response_time"` // seconds
}

func (r answerRequest) validate() error {
	switch {
	case strings.TrimSpace(r.QuestionID) == "":
		return errors.New("missing question_id")
	case strings.TrimSpace(r.AnswerText) == "":
		return errors.New("missing answer_text")
	case r.ResponseTime < 0:
		return errors.New("response_time must not be negative")
	}
	return nil
}

// completeRequest mirrors the POST /sessions/{id}/complete body. The
// body is optional; an absent final_score means derive it from the
// recorded answers.
type completeRequest struct {
	FinalScore *float64 `json:"final_score"`
}

// SessionsHandler handles the session lifecycle endpoints.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	info, err := h.deps.StartSession(r.Context(), req.UserID, req.TargetRole, req.SessionType, req.Duration)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// HandleSession routes /sessions/{id}/{action} requests.
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/sessions/"), "/")
	if len(parts) == 1 && parts[0] != "" {
		h.handleRemove(w, r, parts[0])
		return
	}
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	sessionID, action := parts[0], parts[1]

	switch action {
	case "progress":
		h.handleProgress(w, r, sessionID)
	case "answers":
		h.handleSubmitAnswer(w, r, sessionID)
	case "pause":
		h.handleTransition(w, r, sessionID, h.deps.PauseSession)
	case "resume":
		h.handleTransition(w, r, sessionID, h.deps.ResumeSession)
	case "cancel":
		h.handleTransition(w, r, sessionID, h.deps.CancelSession)
	case "complete":
		h.handleComplete(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionsHandler) handleRemove(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}

	if err := h.deps.RemoveSession(r.Context(), sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *SessionsHandler) handleProgress(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	progress, err := h.deps.SessionProgress(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *SessionsHandler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.submit_answer"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.SubmitAnswer(r.Context(), sessionID, req.QuestionID, req.AnswerText, req.ResponseTime)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *SessionsHandler) handleTransition(w http.ResponseWriter, r *http.Request, sessionID string, transition func(ctx context.Context, id string) error) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := transition(r.Context(), sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SessionsHandler) handleComplete(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.complete_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req completeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	result, err := h.deps.CompleteSession(r.Context(), sessionID, req.FinalScore)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
