package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/adapters/http/api"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/question"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/session"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeDeps returns canned results and records the last call arguments.
type fakeDeps struct {
	startErr    error
	submitErr   error
	pauseErr    error
	resumeErr   error
	cancelErr   error
	completeErr error
	removeErr   error
	progressErr error

	lastSessionID string
	lastFinal     *float64
}

func (f *fakeDeps) StartSession(_ context.Context, userID, targetRole, sessionType string, durationMinutes int) (api.SessionInfo, error) {
	if f.startErr != nil {
		return api.SessionInfo{}, f.startErr
	}
	return api.SessionInfo{
		SessionID:   "sess-1",
		UserID:      userID,
		TargetRole:  targetRole,
		SessionType: sessionType,
		Duration:    durationMinutes,
		State:       string(session.StateActive),
		Questions:   []question.Question{{ID: "q-1", Content: "Tell me about yourself."}},
	}, nil
}

func (f *fakeDeps) SubmitAnswer(_ context.Context, sessionID, questionID, _ string, _ float64) (session.SubmitResult, error) {
	f.lastSessionID = sessionID
	if f.submitErr != nil {
		return session.SubmitResult{}, f.submitErr
	}
	return session.SubmitResult{
		QuestionID:    questionID,
		Submitted:     true,
		QuickFeedback: &model.QuickFeedback{Score: 80},
	}, nil
}

func (f *fakeDeps) PauseSession(_ context.Context, id string) error {
	f.lastSessionID = id
	return f.pauseErr
}

func (f *fakeDeps) ResumeSession(_ context.Context, id string) error {
	f.lastSessionID = id
	return f.resumeErr
}

func (f *fakeDeps) CancelSession(_ context.Context, id string) error {
	f.lastSessionID = id
	return f.cancelErr
}

func (f *fakeDeps) CompleteSession(_ context.Context, id string, finalScore *float64) (api.CompleteResult, error) {
	f.lastSessionID = id
	f.lastFinal = finalScore
	if f.completeErr != nil {
		return api.CompleteResult{}, f.completeErr
	}
	return api.CompleteResult{
		Session: api.SessionInfo{SessionID: id, State: string(session.StateCompleted)},
		Summary: model.Summary{SessionID: id, TotalQuestions: 5},
	}, nil
}

func (f *fakeDeps) RemoveSession(_ context.Context, id string) error {
	f.lastSessionID = id
	return f.removeErr
}

func (f *fakeDeps) SessionProgress(_ context.Context, id string) (session.Progress, error) {
	f.lastSessionID = id
	if f.progressErr != nil {
		return session.Progress{}, f.progressErr
	}
	return session.Progress{SessionID: id, CurrentQuestion: 2, TotalQuestions: 5}, nil
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"active_sessions": 1}
}

func newTestServer(deps *fakeDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, fakeStats{}).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestStartSession(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &fakeDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a valid session start is posted", func() {
			resp := postJSON(t, srv.URL+"/sessions", map[string]any{
				"user_id":      "user-1",
				"target_role":  "backend engineer",
				"session_type": "technical",
				"duration":     30,
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusCreated)

			var info api.SessionInfo
			So(json.NewDecoder(resp.Body).Decode(&info), ShouldBeNil)
			So(info.SessionID, ShouldEqual, "sess-1")
			So(info.Questions, ShouldHaveLength, 1)
		})

		Convey("When the body is missing required fields", func() {
			resp := postJSON(t, srv.URL+"/sessions", map[string]any{"duration": 30})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewReader([]byte("{nope")))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is wrong", func() {
			resp, err := http.Get(srv.URL + "/sessions")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSessionSubresources(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &fakeDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When an answer is submitted", func() {
			resp := postJSON(t, srv.URL+"/sessions/sess-1/answers", map[string]any{
				"question_id":   "q-1",
				"answer_text":   "my answer",
				"response_time": 42.0,
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.lastSessionID, ShouldEqual, "sess-1")

			var result session.SubmitResult
			So(json.NewDecoder(resp.Body).Decode(&result), ShouldBeNil)
			So(result.Submitted, ShouldBeTrue)
			So(result.QuickFeedback.Score, ShouldEqual, 80)
		})

		Convey("When an answer is missing its text", func() {
			resp := postJSON(t, srv.URL+"/sessions/sess-1/answers", map[string]any{
				"question_id": "q-1",
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When progress is requested", func() {
			resp, err := http.Get(srv.URL + "/sessions/sess-1/progress")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var p session.Progress
			So(json.NewDecoder(resp.Body).Decode(&p), ShouldBeNil)
			So(p.CurrentQuestion, ShouldEqual, 2)
		})

		Convey("When pause, resume and cancel are posted", func() {
			for _, action := range []string{"pause", "resume", "cancel"} {
				resp := postJSON(t, srv.URL+"/sessions/sess-1/"+action, map[string]any{})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				resp.Body.Close()
			}
		})

		Convey("When completion carries an explicit final score", func() {
			resp := postJSON(t, srv.URL+"/sessions/sess-1/complete", map[string]any{
				"final_score": 88.5,
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.lastFinal, ShouldNotBeNil)
			So(*deps.lastFinal, ShouldEqual, 88.5)

			var result api.CompleteResult
			So(json.NewDecoder(resp.Body).Decode(&result), ShouldBeNil)
			So(result.Session.State, ShouldEqual, string(session.StateCompleted))
			So(result.Summary.TotalQuestions, ShouldEqual, 5)
		})

		Convey("When completion has no body", func() {
			resp, err := http.Post(srv.URL+"/sessions/sess-1/complete", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.lastFinal, ShouldBeNil)
		})

		Convey("When a session is deleted", func() {
			req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/sess-1", nil)
			So(err, ShouldBeNil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.lastSessionID, ShouldEqual, "sess-1")
		})

		Convey("When the bare session path is requested with GET", func() {
			resp, err := http.Get(srv.URL + "/sessions/sess-1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the action is unknown", func() {
			resp, err := http.Get(srv.URL + "/sessions/sess-1/export")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestDomainErrorMapping(t *testing.T) {
	Convey("Given dependencies that fail with domain errors", t, func() {
		Convey("Then an unknown session maps to 404", func() {
			deps := &fakeDeps{progressErr: session.ErrNotFound}
			srv := newTestServer(deps)
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/sessions/ghost/progress")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then an invalid transition maps to 409", func() {
			deps := &fakeDeps{pauseErr: session.ErrTerminal}
			srv := newTestServer(deps)
			defer srv.Close()

			resp := postJSON(t, srv.URL+"/sessions/sess-1/pause", map[string]any{})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("Then deleting an unfinished session maps to 409", func() {
			deps := &fakeDeps{removeErr: session.ErrNotTerminal}
			srv := newTestServer(deps)
			defer srv.Close()

			req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/sess-1", nil)
			So(err, ShouldBeNil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("Then a duplicate answer maps to 409", func() {
			deps := &fakeDeps{submitErr: session.ErrAlreadyAnswered}
			srv := newTestServer(deps)
			defer srv.Close()

			resp := postJSON(t, srv.URL+"/sessions/sess-1/answers", map[string]any{
				"question_id": "q-1", "answer_text": "again", "response_time": 1.0,
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("Then answering an unknown question maps to 400", func() {
			deps := &fakeDeps{submitErr: session.ErrUnknownQuestion}
			srv := newTestServer(deps)
			defer srv.Close()

			resp := postJSON(t, srv.URL+"/sessions/sess-1/answers", map[string]any{
				"question_id": "q-99", "answer_text": "a", "response_time": 1.0,
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer(&fakeDeps{})
		defer srv.Close()

		Convey("When stats are requested", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var stats map[string]interface{}
			So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
			So(stats, ShouldContainKey, "active_sessions")
		})

		Convey("When the health endpoint is scraped", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
