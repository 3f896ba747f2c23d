// Package stream is the duplex channel per session: it ingests media
// chunks over WebSocket and pushes feedback and lifecycle events back.
package stream

import (
	"time"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/analysis"
)

// Inbound message types.
const (
	msgAudioChunk      = "audio_chunk"
	msgVideoFrame      = "video_frame"
	msgPing            = "ping"
	msgRequestFeedback = "request_feedback"
)

// Outbound message types.
const (
	msgPong             = "pong"
	msgRealtimeFeedback = "realtime_feedback"
	msgFeedbackSummary  = "feedback_summary"
	msgSessionUpdate    = "session_update"
	msgQuestionChange   = "question_change"
	msgSessionComplete  = "session_complete"
)

// summaryFinalAnalysis marks the feedback summary emitted exactly once
// at connection teardown.
const summaryFinalAnalysis = "final_analysis"

// inboundMessage is the closed set of client messages. Chunk payloads
// arrive base64-encoded and decode into []byte via encoding/json.
type inboundMessage struct {
	Type      string `json:"type"`
	AudioData []byte `json:"audio_data,omitempty"`
	FrameData []byte `json:"frame_data,omitempty"`
}

// Message is the closed set of server messages. Only the
// fields relevant to the Type are populated.
type Message struct {
	Type         string                 `json:"type"`
	Timestamp    string                 `json:"timestamp"`
	AnalysisType string                 `json:"analysis_type,omitempty"`
	Data         any                    `json:"data,omitempty"`
	SummaryType  string                 `json:"summary_type,omitempty"`
	VisualReport *analysis.VisualReport `json:"visual_report,omitempty"`
	AudioReport  *analysis.AudioReport  `json:"audio_report,omitempty"`
	UpdateType   string                 `json:"update_type,omitempty"`
	Question     any                    `json:"question,omitempty"`
	Summary      any                    `json:"summary,omitempty"`
}

func newPong(now time.Time) Message {
	return Message{Type: msgPong, Timestamp: stamp(now)}
}

// NewRealtimeFeedback builds the per-chunk feedback push.
func NewRealtimeFeedback(analysisType string, data any, now time.Time) Message {
	return Message{
		Type:         msgRealtimeFeedback,
		Timestamp:    stamp(now),
		AnalysisType: analysisType,
		Data:         data,
	}
}

func newFeedbackSummary(audioReport analysis.AudioReport, visualReport analysis.VisualReport, summaryType string, now time.Time) Message {
	return Message{
		Type:         msgFeedbackSummary,
		Timestamp:    stamp(now),
		SummaryType:  summaryType,
		AudioReport:  &audioReport,
		VisualReport: &visualReport,
	}
}

// NewSessionUpdate notifies the client of a lifecycle change.
func NewSessionUpdate(updateType string, data any, now time.Time) Message {
	return Message{
		Type:       msgSessionUpdate,
		Timestamp:  stamp(now),
		UpdateType: updateType,
		Data:       data,
	}
}

// NewQuestionChange notifies the client that the cursor advanced.
func NewQuestionChange(question any, now time.Time) Message {
	return Message{
		Type:      msgQuestionChange,
		Timestamp: stamp(now),
		Question:  question,
	}
}

// NewSessionComplete carries the final summary to the client.
func NewSessionComplete(summary any, now time.Time) Message {
	return Message{
		Type:      msgSessionComplete,
		Timestamp: stamp(now),
		Summary:   summary,
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
