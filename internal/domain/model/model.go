// Package model contains domain models passed between layers.
package model

import "time"

// SampleKind distinguishes the two analysis streams.
type SampleKind string

// Sample kinds.
const (
	KindAudio  SampleKind = "audio"
	KindVisual SampleKind = "visual"
)

// Chunk is one discrete unit of streamed media routed through the
// scoring pipeline. Data holds the raw encoded bytes as received.
type Chunk struct {
	SessionID  string
	Kind       SampleKind
	Data       []byte
	ReceivedAt time.Time
}

// AnalysisSample is one scored chunk appended to a session's rolling history.
type AnalysisSample struct {
	Kind      SampleKind         `json:"kind"`
	Timestamp time.Time          `json:"timestamp"`
	SubScores map[string]float64 `json:"sub_scores"`
	Overall   float64            `json:"overall"`
}

// Evaluation is the content-quality verdict for one answered question,
// as returned by the external text-evaluation service.
type Evaluation struct {
	OverallScore float64            `json:"overall_score"`
	Scores       map[string]float64 `json:"scores"`
	Strengths    []string           `json:"strengths"`
	Improvements []string           `json:"improvements"`
	Suggestions  []string           `json:"suggestions"`
}

// AnswerRecord stores what a candidate answered and how it was scored.
type AnswerRecord struct {
	QuestionID   string     `json:"question_id"`
	AnswerText   string     `json:"answer_text"`
	ResponseTime float64    `json:"response_time"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Evaluation   Evaluation `json:"evaluation"`
}

// QuickFeedback is the immediate per-answer hint returned on submission.
type QuickFeedback struct {
	Score    float64 `json:"score"`
	QuickTip string  `json:"quick_tip,omitempty"`
}

// AggregateScore blends content evaluation with session-level signal
// summaries. Computed once at completion; immutable afterwards.
type AggregateScore struct {
	Overall           float64 `json:"overall"`
	ContentQualityAvg float64 `json:"content_quality_avg"`
	AudioAvg          float64 `json:"audio_avg"`
	VisualAvg         float64 `json:"visual_avg"`
	Consistency       float64 `json:"consistency"`
}

// TimeBreakdown reports how session time was spent.
type TimeBreakdown struct {
	TotalTime          float64 `json:"total_time"`
	ResponseTime       float64 `json:"response_time"`
	AveragePerQuestion float64 `json:"average_per_question"`
}

// Summary is the session_complete payload handed back through the gateway.
type Summary struct {
	SessionID         string             `json:"session_id"`
	TotalQuestions    int                `json:"total_questions"`
	QuestionsAnswered int                `json:"questions_answered"`
	Scores            AggregateScore     `json:"scores"`
	TimeBreakdown     TimeBreakdown      `json:"time_breakdown"`
	Improvements      []string           `json:"improvements"`
	Recommendations   []string           `json:"recommendations"`
	PerQuestionScores map[string]float64 `json:"per_question_scores"`
}
