// Package analysis owns the per-session rolling history of scored
// audio and visual samples and produces the on-demand summary reports.
package analysis

import (
	"math"
	"sync"
	"time"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/scoring"
)

// DefaultHistorySize bounds each rolling window when no explicit
// capacity is configured.
const DefaultHistorySize = 100

const recommendationThreshold = 70

// AudioReport summarizes the session's audio history.
type AudioReport struct {
	SessionID             string   `json:"session_id"`
	AverageConfidence     float64  `json:"average_confidence_score"`
	AverageTone           float64  `json:"average_tone_score"`
	AveragePace           float64  `json:"average_pace_score"`
	AverageVolume         float64  `json:"average_volume_score"`
	ConfidenceConsistency float64  `json:"confidence_consistency"`
	TotalChunks           int      `json:"total_audio_chunks"`
	Overall               float64  `json:"overall_audio_score"`
	Recommendations       []string `json:"recommendations"`
	Error                 string   `json:"error,omitempty"`
}

// VisualReport summarizes the session's visual history.
type VisualReport struct {
	SessionID     string  `json:"session_id"`
	FrameCount    int     `json:"frame_count"`
	AverageScore  float64 `json:"average_posture_score"`
	DominantLabel string  `json:"dominant_label,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// State is the concurrency-safe rolling history for one session. The
// audio and visual windows evict oldest-first independently; a window
// at capacity is never an error. Late chunks for a paused session are
// accepted like any other.
type State struct {
	mu        sync.RWMutex
	sessionID string
	capacity  int

	audio        []model.AnalysisSample
	visual       []model.AnalysisSample
	visualLabels []string
}

// NewState creates an empty history for one session. Non-positive
// capacities fall back to DefaultHistorySize.
func NewState(sessionID string, capacity int) *State {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &State{sessionID: sessionID, capacity: capacity}
}

// AddAudio appends one scored audio chunk, evicting the oldest sample
// once the window is full.
func (s *State) AddAudio(r scoring.AudioResult, at time.Time) model.AnalysisSample {
	sample := model.AnalysisSample{
		Kind:      model.KindAudio,
		Timestamp: at,
		SubScores: r.SubScores(),
		Overall:   r.Overall,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.audio = append(s.audio, sample)
	if len(s.audio) > s.capacity {
		s.audio = s.audio[1:]
	}
	return sample
}

// AddVisual appends one scored video frame.
func (s *State) AddVisual(r scoring.VisualResult, at time.Time) model.AnalysisSample {
	sample := model.AnalysisSample{
		Kind:      model.KindVisual,
		Timestamp: at,
		SubScores: r.SubScores(),
		Overall:   r.Overall,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.visual = append(s.visual, sample)
	s.visualLabels = append(s.visualLabels, r.Label)
	if len(s.visual) > s.capacity {
		s.visual = s.visual[1:]
		s.visualLabels = s.visualLabels[1:]
	}
	return sample
}

// Samples returns a snapshot of both windows for aggregation.
func (s *State) Samples() []model.AnalysisSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AnalysisSample, 0, len(s.audio)+len(s.visual))
	out = append(out, s.audio...)
	out = append(out, s.visual...)
	return out
}

// AudioReport computes the session audio summary from the current window.
func (s *State) AudioReport() AudioReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.audio) == 0 {
		return AudioReport{
			SessionID:       s.sessionID,
			Error:           "no audio data analyzed",
			Recommendations: []string{"Ensure microphone is working and positioned correctly"},
		}
	}

	confidence := make([]float64, 0, len(s.audio))
	var tone, pace, volume float64
	for _, sample := range s.audio {
		confidence = append(confidence, sample.SubScores["confidence"])
		tone += sample.SubScores["tone"]
		pace += sample.SubScores["pace"]
		volume += sample.SubScores["volume"]
	}

	n := float64(len(s.audio))
	r := AudioReport{
		SessionID:             s.sessionID,
		AverageConfidence:     mean(confidence),
		AverageTone:           tone / n,
		AveragePace:           pace / n,
		AverageVolume:         volume / n,
		ConfidenceConsistency: 100 - math.Min(50, stddev(confidence)*2),
		TotalChunks:           len(s.audio),
	}
	r.Overall = (r.AverageConfidence + r.AverageTone + r.AveragePace) / 3

	if r.AverageConfidence < recommendationThreshold {
		r.Recommendations = append(r.Recommendations, "Practice speaking with more confidence and conviction")
	}
	if r.AverageTone < recommendationThreshold {
		r.Recommendations = append(r.Recommendations, "Work on voice clarity and tone quality")
	}
	if r.AveragePace < recommendationThreshold {
		r.Recommendations = append(r.Recommendations, "Practice maintaining an optimal speaking pace")
	}
	if r.ConfidenceConsistency < recommendationThreshold {
		r.Recommendations = append(r.Recommendations, "Work on maintaining consistent confidence throughout")
	}

	return r
}

// VisualReport computes the session visual summary from the current window.
func (s *State) VisualReport() VisualReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.visual) == 0 {
		return VisualReport{
			SessionID: s.sessionID,
			Error:     "no video frames analyzed",
		}
	}

	var sum float64
	for _, sample := range s.visual {
		sum += sample.Overall
	}

	counts := make(map[string]int, 4)
	dominant, best := "", 0
	for _, label := range s.visualLabels {
		counts[label]++
		if counts[label] > best {
			dominant, best = label, counts[label]
		}
	}

	return VisualReport{
		SessionID:     s.sessionID,
		FrameCount:    len(s.visual),
		AverageScore:  sum / float64(len(s.visual)),
		DominantLabel: dominant,
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)))
}
