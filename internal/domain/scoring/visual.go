package scoring

import (
	"context"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/signal"
)

// Base posture scores per classifier label. The classifier confidence
// interpolates between the neutral score and the label's base, so a
// low-confidence classification never swings the score far.
var postureBase = map[string]float64{
	"upright":     90,
	"leaning":     65,
	"off_center":  55,
	"not_visible": 30,
}

// VisualResult is the outcome of scoring a single video frame.
// Analyzed is false when the classifier is unavailable or the frame
// could not be classified.
type VisualResult struct {
	Posture  float64 `json:"posture_score"`
	Label    string  `json:"posture_label"`
	Overall  float64 `json:"overall_score"`
	Analyzed bool    `json:"visual_analyzed"`
}

// SubScores returns the result as a keyed map for history samples.
func (r VisualResult) SubScores() map[string]float64 {
	return map[string]float64{
		"posture": r.Posture,
	}
}

// PostureScorer scores video frames through a pluggable classifier.
// An unavailable or failing classifier degrades to a fixed result
// instead of surfacing an error to the stream.
type PostureScorer struct {
	classifier signal.FrameClassifier
}

// NewPostureScorer wraps the given classifier. A nil classifier is
// treated as permanently unavailable.
func NewPostureScorer(classifier signal.FrameClassifier) *PostureScorer {
	return &PostureScorer{classifier: classifier}
}

// ScoreFrame classifies one frame and maps the classification to a
// [0,100] posture score.
func (s *PostureScorer) ScoreFrame(ctx context.Context, frame []byte) VisualResult {
	if s.classifier == nil || !s.classifier.Available() {
		return s.unavailable()
	}

	c, err := s.classifier.Classify(ctx, frame)
	if err != nil {
		return s.unavailable()
	}

	base, ok := postureBase[c.Label]
	if !ok {
		base = neutralScore
	}

	conf := c.Confidence
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}

	score := clamp(neutralScore + (base-neutralScore)*conf)
	return VisualResult{
		Posture:  score,
		Label:    c.Label,
		Overall:  score,
		Analyzed: true,
	}
}

func (s *PostureScorer) unavailable() VisualResult {
	return VisualResult{
		Posture:  neutralScore,
		Label:    "unavailable",
		Overall:  neutralScore,
		Analyzed: false,
	}
}
