package scoring

import (
	"math"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
)

// Aggregate blend weights. Components missing from a session (no audio
// samples, no visual samples) are dropped and the remaining weights
// renormalized, so a text-only session scores purely on content.
const (
	blendContentWeight = 0.6
	blendAudioWeight   = 0.25
	blendVisualWeight  = 0.15

	consistencyPenaltyCap = 50.0
	consistencyPenaltyPer = 2.0
)

// Aggregator blends per-answer content scores with session-level
// audio/visual rolling-history summaries at completion time.
type Aggregator struct {
	maxSuggestions int
}

// AggregatorOption applies a configuration option to the Aggregator.
type AggregatorOption func(*Aggregator)

// WithMaxSuggestions caps the de-duplicated improvement list in the
// final summary. Non-positive values are ignored.
func WithMaxSuggestions(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxSuggestions = n
		}
	}
}

// NewAggregator creates an aggregator capping suggestions at 5 by default.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{maxSuggestions: 5}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate computes the final score blend. A session with zero
// answered questions scores 0 overall regardless of stream activity.
func (a *Aggregator) Aggregate(answers []model.AnswerRecord, samples []model.AnalysisSample) model.AggregateScore {
	contentScores := make([]float64, 0, len(answers))
	for _, ans := range answers {
		contentScores = append(contentScores, ans.Evaluation.OverallScore)
	}

	var audio, visual []float64
	for _, s := range samples {
		switch s.Kind {
		case model.KindAudio:
			audio = append(audio, s.Overall)
		case model.KindVisual:
			visual = append(visual, s.Overall)
		}
	}

	agg := model.AggregateScore{
		ContentQualityAvg: mean(contentScores),
		AudioAvg:          mean(audio),
		VisualAvg:         mean(visual),
		Consistency:       consistency(contentScores),
	}

	if len(contentScores) == 0 {
		return agg
	}

	// Renormalized blend over present components.
	sum := agg.ContentQualityAvg * blendContentWeight
	weight := blendContentWeight
	if len(audio) > 0 {
		sum += agg.AudioAvg * blendAudioWeight
		weight += blendAudioWeight
	}
	if len(visual) > 0 {
		sum += agg.VisualAvg * blendVisualWeight
		weight += blendVisualWeight
	}
	agg.Overall = clamp(sum / weight)

	return agg
}

// Improvements unions the improvement strings from every answer record,
// de-duplicated in first-seen order and capped to the configured limit.
func (a *Aggregator) Improvements(answers []model.AnswerRecord) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, a.maxSuggestions)
	for _, ans := range answers {
		for _, imp := range ans.Evaluation.Improvements {
			if imp == "" {
				continue
			}
			if _, ok := seen[imp]; ok {
				continue
			}
			seen[imp] = struct{}{}
			out = append(out, imp)
			if len(out) == a.maxSuggestions {
				return out
			}
		}
	}
	return out
}

// TimeBreakdown sums recorded response times against the configured
// session duration in seconds.
func (a *Aggregator) TimeBreakdown(answers []model.AnswerRecord, totalSeconds float64) model.TimeBreakdown {
	var response float64
	for _, ans := range answers {
		response += ans.ResponseTime
	}

	tb := model.TimeBreakdown{
		TotalTime:    totalSeconds,
		ResponseTime: response,
	}
	if len(answers) > 0 {
		tb.AveragePerQuestion = response / float64(len(answers))
	}
	return tb
}

// consistency measures how stable the per-answer content scores were:
// 100 minus twice the standard deviation, with the penalty capped.
func consistency(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	penalty := math.Min(consistencyPenaltyCap, consistencyPenaltyPer*stddev(scores))
	return clamp(maxScore - penalty)
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
