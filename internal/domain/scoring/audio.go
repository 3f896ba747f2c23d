// Package scoring turns signal feature vectors into bounded [0,100]
// sub-scores and blends session results into a final aggregate.
package scoring

import (
	"math"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/signal"
)

// Scoring constants. Weights are empirical tuning values carried over
// from the original analyzer; they are configurable, not invariants.
const (
	maxScore     = 100.0
	neutralScore = 50.0

	// Confidence blend: pitch stability / voice strength / clarity.
	confStabilityWeight = 0.4
	confStrengthWeight  = 0.4
	confClarityWeight   = 0.2

	// Tone blend: warmth / smoothness / richness.
	toneWarmthWeight     = 0.4
	toneSmoothnessWeight = 0.3
	toneRichnessWeight   = 0.3

	// Warmth target band center in Hz.
	warmthTargetHz = 3000.0

	// Pace scores 100 inside this voiced-fraction band and decays
	// linearly outside it.
	paceBandLow    = 0.4
	paceBandHigh   = 0.7
	pacePenaltyPer = 200.0

	volumePenaltyPer = 200.0
)

// AudioResult carries the four sub-scores and the weighted overall.
// Analyzed is false when the chunk could not be decoded and the
// neutral defaults were used instead.
type AudioResult struct {
	Confidence float64 `json:"confidence_score"`
	Tone       float64 `json:"tone_score"`
	Pace       float64 `json:"pace_score"`
	Volume     float64 `json:"volume_score"`
	Overall    float64 `json:"overall_score"`
	Analyzed   bool    `json:"audio_analyzed"`
}

// SubScores returns the result as a keyed map for history samples.
func (r AudioResult) SubScores() map[string]float64 {
	return map[string]float64{
		"confidence": r.Confidence,
		"tone":       r.Tone,
		"pace":       r.Pace,
		"volume":     r.Volume,
	}
}

// ToneScorer computes audio sub-scores from one chunk.
type ToneScorer struct {
	confidenceWeight float64
	toneWeight       float64
	paceWeight       float64
	volumeWeight     float64
}

// ToneOption applies a configuration option to the ToneScorer.
type ToneOption func(*ToneScorer)

// WithOverallWeights sets the blend of the four sub-scores into the
// overall audio score. Non-positive weight sets are ignored.
func WithOverallWeights(confidence, tone, pace, volume float64) ToneOption {
	return func(s *ToneScorer) {
		if confidence < 0 || tone < 0 || pace < 0 || volume < 0 {
			return
		}
		if confidence+tone+pace+volume <= 0 {
			return
		}
		s.confidenceWeight = confidence
		s.toneWeight = tone
		s.paceWeight = pace
		s.volumeWeight = volume
	}
}

// NewToneScorer creates a scorer with the default overall weights
// (0.4 confidence, 0.3 tone, 0.2 pace, 0.1 volume).
func NewToneScorer(opts ...ToneOption) *ToneScorer {
	s := &ToneScorer{
		confidenceWeight: 0.4,
		toneWeight:       0.3,
		paceWeight:       0.2,
		volumeWeight:     0.1,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScoreChunk decodes and scores one audio chunk. Undecodable or empty
// chunks yield the documented neutral default of 50 for every
// sub-score; the pipeline never fails on bad media.
func (s *ToneScorer) ScoreChunk(chunk []byte) AudioResult {
	samples, rate, err := signal.DecodeWAV(chunk)
	if err != nil {
		return s.neutral()
	}
	features, err := signal.Extract(samples, rate)
	if err != nil {
		return s.neutral()
	}
	return s.Score(features)
}

// Score computes the sub-scores for an already-extracted feature vector.
func (s *ToneScorer) Score(f signal.Features) AudioResult {
	r := AudioResult{
		Confidence: s.confidenceScore(f),
		Tone:       s.toneScore(f),
		Pace:       s.paceScore(f),
		Volume:     s.volumeScore(f),
		Analyzed:   true,
	}
	r.Overall = clamp(r.Confidence*s.confidenceWeight +
		r.Tone*s.toneWeight +
		r.Pace*s.paceWeight +
		r.Volume*s.volumeWeight)
	return r
}

func (s *ToneScorer) neutral() AudioResult {
	return AudioResult{
		Confidence: neutralScore,
		Tone:       neutralScore,
		Pace:       neutralScore,
		Volume:     neutralScore,
		Overall:    neutralScore,
		Analyzed:   false,
	}
}

// confidenceScore blends pitch stability, voice strength, and a
// spectral clarity proxy.
func (s *ToneScorer) confidenceScore(f signal.Features) float64 {
	stability := neutralScore
	if f.Pitched && f.PitchMean > 0 {
		stability = clamp(maxScore - (f.PitchStd/f.PitchMean)*100)
	}

	strength := math.Min(maxScore, f.EnergyMean*1000)

	clarity := clamp((f.SpectralCentroid - 1000) / 20)

	return clamp(stability*confStabilityWeight +
		strength*confStrengthWeight +
		clarity*confClarityWeight)
}

// toneScore blends warmth (rolloff near 3 kHz), smoothness (inverse
// zero-crossing rate), and richness (spectral bandwidth).
func (s *ToneScorer) toneScore(f signal.Features) float64 {
	warmth := clamp(maxScore - math.Abs(f.SpectralRolloff-warmthTargetHz)/50)

	smoothness := clamp(maxScore - f.ZCRMean*1000)

	richness := math.Min(maxScore, f.SpectralBandwidth/30)

	return clamp(warmth*toneWarmthWeight +
		smoothness*toneSmoothnessWeight +
		richness*toneRichnessWeight)
}

// paceScore maps the voiced fraction onto the target speaking band.
func (s *ToneScorer) paceScore(f signal.Features) float64 {
	ratio := f.VoicedRatio
	switch {
	case ratio >= paceBandLow && ratio <= paceBandHigh:
		return maxScore
	case ratio < paceBandLow:
		return clamp(maxScore - (paceBandLow-ratio)*pacePenaltyPer)
	default:
		return clamp(maxScore - (ratio-paceBandHigh)*pacePenaltyPer)
	}
}

// volumeScore penalizes energy spread over the loud frames.
func (s *ToneScorer) volumeScore(f signal.Features) float64 {
	if f.LoudFrames < 5 {
		return neutralScore
	}
	return clamp(maxScore - f.EnergyCV*volumePenaltyPer)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(maxScore, v))
}
