// Package signal turns raw media chunks into small numeric feature vectors.
// Extraction is pure: one chunk in, one Features value out.
package signal

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Sentinel error kinds for this package.
var (
	ErrEmptyChunk  = errors.New("empty audio chunk")
	ErrDecodeChunk = errors.New("audio chunk decode failed")
)

// Framing and pitch-search constants. Frame and hop mirror the usual
// 25 ms / 10 ms speech analysis windows.
const (
	frameSeconds = 0.025
	hopSeconds   = 0.010
	pitchMinHz   = 50.0
	pitchMaxHz   = 400.0
	fftSize      = 512

	// Energy thresholds relative to the chunk's mean frame energy.
	voicedThresholdRatio = 0.3
	volumeThresholdRatio = 0.1

	minVoicedFramesForPitch = 10
)

// Features is the per-chunk audio feature vector consumed by the tone scorer.
type Features struct {
	SampleRate int

	// Pitch statistics over voiced frames. Zero when too few voiced
	// frames were found for a stable estimate.
	PitchMean float64
	PitchStd  float64
	Pitched   bool

	// Frame energy statistics. LoudFrames counts the frames that fed
	// the coefficient of variation; below 5 the CV is not meaningful.
	EnergyMean float64
	EnergyCV   float64
	LoudFrames int

	// Fraction of frames with energy above the adaptive threshold.
	VoicedRatio float64

	// Mean zero-crossing rate across frames.
	ZCRMean float64

	// Spectral shape, averaged across frames.
	SpectralCentroid  float64
	SpectralRolloff   float64
	SpectralBandwidth float64
}

// DecodeWAV decodes a WAV chunk into mono float64 samples in [-1, 1]
// plus the container's sample rate.
func DecodeWAV(b []byte) ([]float64, int, error) {
	if len(b) == 0 {
		return nil, 0, ErrEmptyChunk
	}

	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		return nil, 0, ErrDecodeChunk
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecodeChunk, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, ErrDecodeChunk
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	// Downmix interleaved channels to mono.
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	n := len(buf.Data) / channels
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	return samples, buf.Format.SampleRate, nil
}

// Extract computes the feature vector for one mono chunk.
// Returns ErrEmptyChunk when the chunk is too short to frame.
func Extract(samples []float64, sampleRate int) (Features, error) {
	frameLen := int(frameSeconds * float64(sampleRate))
	hop := int(hopSeconds * float64(sampleRate))
	if frameLen <= 0 || hop <= 0 || len(samples) < frameLen {
		return Features{}, ErrEmptyChunk
	}

	frames := frameCount(len(samples), frameLen, hop)
	energies := make([]float64, frames)
	zcrs := make([]float64, frames)
	for i := 0; i < frames; i++ {
		frame := samples[i*hop : i*hop+frameLen]
		energies[i] = rms(frame)
		zcrs[i] = zeroCrossingRate(frame)
	}

	energyMean := mean(energies)

	// Energy-based voice activity detection with an adaptive threshold.
	voicedThreshold := energyMean * voicedThresholdRatio
	voiced := make([]bool, frames)
	voicedCount := 0
	for i, e := range energies {
		if e > voicedThreshold {
			voiced[i] = true
			voicedCount++
		}
	}

	f := Features{
		SampleRate:  sampleRate,
		EnergyMean:  energyMean,
		VoicedRatio: float64(voicedCount) / float64(frames),
		ZCRMean:     mean(zcrs),
	}

	// Volume spread over frames loud enough to carry voice.
	var loud []float64
	volumeThreshold := energyMean * volumeThresholdRatio
	for _, e := range energies {
		if e > volumeThreshold {
			loud = append(loud, e)
		}
	}
	f.LoudFrames = len(loud)
	if len(loud) >= 5 {
		m := mean(loud)
		if m > 0 {
			f.EnergyCV = stddev(loud, m) / m
		} else {
			f.EnergyCV = 1
		}
	}

	// Pitch over voiced frames.
	var pitches []float64
	for i := 0; i < frames; i++ {
		if !voiced[i] {
			continue
		}
		frame := samples[i*hop : i*hop+frameLen]
		if p := estimatePitch(frame, sampleRate); p > 0 {
			pitches = append(pitches, p)
		}
	}
	if len(pitches) > minVoicedFramesForPitch {
		f.PitchMean = mean(pitches)
		f.PitchStd = stddev(pitches, f.PitchMean)
		f.Pitched = true
	}

	f.SpectralCentroid, f.SpectralRolloff, f.SpectralBandwidth = spectralShape(samples, sampleRate, frameLen, hop, frames)

	return f, nil
}

// spectralShape averages centroid, 85% rolloff, and bandwidth across frames.
func spectralShape(samples []float64, sampleRate, frameLen, hop, frames int) (centroid, rolloff, bandwidth float64) {
	fft := fourier.NewFFT(fftSize)
	padded := make([]float64, fftSize)

	var sumCentroid, sumRolloff, sumBandwidth float64
	counted := 0
	for i := 0; i < frames; i++ {
		frame := samples[i*hop : i*hop+frameLen]
		for j := range padded {
			padded[j] = 0
		}
		n := len(frame)
		if n > fftSize {
			n = fftSize
		}
		for j := 0; j < n; j++ {
			// Hann window keeps bin leakage from skewing the moments.
			w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(j)/float64(n-1))
			padded[j] = frame[j] * w
		}

		coeffs := fft.Coefficients(nil, padded)
		mags := make([]float64, len(coeffs))
		total := 0.0
		for k, c := range coeffs {
			mags[k] = math.Hypot(real(c), imag(c))
			total += mags[k]
		}
		if total == 0 {
			continue
		}

		binHz := float64(sampleRate) / float64(fftSize)
		c := 0.0
		for k, m := range mags {
			c += float64(k) * binHz * m
		}
		c /= total

		target := 0.85 * total
		acc := 0.0
		r := 0.0
		for k, m := range mags {
			acc += m
			if acc >= target {
				r = float64(k) * binHz
				break
			}
		}

		bw := 0.0
		for k, m := range mags {
			d := float64(k)*binHz - c
			bw += d * d * m
		}
		bw = math.Sqrt(bw / total)

		sumCentroid += c
		sumRolloff += r
		sumBandwidth += bw
		counted++
	}

	if counted == 0 {
		return 0, 0, 0
	}
	n := float64(counted)
	return sumCentroid / n, sumRolloff / n, sumBandwidth / n
}

// estimatePitch finds the fundamental frequency of one frame via
// normalized autocorrelation over the plausible voice lag range.
// Returns 0 when no clear periodicity is found.
func estimatePitch(frame []float64, sampleRate int) float64 {
	minLag := int(float64(sampleRate) / pitchMaxHz)
	maxLag := int(float64(sampleRate) / pitchMinHz)
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0
	}

	zero := 0.0
	for _, s := range frame {
		zero += s * s
	}
	if zero == 0 {
		return 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
		}
		corr /= zero
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	// Weak periodicity reads as unvoiced.
	if bestLag == 0 || bestCorr < 0.3 {
		return 0
	}
	return float64(sampleRate) / float64(bestLag)
}

func frameCount(n, frameLen, hop int) int {
	if n < frameLen {
		return 0
	}
	return (n-frameLen)/hop + 1
}

func rms(frame []float64) float64 {
	sum := 0.0
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func zeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
