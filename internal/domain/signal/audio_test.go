package signal_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/signal"
	. "github.com/smartystreets/goconvey/convey"
)

const testSampleRate = 16000

// wavBytes encodes float samples as a 16-bit PCM mono WAV chunk. The
// encoder needs a seekable writer, so it goes through a scratch file.
func wavBytes(samples []float64, sampleRate int) []byte {
	path := filepath.Join(os.TempDir(), "chunk.wav")
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer os.Remove(path)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(math.Max(-1, math.Min(1, s)) * 32767)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		panic(err)
	}
	if err := enc.Close(); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return b
}

// sine produces a steady tone, the closest thing to a perfectly stable voice.
func sine(freq float64, seconds float64, amplitude float64) []float64 {
	n := int(seconds * testSampleRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return out
}

func TestDecodeWAV(t *testing.T) {
	Convey("Given a valid PCM WAV chunk", t, func() {
		b := wavBytes(sine(200, 0.5, 0.6), testSampleRate)

		Convey("When decoding", func() {
			samples, sr, err := signal.DecodeWAV(b)

			Convey("Then samples and rate should round-trip", func() {
				So(err, ShouldBeNil)
				So(sr, ShouldEqual, testSampleRate)
				So(len(samples), ShouldEqual, testSampleRate/2)
				So(samples[0], ShouldAlmostEqual, 0, 0.001)
			})
		})
	})

	Convey("Given an empty chunk", t, func() {
		_, _, err := signal.DecodeWAV(nil)

		Convey("Then it should report an empty chunk", func() {
			So(err, ShouldEqual, signal.ErrEmptyChunk)
		})
	})

	Convey("Given garbage bytes", t, func() {
		_, _, err := signal.DecodeWAV([]byte("definitely not a wav file"))

		Convey("Then it should report a decode failure", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestExtract(t *testing.T) {
	Convey("Given a steady 200 Hz tone", t, func() {
		samples := sine(200, 1.0, 0.6)

		Convey("When extracting features", func() {
			f, err := signal.Extract(samples, testSampleRate)

			Convey("Then the pitch estimate should land near 200 Hz", func() {
				So(err, ShouldBeNil)
				So(f.Pitched, ShouldBeTrue)
				So(f.PitchMean, ShouldAlmostEqual, 200, 20)
				So(f.PitchStd, ShouldBeLessThan, 10)
			})

			Convey("And the whole tone should register as voiced", func() {
				So(f.VoicedRatio, ShouldBeGreaterThan, 0.9)
				So(f.EnergyMean, ShouldBeGreaterThan, 0)
				So(f.EnergyCV, ShouldBeLessThan, 0.2)
			})

			Convey("And the spectral centroid should sit near the tone", func() {
				So(f.SpectralCentroid, ShouldBeGreaterThan, 100)
				So(f.SpectralCentroid, ShouldBeLessThan, 1500)
			})
		})
	})

	Convey("Given a tone with long silences", t, func() {
		voicedPart := sine(150, 0.3, 0.6)
		silence := make([]float64, testSampleRate)
		samples := append(append([]float64{}, silence...), voicedPart...)

		Convey("When extracting features", func() {
			f, err := signal.Extract(samples, testSampleRate)

			Convey("Then the voiced ratio should reflect the silence", func() {
				So(err, ShouldBeNil)
				So(f.VoicedRatio, ShouldBeLessThan, 0.5)
			})
		})
	})

	Convey("Given too few samples to frame", t, func() {
		_, err := signal.Extract(make([]float64, 10), testSampleRate)

		Convey("Then it should report an empty chunk", func() {
			So(err, ShouldEqual, signal.ErrEmptyChunk)
		})
	})
}

func TestLumaClassifier(t *testing.T) {
	frame := func(centerBright bool) []byte {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				inCenter := x >= 16 && x < 48 && y >= 16 && y < 48
				c := color.RGBA{A: 255}
				if inCenter == centerBright {
					c = color.RGBA{R: 230, G: 230, B: 230, A: 255}
				}
				img.Set(x, y, c)
			}
		}
		var buf bytes.Buffer
		png.Encode(&buf, img)
		return buf.Bytes()
	}

	Convey("Given the built-in luminance classifier", t, func() {
		c := signal.NewLumaClassifier()
		So(c.Available(), ShouldBeTrue)

		Convey("When the subject is centered and lit", func() {
			result, err := c.Classify(context.Background(), frame(true))

			Convey("Then it should classify as upright with confidence", func() {
				So(err, ShouldBeNil)
				So(result.Label, ShouldEqual, "upright")
				So(result.Confidence, ShouldBeGreaterThan, 0.5)
			})
		})

		Convey("When the center is dark", func() {
			result, err := c.Classify(context.Background(), frame(false))

			Convey("Then it should classify away from upright", func() {
				So(err, ShouldBeNil)
				So(result.Label, ShouldBeIn, []string{"off_center", "leaning"})
			})
		})

		Convey("When the frame is not an image", func() {
			_, err := c.Classify(context.Background(), []byte("noise"))

			Convey("Then it should report a decode failure", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given an unavailable classifier", t, func() {
		c := signal.UnavailableClassifier{}

		Convey("Then it should report unavailability without panicking", func() {
			So(c.Available(), ShouldBeFalse)
			_, err := c.Classify(context.Background(), []byte{1, 2, 3})
			So(err, ShouldEqual, signal.ErrClassifierUnavailable)
		})
	})
}
