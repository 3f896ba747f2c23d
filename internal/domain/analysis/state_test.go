package analysis

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/scoring"
)

func audioResult(conf, tone, pace, volume float64) scoring.AudioResult {
	return scoring.AudioResult{
		Confidence: conf,
		Tone:       tone,
		Pace:       pace,
		Volume:     volume,
		Overall:    conf*0.4 + tone*0.3 + pace*0.2 + volume*0.1,
		Analyzed:   true,
	}
}

func TestState(t *testing.T) {
	now := time.Now()

	Convey("Given an empty analysis state", t, func() {
		st := NewState("sess-1", 100)

		Convey("Then the audio report flags the missing data", func() {
			r := st.AudioReport()

			So(r.Error, ShouldNotBeEmpty)
			So(r.TotalChunks, ShouldEqual, 0)
			So(r.Recommendations, ShouldHaveLength, 1)
		})

		Convey("Then the visual report flags the missing data", func() {
			r := st.VisualReport()

			So(r.Error, ShouldNotBeEmpty)
			So(r.FrameCount, ShouldEqual, 0)
		})

		Convey("When audio results are added", func() {
			st.AddAudio(audioResult(80, 75, 100, 90), now)
			st.AddAudio(audioResult(84, 75, 100, 90), now.Add(time.Second))

			Convey("Then the report averages the window", func() {
				r := st.AudioReport()

				So(r.TotalChunks, ShouldEqual, 2)
				So(r.AverageConfidence, ShouldAlmostEqual, 82, 1e-9)
				So(r.AverageTone, ShouldAlmostEqual, 75, 1e-9)
				So(r.Overall, ShouldAlmostEqual, (82+75+100)/3.0, 1e-9)
				So(r.Error, ShouldBeEmpty)
			})

			Convey("Then consistency reflects the confidence spread", func() {
				r := st.AudioReport()

				// stddev of {80, 84} is 2, penalty 4
				So(r.ConfidenceConsistency, ShouldAlmostEqual, 96, 1e-9)
			})

			Convey("Then samples expose both kinds for aggregation", func() {
				st.AddVisual(scoring.VisualResult{Posture: 90, Label: "upright", Overall: 90, Analyzed: true}, now)

				samples := st.Samples()
				So(samples, ShouldHaveLength, 3)
				So(samples[2].Kind, ShouldEqual, model.KindVisual)
			})
		})

		Convey("When sub-scores sit below the recommendation threshold", func() {
			st.AddAudio(audioResult(40, 45, 50, 80), now)

			r := st.AudioReport()

			So(r.Recommendations, ShouldContain, "Practice speaking with more confidence and conviction")
			So(r.Recommendations, ShouldContain, "Work on voice clarity and tone quality")
			So(r.Recommendations, ShouldContain, "Practice maintaining an optimal speaking pace")
		})

		Convey("When visual results accumulate", func() {
			st.AddVisual(scoring.VisualResult{Posture: 90, Label: "upright", Overall: 90}, now)
			st.AddVisual(scoring.VisualResult{Posture: 90, Label: "upright", Overall: 90}, now)
			st.AddVisual(scoring.VisualResult{Posture: 55, Label: "off_center", Overall: 55}, now)

			r := st.VisualReport()

			So(r.FrameCount, ShouldEqual, 3)
			So(r.DominantLabel, ShouldEqual, "upright")
			So(r.AverageScore, ShouldAlmostEqual, (90+90+55)/3.0, 1e-9)
		})
	})

	Convey("Given a state with a small capacity", t, func() {
		st := NewState("sess-2", 3)

		Convey("When more samples arrive than the window holds", func() {
			for i := 0; i < 5; i++ {
				st.AddAudio(audioResult(float64(60+i*10), 70, 100, 90), now.Add(time.Duration(i)*time.Second))
			}

			Convey("Then the oldest samples are evicted first", func() {
				r := st.AudioReport()

				So(r.TotalChunks, ShouldEqual, 3)
				// survivors are 80, 90, 100
				So(r.AverageConfidence, ShouldAlmostEqual, 90, 1e-9)
			})
		})

		Convey("When visual samples overflow the labels follow the window", func() {
			st.AddVisual(scoring.VisualResult{Label: "leaning", Overall: 65}, now)
			for i := 0; i < 3; i++ {
				st.AddVisual(scoring.VisualResult{Label: "upright", Overall: 90}, now)
			}

			r := st.VisualReport()

			So(r.FrameCount, ShouldEqual, 3)
			So(r.DominantLabel, ShouldEqual, "upright")
			So(r.AverageScore, ShouldAlmostEqual, 90, 1e-9)
		})
	})

	Convey("Given concurrent writers and readers", t, func() {
		st := NewState("sess-3", 50)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					st.AddAudio(audioResult(80, 80, 100, 90), now)
					st.AddVisual(scoring.VisualResult{Label: "upright", Overall: 90}, now)
					_ = st.AudioReport()
					_ = st.Samples()
				}
			}()
		}
		wg.Wait()

		Convey("Then both windows respect their bound", func() {
			So(st.AudioReport().TotalChunks, ShouldEqual, 50)
			So(st.VisualReport().FrameCount, ShouldEqual, 50)
		})
	})
}
